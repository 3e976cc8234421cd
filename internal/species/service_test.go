package species_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speciesdash/speciesdash/internal/species"
)

var errUpstream = errors.New("upstream unavailable")

// mockProvider is an in-memory species provider for testing.
type mockProvider struct {
	mu sync.Mutex

	searchResults []species.Taxon
	searchErr     error
	searchCalls   int
	lastQuery     string

	taxa       map[int64]*species.Taxon
	detailErrs map[int64]error
	counts     map[int64]int64
	countErrs  map[int64]error
	countCalls []species.OccurrenceQuery

	page       *species.OccurrencePage
	pageErr    error
	lastOccurQ species.OccurrenceQuery

	tile         []byte
	tileErr      error
	lastStyle    string
	lastDensity  species.DensityOptions
	lastTileReq  species.TileRequest
	tileRequests int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		taxa:       make(map[int64]*species.Taxon),
		detailErrs: make(map[int64]error),
		counts:     make(map[int64]int64),
		countErrs:  make(map[int64]error),
	}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) SearchSpecies(_ context.Context, query string) ([]species.Taxon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = query
	return m.searchResults, m.searchErr
}

func (m *mockProvider) GetSpecies(_ context.Context, key int64) (*species.Taxon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.detailErrs[key]; err != nil {
		return nil, err
	}
	if t, ok := m.taxa[key]; ok {
		return t, nil
	}
	return &species.Taxon{Key: key, ScientificName: fmt.Sprintf("Taxon %d", key), TaxonomicStatus: "ACCEPTED"}, nil
}

func (m *mockProvider) SearchOccurrences(_ context.Context, q species.OccurrenceQuery) (*species.OccurrencePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOccurQ = q
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	if m.page == nil {
		return &species.OccurrencePage{}, nil
	}
	return m.page, nil
}

func (m *mockProvider) CountOccurrences(_ context.Context, q species.OccurrenceQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls = append(m.countCalls, q)
	if err := m.countErrs[q.TaxonKey]; err != nil {
		return 0, err
	}
	return m.counts[q.TaxonKey], nil
}

func (m *mockProvider) BaseTile(_ context.Context, req species.TileRequest, style string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tileRequests++
	m.lastTileReq = req
	m.lastStyle = style
	return m.tile, m.tileErr
}

func (m *mockProvider) DensityTile(_ context.Context, req species.TileRequest, opts species.DensityOptions) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tileRequests++
	m.lastTileReq = req
	m.lastDensity = opts
	return m.tile, m.tileErr
}

func newTestService(p species.Provider) *species.Service {
	return species.NewService(species.ServiceConfig{
		Provider: p,
		Logger:   zerolog.New(io.Discard),
	})
}

func TestService_Search_RejectsShortQueryBeforeUpstream(t *testing.T) {
	provider := newMockProvider()
	svc := newTestService(provider)

	for _, q := range []string{"", "a", "ż"} {
		_, err := svc.Search(context.Background(), q)
		assert.ErrorIs(t, err, species.ErrInvalidQuery, "query %q", q)
	}
	assert.Equal(t, 0, provider.searchCalls)
}

func TestService_Search_CountsCharactersNotBytes(t *testing.T) {
	provider := newMockProvider()
	svc := newTestService(provider)

	_, err := svc.Search(context.Background(), "żó")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.searchCalls)
}

func TestService_Search_KeepsOnlyAccepted(t *testing.T) {
	provider := newMockProvider()
	provider.searchResults = []species.Taxon{
		{Key: 10, TaxonomicStatus: "ACCEPTED"},
		{Key: 11, TaxonomicStatus: "DOUBTFUL"},
		{Key: 12, TaxonomicStatus: "ACCEPTED"},
	}
	svc := newTestService(provider)

	records, err := svc.Search(context.Background(), "passer")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, int64(10), records[0].Key)
	assert.Equal(t, int64(12), records[1].Key)
	assert.Equal(t, "passer", provider.lastQuery)
}

func TestService_Search_UpstreamError(t *testing.T) {
	provider := newMockProvider()
	provider.searchErr = errUpstream
	svc := newTestService(provider)

	_, err := svc.Search(context.Background(), "passer")
	assert.ErrorIs(t, err, errUpstream)
}

func TestService_Timeline_DefaultsCountry(t *testing.T) {
	provider := newMockProvider()
	provider.page = &species.OccurrencePage{
		Count:   42,
		Results: []species.Occurrence{{Year: intPtr(2020), Month: intPtr(5)}},
	}
	svc := newTestService(provider)

	timeline, err := svc.Timeline(context.Background(), 2492010, "")
	require.NoError(t, err)

	assert.Equal(t, "PL", provider.lastOccurQ.Country)
	assert.Equal(t, int64(2492010), provider.lastOccurQ.TaxonKey)
	assert.True(t, provider.lastOccurQ.CoordinatesOnly)
	assert.Equal(t, int64(42), timeline.TotalObservations)
	assert.Equal(t, []species.MonthCount{{Month: "May", Count: 1}}, timeline.Monthly)
}

func TestService_Timeline_UsesRequestedCountry(t *testing.T) {
	provider := newMockProvider()
	svc := newTestService(provider)

	_, err := svc.Timeline(context.Background(), 1, "DE")
	require.NoError(t, err)
	assert.Equal(t, "DE", provider.lastOccurQ.Country)
}

func TestService_Timeline_UpstreamError(t *testing.T) {
	provider := newMockProvider()
	provider.pageErr = errUpstream
	svc := newTestService(provider)

	timeline, err := svc.Timeline(context.Background(), 1, "PL")
	assert.ErrorIs(t, err, errUpstream)
	assert.Nil(t, timeline)
}

func TestService_BaseTile_RequiresDatasetKey(t *testing.T) {
	provider := newMockProvider()
	svc := newTestService(provider)

	_, err := svc.BaseTile(context.Background(), species.TileRequest{Z: 1, X: 0, Y: 0})
	assert.ErrorIs(t, err, species.ErrDatasetKeyRequired)
	assert.Equal(t, 0, provider.tileRequests)
}

func TestService_BaseTile_UsesStyle(t *testing.T) {
	provider := newMockProvider()
	provider.tile = []byte{0x89, 'P', 'N', 'G'}
	svc := newTestService(provider)

	tile, err := svc.BaseTile(context.Background(), species.TileRequest{Z: 3, X: 4, Y: 2, DatasetKey: "abc"})
	require.NoError(t, err)

	assert.Equal(t, provider.tile, tile)
	assert.Equal(t, species.BaseTileStyle, provider.lastStyle)
	assert.Equal(t, "abc", provider.lastTileReq.DatasetKey)
}

func TestService_DensityTile_FixedOptions(t *testing.T) {
	provider := newMockProvider()
	provider.tile = []byte{0x89, 'P', 'N', 'G'}
	svc := newTestService(provider)

	_, err := svc.DensityTile(context.Background(), species.TileRequest{Z: 0, X: 0, Y: 0})
	require.NoError(t, err)

	assert.Equal(t, species.DensityOptions{
		SRS:        "EPSG:4326",
		Bin:        "hex",
		HexPerTile: 179,
		Country:    "PL",
		Style:      "classic.poly",
	}, provider.lastDensity)
}

func TestService_DensityTile_UpstreamError(t *testing.T) {
	provider := newMockProvider()
	provider.tileErr = errUpstream
	svc := newTestService(provider)

	_, err := svc.DensityTile(context.Background(), species.TileRequest{})
	assert.ErrorIs(t, err, errUpstream)
}
