package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speciesdash/speciesdash/internal/api/handler"
	"github.com/speciesdash/speciesdash/internal/api/models"
	"github.com/speciesdash/speciesdash/internal/species"
)

var errUpstream = errors.New("gbif species.search: unexpected status code: 503")

// fakeService is a configurable SpeciesService for handler tests.
type fakeService struct {
	mu sync.Mutex

	searchRecords []species.Record
	searchErr     error
	searchCalls   int

	timeline        *species.Timeline
	timelineErr     error
	timelineKey     int64
	timelineCountry string

	popular      []species.Record
	popularPanic bool

	tile      []byte
	tileErr   error
	tileReq   species.TileRequest
	tileCalls int

	ctxErr error
}

func (f *fakeService) Search(ctx context.Context, query string) ([]species.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.ctxErr = ctx.Err()
	return f.searchRecords, f.searchErr
}

func (f *fakeService) Timeline(_ context.Context, key int64, country string) (*species.Timeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timelineKey = key
	f.timelineCountry = country
	return f.timeline, f.timelineErr
}

func (f *fakeService) PopularSpecies(context.Context) []species.Record {
	if f.popularPanic {
		panic("unexpected")
	}
	return f.popular
}

func (f *fakeService) BaseTile(_ context.Context, req species.TileRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tileCalls++
	f.tileReq = req
	if req.DatasetKey == "" {
		return nil, species.ErrDatasetKeyRequired
	}
	return f.tile, f.tileErr
}

func (f *fakeService) DensityTile(_ context.Context, req species.TileRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tileCalls++
	f.tileReq = req
	return f.tile, f.tileErr
}

func newTestRouter(svc handler.SpeciesService) http.Handler {
	log := zerolog.Nop()
	sh := handler.NewSpeciesHandler(svc, log)
	mh := handler.NewMapHandler(svc, log)

	r := chi.NewRouter()
	r.Get("/api/species/search", sh.Search)
	r.Get("/api/species/{species_key}/timeline", sh.Timeline)
	r.Get("/api/popular-species", sh.PopularSpecies)
	r.Get("/api/map/tile/{z}/{x}/{y}", mh.BaseTile)
	r.Get("/api/map/{z}/{x}/{y}", mh.DensityTile)
	return r
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
