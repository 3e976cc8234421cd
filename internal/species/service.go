package species

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Provider defines the upstream biodiversity data and map tile operations.
type Provider interface {
	// SearchSpecies runs a species name search restricted to accepted names.
	SearchSpecies(ctx context.Context, query string) ([]Taxon, error)

	// GetSpecies fetches one taxon by key.
	GetSpecies(ctx context.Context, key int64) (*Taxon, error)

	// SearchOccurrences fetches one page of occurrences.
	SearchOccurrences(ctx context.Context, q OccurrenceQuery) (*OccurrencePage, error)

	// CountOccurrences returns the total number of matching occurrences.
	CountOccurrences(ctx context.Context, q OccurrenceQuery) (int64, error)

	// BaseTile fetches a styled base map tile as raw PNG bytes.
	BaseTile(ctx context.Context, req TileRequest, style string) ([]byte, error)

	// DensityTile fetches an occurrence density tile as raw PNG bytes.
	DensityTile(ctx context.Context, req TileRequest, opts DensityOptions) ([]byte, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the species service.
type ServiceConfig struct {
	// Provider is the upstream data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Country scopes popular species counts and is the default timeline country.
	// Default: DefaultCountry
	Country string

	// PopularKeys are the taxon keys of the popular species list.
	// Default: PopularSpeciesKeys
	PopularKeys []int64

	// Density holds the density tile rendering parameters.
	// Default: DefaultDensityOptions(Country)
	Density *DensityOptions

	// BaseTileStyle is the style of dataset-scoped base tiles.
	// Default: BaseTileStyle
	BaseTileStyle string
}

// Service answers the dashboard queries against the upstream provider.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	country       string
	popularKeys   []int64
	density       DensityOptions
	baseTileStyle string
}

// NewService creates a new species service.
func NewService(cfg ServiceConfig) *Service {
	country := cfg.Country
	if country == "" {
		country = DefaultCountry
	}

	popularKeys := cfg.PopularKeys
	if len(popularKeys) == 0 {
		popularKeys = PopularSpeciesKeys
	}

	density := DefaultDensityOptions(country)
	if cfg.Density != nil {
		density = *cfg.Density
	}

	baseTileStyle := cfg.BaseTileStyle
	if baseTileStyle == "" {
		baseTileStyle = BaseTileStyle
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		country:       country,
		popularKeys:   append([]int64(nil), popularKeys...),
		density:       density,
		baseTileStyle: baseTileStyle,
	}
}

// DefaultCountry returns the country used when a request does not name one.
func (s *Service) DefaultCountry() string {
	return s.country
}

// Search returns the accepted species matching query, in upstream order.
func (s *Service) Search(ctx context.Context, query string) ([]Record, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrInvalidQuery
	}

	taxa, err := s.provider.SearchSpecies(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching species: %w", err)
	}

	return AcceptedRecords(taxa), nil
}

// Timeline builds the observation timeline of a species in country.
// An empty country falls back to the service default.
func (s *Service) Timeline(ctx context.Context, speciesKey int64, country string) (*Timeline, error) {
	if country == "" {
		country = s.country
	}

	page, err := s.provider.SearchOccurrences(ctx, OccurrenceQuery{
		TaxonKey:        speciesKey,
		Country:         country,
		CoordinatesOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("searching occurrences: %w", err)
	}

	timeline := BuildTimeline(*page)
	return &timeline, nil
}

// BaseTile returns a dataset-scoped base map tile.
func (s *Service) BaseTile(ctx context.Context, req TileRequest) ([]byte, error) {
	if req.DatasetKey == "" {
		return nil, ErrDatasetKeyRequired
	}

	tile, err := s.provider.BaseTile(ctx, req, s.baseTileStyle)
	if err != nil {
		return nil, fmt.Errorf("fetching base tile: %w", err)
	}
	return tile, nil
}

// DensityTile returns an occurrence density tile rendered with the fixed options.
func (s *Service) DensityTile(ctx context.Context, req TileRequest) ([]byte, error) {
	tile, err := s.provider.DensityTile(ctx, req, s.density)
	if err != nil {
		return nil, fmt.Errorf("fetching density tile: %w", err)
	}
	return tile, nil
}
