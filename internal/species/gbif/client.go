// Package gbif implements the species provider against the GBIF REST and map APIs.
package gbif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/speciesdash/speciesdash/internal/provider/resilience"
	"github.com/speciesdash/speciesdash/internal/species"
	"github.com/speciesdash/speciesdash/internal/telemetry"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "gbif"

	// DefaultAPIBaseURL is the GBIF species and occurrence API.
	DefaultAPIBaseURL = "https://api.gbif.org/v1"

	// DefaultMapBaseURL is the GBIF occurrence density map API.
	DefaultMapBaseURL = "https://api.gbif.org/v2/map/occurrence/density"

	// DefaultTileBaseURL is the GBIF base map tile server (EPSG:4326, OpenMapTiles).
	DefaultTileBaseURL = "https://tile.gbif.org/4326/omt"

	// Upstream names used for circuit breakers, the registry and metrics.
	UpstreamAPI   = "gbif-api"
	UpstreamMaps  = "gbif-maps"
	UpstreamTiles = "gbif-tiles"

	// MaxTileBytes is the largest tile body accepted from GBIF.
	MaxTileBytes = 8 << 20

	tracerName = "github.com/speciesdash/speciesdash/internal/species/gbif"
)

// ErrTransport marks failures to get any HTTP response from GBIF
// (connection errors, timeouts, open circuit).
var ErrTransport = errors.New("gbif transport failure")

// ErrTileTooLarge is returned when a tile body exceeds MaxTileBytes.
var ErrTileTooLarge = errors.New("gbif tile exceeds size limit")

// StatusError is returned when GBIF answers with a non-2xx status.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gbif %s: unexpected status code: %d", e.Operation, e.StatusCode)
}

// ClientConfig holds configuration for the GBIF client.
type ClientConfig struct {
	// APIBaseURL, MapBaseURL and TileBaseURL override the GBIF endpoints.
	APIBaseURL  string
	MapBaseURL  string
	TileBaseURL string

	// UserAgent is sent with every request when set.
	UserAgent string

	// APIClient, MapClient and TileClient are the HTTP clients per upstream.
	// If nil, resilient clients with defaults are created; the API client's
	// half-open allowance then covers the popular species fan-out.
	APIClient  *resilience.Client
	MapClient  *resilience.Client
	TileClient *resilience.Client

	// Metrics records upstream call durations (optional).
	Metrics *telemetry.UpstreamMetrics

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a GBIF API client. It implements species.Provider.
type Client struct {
	apiBaseURL  string
	mapBaseURL  string
	tileBaseURL string
	userAgent   string
	apiClient   *resilience.Client
	mapClient   *resilience.Client
	tileClient  *resilience.Client
	metrics     *telemetry.UpstreamMetrics
	tracer      trace.Tracer
	logger      zerolog.Logger
}

var _ species.Provider = (*Client)(nil)

// NewClient creates a new GBIF client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		apiBaseURL:  orDefault(cfg.APIBaseURL, DefaultAPIBaseURL),
		mapBaseURL:  orDefault(cfg.MapBaseURL, DefaultMapBaseURL),
		tileBaseURL: orDefault(cfg.TileBaseURL, DefaultTileBaseURL),
		userAgent:   cfg.UserAgent,
		apiClient:   cfg.APIClient,
		mapClient:   cfg.MapClient,
		tileClient:  cfg.TileClient,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer(tracerName),
		logger:      cfg.Logger,
	}

	if c.apiClient == nil {
		apiCfg := resilience.DefaultClientConfig(UpstreamAPI)
		apiCfg.Breaker.MaxRequests = uint32(len(species.PopularSpeciesKeys))
		c.apiClient = resilience.NewClient(apiCfg)
	}
	if c.mapClient == nil {
		c.mapClient = resilience.NewClient(resilience.DefaultClientConfig(UpstreamMaps))
	}
	if c.tileClient == nil {
		c.tileClient = resilience.NewClient(resilience.DefaultClientConfig(UpstreamTiles))
	}

	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchSpecies searches species names, asking GBIF for accepted names only.
func (c *Client) SearchSpecies(ctx context.Context, query string) ([]species.Taxon, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("status", species.AcceptedStatus)

	var resp speciesSearchResponse
	if err := c.getJSON(ctx, c.apiClient, "species.search", c.apiBaseURL+"/species/search", params, &resp); err != nil {
		return nil, err
	}

	taxa := make([]species.Taxon, 0, len(resp.Results))
	for i := range resp.Results {
		taxa = append(taxa, resp.Results[i].toTaxon())
	}
	return taxa, nil
}

// GetSpecies fetches a single name usage by key.
func (c *Client) GetSpecies(ctx context.Context, key int64) (*species.Taxon, error) {
	var usage nameUsage
	endpoint := c.apiBaseURL + "/species/" + strconv.FormatInt(key, 10)
	if err := c.getJSON(ctx, c.apiClient, "species.get", endpoint, nil, &usage); err != nil {
		return nil, err
	}

	taxon := usage.toTaxon()
	return &taxon, nil
}

// SearchOccurrences fetches the first page of matching occurrences.
func (c *Client) SearchOccurrences(ctx context.Context, q species.OccurrenceQuery) (*species.OccurrencePage, error) {
	var resp occurrenceSearchResponse
	if err := c.getJSON(ctx, c.apiClient, "occurrence.search", c.apiBaseURL+"/occurrence/search", occurrenceParams(q), &resp); err != nil {
		return nil, err
	}

	page := &species.OccurrencePage{
		Count:   resp.Count,
		Results: make([]species.Occurrence, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, species.Occurrence{Year: r.Year, Month: r.Month})
	}
	return page, nil
}

// CountOccurrences returns the total count of matching occurrences without fetching records.
func (c *Client) CountOccurrences(ctx context.Context, q species.OccurrenceQuery) (int64, error) {
	params := occurrenceParams(q)
	params.Set("limit", "0")

	var resp occurrenceSearchResponse
	if err := c.getJSON(ctx, c.apiClient, "occurrence.count", c.apiBaseURL+"/occurrence/search", params, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// BaseTile fetches a base map tile in the given style.
func (c *Client) BaseTile(ctx context.Context, req species.TileRequest, style string) ([]byte, error) {
	params := url.Values{}
	params.Set("style", style)

	return c.getTile(ctx, c.tileClient, "tile.base", tileURL(c.tileBaseURL, req), params)
}

// DensityTile fetches an occurrence density tile.
func (c *Client) DensityTile(ctx context.Context, req species.TileRequest, opts species.DensityOptions) ([]byte, error) {
	params := url.Values{}
	params.Set("srs", opts.SRS)
	params.Set("bin", opts.Bin)
	params.Set("hexPerTile", strconv.Itoa(opts.HexPerTile))
	params.Set("country", opts.Country)
	params.Set("style", opts.Style)
	if req.DatasetKey != "" {
		params.Set("datasetKey", req.DatasetKey)
	}

	return c.getTile(ctx, c.mapClient, "tile.density", tileURL(c.mapBaseURL, req), params)
}

func (c *Client) getJSON(ctx context.Context, hc *resilience.Client, op, endpoint string, params url.Values, out any) error {
	return c.do(ctx, hc, op, endpoint, params, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return fmt.Errorf("gbif %s: decoding response: %w", op, err)
		}
		return nil
	})
}

func (c *Client) getTile(ctx context.Context, hc *resilience.Client, op, endpoint string, params url.Values) ([]byte, error) {
	var tile []byte
	err := c.do(ctx, hc, op, endpoint, params, func(body io.Reader) error {
		b, err := io.ReadAll(io.LimitReader(body, MaxTileBytes+1))
		if err != nil {
			return fmt.Errorf("%w: gbif %s: reading tile: %w", ErrTransport, op, err)
		}
		if len(b) > MaxTileBytes {
			return fmt.Errorf("gbif %s: %w", op, ErrTileTooLarge)
		}
		tile = b
		return nil
	})
	return tile, err
}

// do performs one GET and hands a 2xx body to read.
func (c *Client) do(ctx context.Context, hc *resilience.Client, op, endpoint string, params url.Values, read func(io.Reader) error) (err error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "gbif "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", endpoint),
			attribute.String("upstream.name", hc.Name()),
		),
	)
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(ctx, hc.Name(), op, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("gbif %s: creating request: %w", op, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().
		Str("upstream", hc.Name()).
		Str("operation", op).
		Str("url", endpoint).
		Msg("calling upstream")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: gbif %s: %w", ErrTransport, op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Operation: op, StatusCode: resp.StatusCode}
	}

	return read(resp.Body)
}

func occurrenceParams(q species.OccurrenceQuery) url.Values {
	params := url.Values{}
	params.Set("taxonKey", strconv.FormatInt(q.TaxonKey, 10))
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.CoordinatesOnly {
		params.Set("hasCoordinate", "true")
		params.Set("hasGeospatialIssue", "false")
	}
	return params
}

func tileURL(base string, req species.TileRequest) string {
	return fmt.Sprintf("%s/%d/%d/%d@1x.png", base, req.Z, req.X, req.Y)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
