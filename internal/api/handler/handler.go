// Package handler provides HTTP handlers for the species dashboard API.
package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/speciesdash/speciesdash/internal/api/middleware"
	"github.com/speciesdash/speciesdash/internal/api/response"
	"github.com/speciesdash/speciesdash/internal/species"
)

// SpeciesService is the domain service the species and map handlers call.
type SpeciesService interface {
	Search(ctx context.Context, query string) ([]species.Record, error)
	Timeline(ctx context.Context, speciesKey int64, country string) (*species.Timeline, error)
	PopularSpecies(ctx context.Context) []species.Record
	BaseTile(ctx context.Context, req species.TileRequest) ([]byte, error)
	DensityTile(ctx context.Context, req species.TileRequest) ([]byte, error)
}

// upstreamContext detaches upstream calls from client disconnects.
// Values such as the trace span and request ID are kept.
func upstreamContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// upstreamFailure logs the cause and writes a generic 500 problem.
// Upstream bodies and error text never reach the client.
func upstreamFailure(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error, detail string) {
	log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg(detail)
	response.InternalError(w, r, detail)
}
