package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/speciesdash/speciesdash/internal/api/models"
	"github.com/speciesdash/speciesdash/internal/api/response"
	"github.com/speciesdash/speciesdash/internal/species"
)

const (
	// TileMaxAge is the public cache lifetime of map tiles, in seconds.
	TileMaxAge = 3600

	msgTileFailed = "Failed to fetch map tile"
)

// MapHandler serves map tiles proxied from the upstream tile services.
type MapHandler struct {
	service SpeciesService
	logger  zerolog.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(service SpeciesService, logger zerolog.Logger) *MapHandler {
	return &MapHandler{service: service, logger: logger}
}

// BaseTile handles GET /api/map/tile/{z}/{x}/{y}?dataset_key= - a base map tile.
func (h *MapHandler) BaseTile(w http.ResponseWriter, r *http.Request) {
	req, ok := parseTileRequest(w, r)
	if !ok {
		return
	}

	tile, err := h.service.BaseTile(upstreamContext(r), req)
	if err != nil {
		if errors.Is(err, species.ErrDatasetKeyRequired) {
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "dataset_key", Message: "is required", Code: models.FieldCodeRequired},
			})
			return
		}
		upstreamFailure(w, r, h.logger, err, msgTileFailed)
		return
	}

	response.PNG(w, r, tile, TileMaxAge)
}

// DensityTile handles GET /api/map/{z}/{x}/{y}?dataset_key= - an occurrence density tile.
func (h *MapHandler) DensityTile(w http.ResponseWriter, r *http.Request) {
	req, ok := parseTileRequest(w, r)
	if !ok {
		return
	}

	tile, err := h.service.DensityTile(upstreamContext(r), req)
	if err != nil {
		upstreamFailure(w, r, h.logger, err, msgTileFailed)
		return
	}

	response.PNG(w, r, tile, TileMaxAge)
}

// parseTileRequest reads z/x/y and dataset_key, writing a 400 on bad coordinates.
func parseTileRequest(w http.ResponseWriter, r *http.Request) (species.TileRequest, bool) {
	var (
		req    species.TileRequest
		fields []models.FieldError
	)

	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"z", &req.Z},
		{"x", &req.X},
		{"y", &req.Y},
	} {
		v, err := strconv.Atoi(chi.URLParam(r, c.name))
		if err != nil {
			fields = append(fields, models.FieldError{Field: c.name, Message: "must be an integer", Code: models.FieldCodeInvalid})
			continue
		}
		*c.dst = v
	}

	if len(fields) > 0 {
		response.BadRequest(w, r, "tile coordinates must be integers", fields)
		return species.TileRequest{}, false
	}

	req.DatasetKey = r.URL.Query().Get("dataset_key")
	return req, true
}
