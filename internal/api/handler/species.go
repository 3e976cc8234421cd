package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/speciesdash/speciesdash/internal/api/models"
	"github.com/speciesdash/speciesdash/internal/api/response"
	"github.com/speciesdash/speciesdash/internal/species"
	"github.com/speciesdash/speciesdash/internal/validation"
)

// Client-facing failure messages.
const (
	msgSearchFailed   = "Failed to search species"
	msgTimelineFailed = "Failed to fetch timeline data"
	msgPopularFailed  = "Failed to fetch popular species"
)

// SpeciesHandler handles species search, timeline and popular species endpoints.
type SpeciesHandler struct {
	service SpeciesService
	logger  zerolog.Logger
}

// NewSpeciesHandler creates a new SpeciesHandler.
func NewSpeciesHandler(service SpeciesService, logger zerolog.Logger) *SpeciesHandler {
	return &SpeciesHandler{service: service, logger: logger}
}

// Search handles GET /api/species/search?q= - accepted species matching q.
func (h *SpeciesHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := models.SearchParams{Query: r.URL.Query().Get("q")}
	if err := validation.ValidateStruct(&params); err != nil {
		badRequestFromValidation(w, r, err)
		return
	}

	records, err := h.service.Search(upstreamContext(r), params.Query)
	if err != nil {
		if errors.Is(err, species.ErrInvalidQuery) {
			response.BadRequest(w, r, err.Error(), []models.FieldError{
				{Field: "q", Message: err.Error(), Code: models.FieldCodeTooShort},
			})
			return
		}
		upstreamFailure(w, r, h.logger, err, msgSearchFailed)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SearchResponse{Results: records})
}

// Timeline handles GET /api/species/{species_key}/timeline?country= - yearly and monthly observation counts.
func (h *SpeciesHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "species_key")
	speciesKey, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(w, r, "species_key must be an integer", []models.FieldError{
			{Field: "species_key", Message: "must be an integer", Code: models.FieldCodeInvalid},
		})
		return
	}

	country := strings.TrimSpace(r.URL.Query().Get("country"))

	timeline, err := h.service.Timeline(upstreamContext(r), speciesKey, country)
	if err != nil {
		upstreamFailure(w, r, h.logger, err, msgTimelineFailed)
		return
	}

	response.JSON(w, r, http.StatusOK, timeline)
}

// PopularSpecies handles GET /api/popular-species - the default dashboard species with counts.
// Species whose lookups fail are left out; the request itself still succeeds.
func (h *SpeciesHandler) PopularSpecies(w http.ResponseWriter, r *http.Request) {
	records := h.popular(r)
	if records == nil {
		response.InternalError(w, r, msgPopularFailed)
		return
	}
	response.JSON(w, r, http.StatusOK, models.PopularSpeciesResponse{Species: records})
}

// popular runs the aggregation, turning an unexpected panic into a nil result.
func (h *SpeciesHandler) popular(r *http.Request) (records []species.Record) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error().
				Interface("panic", rec).
				Str("path", r.URL.Path).
				Msg(msgPopularFailed)
			records = nil
		}
	}()
	return h.service.PopularSpecies(upstreamContext(r))
}

func badRequestFromValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	fields := make([]models.FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, models.FieldError{
			Field:   f.Field,
			Message: f.Message,
			Code:    fieldCode(f.Tag),
		})
	}
	response.BadRequest(w, r, verr.Error(), fields)
}

func fieldCode(tag string) string {
	switch tag {
	case "required":
		return models.FieldCodeRequired
	case "min":
		return models.FieldCodeTooShort
	default:
		return models.FieldCodeInvalid
	}
}
