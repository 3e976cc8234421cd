package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/speciesdash/speciesdash/internal/api/models"
	"github.com/speciesdash/speciesdash/internal/api/response"
	"github.com/speciesdash/speciesdash/internal/provider/resilience"
)

// ServiceMessage is returned by the root endpoint.
const ServiceMessage = "Species Dashboard API"

// OpsHandler handles service info and operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// Root handles GET / - service name and version.
func (h *OpsHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.ServiceInfo{
		Message: ServiceMessage,
		Version: h.version,
	})
}

// HealthCheck handles GET /api/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   now(),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /api/ops/ready - 503 while every upstream circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.registry != nil && h.registry.Len() > 0 {
		open := 0
		upstreams := h.registry.All()
		for _, u := range upstreams {
			if u.IsUnhealthy() {
				open++
			}
		}
		if open == len(upstreams) {
			response.ServiceUnavailable(w, r, "all upstream circuits are open")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   now(),
	})
}

// SystemStatus handles GET /api/ops/status - circuit state of each upstream.
// It always answers 200; the body carries the overall status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      now(),
		Upstreams: []models.UpstreamStatus{},
	}

	if h.registry != nil {
		failing := 0
		for _, u := range h.registry.All() {
			us := upstreamStatus(u)
			if us.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			if us.Status == models.HealthStatusFail {
				failing++
			}
			status.Upstreams = append(status.Upstreams, us)
		}
		if failing > 0 && failing == len(status.Upstreams) {
			status.Status = models.HealthStatusFail
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func upstreamStatus(u *resilience.UpstreamHealth) models.UpstreamStatus {
	us := models.UpstreamStatus{
		Name:                u.Name,
		Status:              models.HealthStatusOK,
		Circuit:             u.BreakerState.String(),
		Requests:            u.Counts.Requests,
		ConsecutiveFailures: u.Counts.ConsecutiveFailures,
	}

	switch u.BreakerState {
	case gobreaker.StateOpen:
		us.Status = models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		us.Status = models.HealthStatusDegraded
	}

	if u.LastSuccessAt != nil {
		ts := u.LastSuccessAt.UTC().Truncate(time.Second)
		us.LastSuccessAt = &ts
	}
	if u.LastFailureAt != nil {
		ts := u.LastFailureAt.UTC().Truncate(time.Second)
		us.LastFailureAt = &ts
	}
	if u.LastError != "" {
		msg := u.LastError
		us.Message = &msg
	}

	return us
}

// now is the current time in UTC at second precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
