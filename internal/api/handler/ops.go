// Package handler provides HTTP handlers for the SafePath API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/provider/resilience"
)

// ProviderHealthReporter lists the circuit state of every upstream provider.
type ProviderHealthReporter interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// QuotaReporter lists geocoding quota usage.
type QuotaReporter interface {
	Quotas() []geocoding.QuotaStatus
}

// ReadinessCheck tests one dependency the service cannot serve without.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ScoringSettings are the route scorer's effective settings.
type ScoringSettings struct {
	NeutralScore      float64
	SearchBandDegrees float64
}

// OpsHandlerConfig holds the dependencies of the operational endpoints.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	Providers ProviderHealthReporter
	Quotas    QuotaReporter
	Scoring   *ScoringSettings
	Checks    []ReadinessCheck
	Logger    zerolog.Logger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsHandlerConfig
}

func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. Any failing check answers 503.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := models.HealthStatusOK
	details := make(map[string]interface{}, len(h.cfg.Checks))
	for _, c := range h.cfg.Checks {
		if err := c.Check(ctx); err != nil {
			h.cfg.Logger.Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
			details[c.Name] = err.Error()
			status = models.HealthStatusFail
			continue
		}
		details[c.Name] = "ok"
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status. An open circuit degrades the
// overall status but never fails the endpoint itself.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}

	if h.cfg.Providers != nil {
		for _, ph := range h.cfg.Providers.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:            ph.Name,
				Status:              providerStatus(ph),
				CircuitState:        ph.CircuitState.String(),
				Requests:            ph.Counts.Requests,
				ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
				LastSuccessAt:       models.TimestampPtr(ph.LastSuccessAt),
				LastFailureAt:       models.TimestampPtr(ph.LastFailureAt),
				LastError:           ph.LastError,
			}
			if ps.Status != models.HealthStatusOK {
				resp.Status = models.HealthStatusDegraded
			}
			resp.Providers = append(resp.Providers, ps)
		}
	}

	if h.cfg.Quotas != nil {
		for _, q := range h.cfg.Quotas.Quotas() {
			resp.Quotas = append(resp.Quotas, models.QuotaStatus{
				Provider: q.Provider,
				Used:     q.Used,
				Limit:    q.Limit,
			})
		}
	}

	if sc := h.cfg.Scoring; sc != nil {
		resp.Scoring = &models.ScoringStatus{
			NeutralScore:      sc.NeutralScore,
			SearchBandDegrees: sc.SearchBandDegrees,
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func providerStatus(ph *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case ph.IsUnhealthy():
		return models.HealthStatusFail
	case ph.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
