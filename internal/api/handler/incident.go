package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/incident"
)

// IncidentStore raises and closes the caller's SOS incidents.
type IncidentStore interface {
	Trigger(ctx context.Context, userID string, input *incident.TriggerInput) (*incident.Incident, error)
	Cancel(ctx context.Context, userID string) ([]*incident.Incident, error)
	Resolve(ctx context.Context, userID, incidentID string) (*incident.Incident, error)
	Get(ctx context.Context, userID, incidentID string) (*incident.Incident, error)
	List(ctx context.Context, userID string, limit int) ([]*incident.Incident, error)
}

// IncidentHandler serves /v1/incidents. Every route requires authentication.
type IncidentHandler struct {
	store  IncidentStore
	logger zerolog.Logger
}

func NewIncidentHandler(store IncidentStore, logger zerolog.Logger) *IncidentHandler {
	return &IncidentHandler{store: store, logger: logger}
}

// TriggerSOS handles POST /v1/incidents.
func (h *IncidentHandler) TriggerSOS(w http.ResponseWriter, r *http.Request) {
	var input incident.TriggerInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	inc, err := h.store.Trigger(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/incidents/"+inc.ID, toIncident(inc))
}

// CancelSOS handles POST /v1/incidents/cancel. It closes every active incident.
func (h *IncidentHandler) CancelSOS(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.store.Cancel(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.CancelResponse{Cancelled: toIncidents(cancelled)})
}

// ResolveIncident handles POST /v1/incidents/{incidentId}/resolve.
func (h *IncidentHandler) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	inc, err := h.store.Resolve(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "incidentId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toIncident(inc))
}

// GetIncident handles GET /v1/incidents/{incidentId}.
func (h *IncidentHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	inc, err := h.store.Get(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "incidentId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toIncident(inc))
}

// ListIncidents handles GET /v1/incidents?limit.
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	limit := incident.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "invalid query", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "GTE"},
			})
			return
		}
		limit = min(n, incident.MaxListLimit)
	}

	list, err := h.store.List(r.Context(), GetUserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.IncidentList{Incidents: toIncidents(list), Limit: limit})
}

func toIncidents(list []*incident.Incident) []models.Incident {
	out := make([]models.Incident, 0, len(list))
	for _, inc := range list {
		out = append(out, toIncident(inc))
	}
	return out
}

func toIncident(inc *incident.Incident) models.Incident {
	return models.Incident{
		ID:               inc.ID,
		Type:             string(inc.Type),
		Status:           string(inc.Status),
		Location:         models.PointFromGeo(inc.Location),
		Address:          inc.Address,
		Note:             inc.Note,
		ContactsNotified: inc.ContactsNotified,
		CreatedAt:        models.Timestamp(inc.CreatedAt),
		UpdatedAt:        models.Timestamp(inc.UpdatedAt),
		ClosedAt:         models.TimestampPtr(inc.ClosedAt),
	}
}
