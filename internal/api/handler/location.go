package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/location"
)

// LocationStore records the caller's position and manages their geofences.
type LocationStore interface {
	Record(ctx context.Context, userID string, p geo.Point) (*location.Update, error)
	LastKnown(ctx context.Context, userID string) (*location.LastKnown, error)
	ListGeofences(ctx context.Context, userID string) ([]*location.Geofence, error)
	CreateGeofence(ctx context.Context, userID string, input *location.GeofenceInput) (*location.Geofence, error)
	UpdateGeofence(ctx context.Context, userID, geofenceID string, patch *location.GeofencePatch) (*location.Geofence, error)
	DeleteGeofence(ctx context.Context, userID, geofenceID string) error
}

// LocationHandler serves /v1/me/location and /v1/geofences. Every route
// requires authentication.
type LocationHandler struct {
	store  LocationStore
	logger zerolog.Logger
}

func NewLocationHandler(store LocationStore, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{store: store, logger: logger}
}

// UpdateLocation handles PUT /v1/me/location.
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var input location.PointInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	update, err := h.store.Record(r.Context(), GetUserID(r.Context()), geo.Point{Lat: input.Lat, Lng: input.Lng})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := models.LocationUpdateResponse{
		LastKnownLocation: toLastKnown(update.Location),
		Inside:            toGeofences(update.Inside),
		Entered:           geofenceIDs(update.Entered),
		Exited:            geofenceIDs(update.Exited),
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// GetLocation handles GET /v1/me/location.
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.store.LastKnown(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toLastKnown(loc))
}

// ListGeofences handles GET /v1/geofences.
func (h *LocationHandler) ListGeofences(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListGeofences(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.GeofenceList{Geofences: toGeofences(list)})
}

// CreateGeofence handles POST /v1/geofences.
func (h *LocationHandler) CreateGeofence(w http.ResponseWriter, r *http.Request) {
	var input location.GeofenceInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	g, err := h.store.CreateGeofence(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/geofences/"+g.ID, toGeofence(g))
}

// UpdateGeofence handles PATCH /v1/geofences/{geofenceId}.
func (h *LocationHandler) UpdateGeofence(w http.ResponseWriter, r *http.Request) {
	var patch location.GeofencePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	g, err := h.store.UpdateGeofence(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "geofenceId"), &patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toGeofence(g))
}

// DeleteGeofence handles DELETE /v1/geofences/{geofenceId}.
func (h *LocationHandler) DeleteGeofence(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteGeofence(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "geofenceId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

func toLastKnown(loc *location.LastKnown) models.LastKnownLocation {
	return models.LastKnownLocation{
		Location:   models.PointFromGeo(loc.Point),
		RecordedAt: models.Timestamp(loc.RecordedAt),
	}
}

func toGeofences(list []*location.Geofence) []models.Geofence {
	out := make([]models.Geofence, 0, len(list))
	for _, g := range list {
		out = append(out, toGeofence(g))
	}
	return out
}

func toGeofence(g *location.Geofence) models.Geofence {
	return models.Geofence{
		ID:           g.ID,
		Name:         g.Name,
		Center:       models.PointFromGeo(g.Center),
		RadiusMeters: g.RadiusMeters,
		Active:       g.Active,
		CreatedAt:    models.Timestamp(g.CreatedAt),
		UpdatedAt:    models.Timestamp(g.UpdatedAt),
	}
}

func geofenceIDs(list []*location.Geofence) []string {
	ids := make([]string, 0, len(list))
	for _, g := range list {
		ids = append(ids, g.ID)
	}
	return ids
}
