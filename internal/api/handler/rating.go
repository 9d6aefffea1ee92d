package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/safety"
)

// RatingStore reads and writes community safety ratings.
type RatingStore interface {
	Submit(ctx context.Context, userID string, input *safety.SubmitInput) (*safety.Rating, error)
	ListInBox(ctx context.Context, box geo.Box, limit int) ([]*safety.Rating, error)
	Get(ctx context.Context, id string) (*safety.Rating, error)
}

// RatingHandler serves the safety map and the community report flow.
type RatingHandler struct {
	store  RatingStore
	logger zerolog.Logger
}

func NewRatingHandler(store RatingStore, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{store: store, logger: logger}
}

// ListRatings handles GET /v1/ratings?minLat&minLng&maxLat&maxLng&limit.
func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fields []models.FieldError
	parse := func(name string) float64 {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			fields = append(fields, models.FieldError{Field: name, Message: "must be a number", Code: "REQUIRED"})
		}
		return v
	}
	box := geo.Box{
		MinLat: parse("minLat"),
		MinLng: parse("minLng"),
		MaxLat: parse("maxLat"),
		MaxLng: parse("maxLng"),
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, models.FieldError{Field: "limit", Message: "must be a positive integer", Code: "GTE"})
		}
		limit = n
	}

	if len(fields) > 0 {
		response.BadRequest(w, r, "invalid bounding box query", fields)
		return
	}

	ratings, err := h.store.ListInBox(r.Context(), box, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if limit <= 0 {
		limit = safety.DefaultListLimit
	}
	resp := models.SafetyMapResponse{
		Ratings: make([]models.SafetyRating, 0, len(ratings)),
		Limit:   min(limit, safety.MaxListLimit),
	}
	for _, rating := range ratings {
		resp.Ratings = append(resp.Ratings, toSafetyRating(rating))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// GetRating handles GET /v1/ratings/{ratingId}.
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.store.Get(r.Context(), chi.URLParam(r, "ratingId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toSafetyRating(rating))
}

// SubmitRating handles POST /v1/ratings. Requires authentication.
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var input safety.SubmitInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	// Field validation lives in the service so the worker gets the same rules.
	rating, err := h.store.Submit(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/ratings/"+rating.ID, toSafetyRating(rating))
}

func toSafetyRating(r *safety.Rating) models.SafetyRating {
	return models.SafetyRating{
		ID:           r.ID,
		Center:       models.PointFromGeo(r.Center),
		RadiusMeters: r.RadiusMeters,
		SafetyScore:  r.SafetyScore,
		Category:     string(r.Category),
		Description:  r.Description,
		Anonymous:    r.Anonymous,
		CreatedAt:    models.Timestamp(r.CreatedAt),
	}
}
