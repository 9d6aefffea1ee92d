package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/weather"
)

// WeatherSource returns the current observation near a point.
type WeatherSource interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error)
	ProviderName() string
}

// WeatherHandler serves current conditions with the hazard flag.
type WeatherHandler struct {
	source WeatherSource
	logger zerolog.Logger
}

func NewWeatherHandler(source WeatherSource, logger zerolog.Logger) *WeatherHandler {
	return &WeatherHandler{source: source, logger: logger}
}

// GetWeather handles GET /v1/weather?lat&lng.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fields []models.FieldError
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		fields = append(fields, models.FieldError{Field: "lat", Message: "must be a number", Code: "REQUIRED"})
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		fields = append(fields, models.FieldError{Field: "lng", Message: "must be a number", Code: "REQUIRED"})
	}
	if len(fields) > 0 {
		response.BadRequest(w, r, "lat and lng query parameters are required", fields)
		return
	}

	obs, err := h.source.GetCurrentWeather(r.Context(), lat, lng)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reasons := obs.HazardReasons()
	resp := models.WeatherResponse{
		Point:       models.Point{Lat: obs.Lat, Lng: obs.Lon},
		Temperature: obs.Temperature,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		WindGust:    obs.WindGust,
		Visibility:  obs.Visibility,
		Condition:   string(obs.Condition),
		Description: obs.Description,
		Hazardous:   len(reasons) > 0,
		ObservedAt:  models.Timestamp(obs.ObservedAt),
		Provider:    h.source.ProviderName(),
	}
	for _, reason := range reasons {
		resp.HazardReasons = append(resp.HazardReasons, string(reason))
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, resp)
}
