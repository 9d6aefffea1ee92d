package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/api/handler"
	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/weather"
)

type stubWeather struct {
	obs *weather.Observation
	err error
}

func (s *stubWeather) GetCurrentWeather(_ context.Context, lat, lon float64) (*weather.Observation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := (geo.Point{Lat: lat, Lng: lon}).Validate(); err != nil {
		return nil, err
	}
	obs := *s.obs
	obs.Lat, obs.Lon = lat, lon
	return &obs, nil
}

func (s *stubWeather) ProviderName() string { return "openweathermap" }

func TestGetWeather_Hazardous(t *testing.T) {
	visibility := 600.0
	h := handler.NewWeatherHandler(&stubWeather{obs: &weather.Observation{
		Temperature: 27,
		WindSpeed:   6,
		Visibility:  &visibility,
		Condition:   weather.ConditionThunderstorm,
		Description: "thunderstorm with heavy rain",
		ObservedAt:  time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC),
	}}, zerolog.Nop())

	rec := do(h.GetWeather, http.MethodGet, "/v1/weather?lat=19.07&lng=72.87", nil, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	resp := decode[models.WeatherResponse](t, rec)
	assert.Equal(t, models.Point{Lat: 19.07, Lng: 72.87}, resp.Point)
	assert.True(t, resp.Hazardous)
	assert.Equal(t, []string{"THUNDERSTORM", "LOW_VISIBILITY"}, resp.HazardReasons)
	assert.Equal(t, "THUNDERSTORM", resp.Condition)
	assert.Equal(t, "openweathermap", resp.Provider)
	require.NotNil(t, resp.Visibility)
	assert.Equal(t, 600.0, *resp.Visibility)
}

func TestGetWeather_Calm(t *testing.T) {
	h := handler.NewWeatherHandler(&stubWeather{obs: &weather.Observation{
		Condition: weather.ConditionClear,
		WindSpeed: 3,
	}}, zerolog.Nop())

	rec := do(h.GetWeather, http.MethodGet, "/v1/weather?lat=28.6&lng=77.2", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.WeatherResponse](t, rec)
	assert.False(t, resp.Hazardous)
	assert.Empty(t, resp.HazardReasons)
	assert.Nil(t, resp.Visibility)
}

func TestGetWeather_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing lng", "?lat=28.6", nil, http.StatusBadRequest},
		{"garbage lat", "?lat=north&lng=77", nil, http.StatusBadRequest},
		{"out of range", "?lat=100&lng=77", nil, http.StatusBadRequest},
		{"provider down", "?lat=28.6&lng=77.2", fmt.Errorf("%w: timeout", weather.ErrProviderUnavailable), http.StatusServiceUnavailable},
		{"malformed", "?lat=28.6&lng=77.2", fmt.Errorf("%w: no main block", weather.ErrMalformedResponse), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewWeatherHandler(&stubWeather{obs: &weather.Observation{}, err: tt.err}, zerolog.Nop())

			rec := do(h.GetWeather, http.MethodGet, "/v1/weather"+tt.query, nil, "")

			assert.Equal(t, tt.status, rec.Code)
			problemOf(t, rec)
		})
	}
}
