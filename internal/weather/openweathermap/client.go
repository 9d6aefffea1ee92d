// Package openweathermap provides a client for the OpenWeatherMap current weather API.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/provider/resilience"
	"github.com/safepath/safepath/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = &cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches current weather for a location.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	reqURL := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: executing request: %w", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", weather.ErrProviderUnavailable, resp.StatusCode)
	}

	var owmResp currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", weather.ErrMalformedResponse, err)
	}
	if owmResp.Main == nil || owmResp.Wind == nil {
		return nil, fmt.Errorf("%w: missing main or wind block", weather.ErrMalformedResponse)
	}

	obs := c.toObservation(lat, lon, &owmResp)

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("condition", string(obs.Condition)).
		Msg("received weather from OpenWeatherMap")

	return obs, nil
}

// toObservation converts OpenWeatherMap response to domain model.
// The requested coordinates are kept when the response omits coord.
func (c *Client) toObservation(lat, lon float64, resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Lat:         lat,
		Lon:         lon,
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		WindGust:    resp.Wind.Gust,
		FetchedAt:   c.now(),
	}

	if resp.Coord != nil {
		obs.Lat = resp.Coord.Lat
		obs.Lon = resp.Coord.Lon
	}

	if resp.Visibility != nil {
		v := float64(*resp.Visibility)
		obs.Visibility = &v
	}

	if resp.Dt > 0 {
		obs.ObservedAt = time.Unix(resp.Dt, 0)
	} else {
		obs.ObservedAt = obs.FetchedAt
	}

	if len(resp.Weather) > 0 {
		obs.Condition = mapCondition(resp.Weather[0].Main)
		obs.Description = resp.Weather[0].Description
	} else {
		obs.Condition = weather.ConditionUnknown
	}

	return obs
}

// mapCondition maps OpenWeatherMap condition to domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Dust", "Sand", "Ash", "Smoke", "Squall", "Tornado":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

type currentWeatherResponse struct {
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Visibility *int `json:"visibility"`
	Wind       *struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Dt int64 `json:"dt"`
}
