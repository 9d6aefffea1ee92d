// Package google provides a geocoder backed by the Google Maps Geocoding API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "google"

	// DefaultBaseURL is the Google Maps API base URL.
	DefaultBaseURL = "https://maps.googleapis.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRegion biases results toward India.
	DefaultRegion = "in"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Google geocoder.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Region is the ccTLD region bias (optional, defaults to "in").
	Region string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Geocoding API client.
type Client struct {
	apiKey     string
	baseURL    string
	region     string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Google geocoder.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig("geocoding-" + ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = &cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		region:     region,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         *struct {
		Location *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Geocode resolves address using the first result.
func (c *Client) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("region", c.region)
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/maps/api/geocode/json?%s", c.baseURL, params.Encode())
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
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach geocoding provider",
			Err:      fmt.Errorf("%w: %w", geocoding.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("geocoding provider returned status %d", resp.StatusCode),
			Err:      geocoding.ErrProviderUnavailable,
		}
	}

	var gr geocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "could not decode geocoding response",
			Err:      fmt.Errorf("%w: %w", geocoding.ErrMalformedResponse, err),
		}
	}

	if gr.Status != "OK" {
		return nil, mapStatus(gr.Status, gr.ErrorMessage)
	}
	if len(gr.Results) == 0 {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "ZERO_RESULTS",
			Message:  "no results for address",
			Err:      geocoding.ErrNoResults,
		}
	}

	first := gr.Results[0]
	if first.Geometry == nil || first.Geometry.Location == nil ||
		first.Geometry.Location.Lat == nil || first.Geometry.Location.Lng == nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "result has no geometry.location",
			Err:      geocoding.ErrMalformedResponse,
		}
	}

	point := geo.Point{Lat: *first.Geometry.Location.Lat, Lng: *first.Geometry.Location.Lng}
	if err := point.Validate(); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "result location out of range",
			Err:      fmt.Errorf("%w: %w", geocoding.ErrMalformedResponse, err),
		}
	}

	result := &geocoding.Result{Point: point, Provider: ProviderName}
	if first.FormattedAddress != "" {
		formatted := first.FormattedAddress
		result.FormattedAddress = &formatted
	}

	c.logger.Debug().Msg("geocoded address with Google")
	return result, nil
}

func mapStatus(status, message string) error {
	if message == "" {
		message = "geocoding provider returned status " + status
	}

	var target error
	switch status {
	case "ZERO_RESULTS":
		target = geocoding.ErrNoResults
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		target = geocoding.ErrQuotaExceeded
	case "REQUEST_DENIED", "UNKNOWN_ERROR":
		target = geocoding.ErrProviderUnavailable
	case "INVALID_REQUEST":
		target = geocoding.ErrInvalidAddress
	default:
		target = geocoding.ErrMalformedResponse
	}

	return &geocoding.Error{
		Provider: ProviderName,
		Code:     status,
		Message:  message,
		Err:      target,
	}
}

var _ geocoding.Geocoder = (*Client)(nil)
