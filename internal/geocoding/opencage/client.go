// Package opencage provides a geocoder backed by the OpenCage Geocoding API.
package opencage

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
	ProviderName = "opencage"

	// DefaultBaseURL is the OpenCage API base URL.
	DefaultBaseURL = "https://api.opencagedata.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultCountryCode restricts results to India.
	DefaultCountryCode = "in"

	// DefaultDailyLimit stays just below the free tier's 2500 requests per day.
	DefaultDailyLimit = 2400
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenCage geocoder.
type ClientConfig struct {
	// APIKey is the OpenCage API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// CountryCode restricts results (optional, defaults to "in").
	CountryCode string

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

// Client is an OpenCage API client.
type Client struct {
	apiKey      string
	baseURL     string
	countryCode string
	httpClient  HTTPDoer
	logger      zerolog.Logger
}

// NewClient creates a new OpenCage geocoder.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = DefaultCountryCode
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
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type geocodeResponse struct {
	Results []struct {
		Confidence *int   `json:"confidence"`
		Formatted  string `json:"formatted"`
		Geometry   *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
	Status *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	TotalResults int `json:"total_results"`
}

// Geocode resolves address using the single best match.
func (c *Client) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("key", c.apiKey)
	params.Set("countrycode", c.countryCode)
	params.Set("limit", "1")
	params.Set("no_annotations", "1")

	reqURL := fmt.Sprintf("%s/geocode/v1/json?%s", c.baseURL, params.Encode())
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
		return nil, handleErrorResponse(resp.StatusCode)
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

	if len(gr.Results) == 0 {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "NO_RESULTS",
			Message:  "no results for address",
			Err:      geocoding.ErrNoResults,
		}
	}

	first := gr.Results[0]
	if first.Geometry == nil || first.Geometry.Lat == nil || first.Geometry.Lng == nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "result has no geometry",
			Err:      geocoding.ErrMalformedResponse,
		}
	}

	point := geo.Point{Lat: *first.Geometry.Lat, Lng: *first.Geometry.Lng}
	if err := point.Validate(); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "result geometry out of range",
			Err:      fmt.Errorf("%w: %w", geocoding.ErrMalformedResponse, err),
		}
	}

	result := &geocoding.Result{
		Point:      point,
		Confidence: first.Confidence,
		Provider:   ProviderName,
	}
	if first.Formatted != "" {
		formatted := first.Formatted
		result.FormattedAddress = &formatted
	}

	c.logger.Debug().Msg("geocoded address with OpenCage")
	return result, nil
}

// handleErrorResponse maps OpenCage HTTP statuses to domain errors.
func handleErrorResponse(statusCode int) error {
	switch {
	case statusCode == http.StatusPaymentRequired || statusCode == http.StatusTooManyRequests:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "QUOTA_EXCEEDED",
			Message:  "upstream quota exceeded",
			Err:      geocoding.ErrQuotaExceeded,
		}
	case statusCode == http.StatusBadRequest:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  "invalid geocoding query",
			Err:      geocoding.ErrInvalidAddress,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      geocoding.ErrProviderUnavailable,
		}
	default:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("geocoding provider returned status %d", statusCode),
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
}

var _ geocoding.Geocoder = (*Client)(nil)
