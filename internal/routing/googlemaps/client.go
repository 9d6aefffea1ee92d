// Package googlemaps provides a client for the Google Maps Directions API.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/provider/resilience"
	"github.com/safepath/safepath/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "google-directions"

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

// ClientConfig holds configuration for the Directions client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Google Maps API).
	BaseURL string

	// Region is the ccTLD region bias (optional, defaults to "in").
	Region string

	// Mode is the travel mode: driving, walking, bicycling or transit (optional).
	// When empty no mode is sent and the provider's default (driving) applies.
	Mode string

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

// Client is a Google Maps Directions API client.
type Client struct {
	apiKey     string
	baseURL    string
	region     string
	mode       string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Directions client.
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
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = &cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		region:     region,
		mode:       cfg.Mode,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetDirections retrieves route alternatives between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	params := url.Values{}
	params.Set("origin", formatPoint(req.Origin))
	params.Set("destination", formatPoint(req.Destination))
	params.Set("alternatives", fmt.Sprintf("%t", req.Alternatives))
	if c.mode != "" {
		params.Set("mode", c.mode)
	}
	params.Set("region", c.region)
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/maps/api/directions/json?%s", c.baseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lng", req.Origin.Lng).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lng", req.Destination.Lng).
		Str("mode", c.mode).
		Msg("requesting directions from Google")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      fmt.Errorf("%w: %w", routing.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleHTTPError(resp.StatusCode)
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "could not decode directions response",
			Err:      fmt.Errorf("%w: %w", routing.ErrMalformedResponse, err),
		}
	}

	if dr.Status != statusOK {
		return nil, c.handleStatus(dr.Status, dr.ErrorMessage)
	}

	result, err := toDirectionsResponse(&dr)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "directions response failed validation",
			Err:      err,
		}
	}

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received directions from Google")

	return result, nil
}

// handleHTTPError maps non-200 HTTP statuses to domain errors.
func (c *Client) handleHTTPError(statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// handleStatus maps Directions API status codes to domain errors.
func (c *Client) handleStatus(status, message string) error {
	if message == "" {
		message = "routing provider returned status " + status
	}

	switch status {
	case statusZeroResults, statusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	case statusOverQueryLimit, statusOverDailyLimit:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  message,
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusRequestDenied, statusUnknownError:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrProviderUnavailable,
		}
	case statusInvalidRequest:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "UNKNOWN_STATUS",
			Message:  "unexpected directions status " + status,
			Err:      routing.ErrMalformedResponse,
		}
	}
}

// toDirectionsResponse validates the payload and converts it to the domain model.
func toDirectionsResponse(dr *directionsResponse) (*routing.DirectionsResponse, error) {
	routes := make([]routing.Route, 0, len(dr.Routes))

	for i := range dr.Routes {
		r := &dr.Routes[i]
		if len(r.Legs) == 0 {
			return nil, fmt.Errorf("%w: route %d has no legs", routing.ErrMalformedResponse, i)
		}

		out := routing.Route{Summary: r.Summary}
		if r.OverviewPolyline != nil {
			out.OverviewPolyline = r.OverviewPolyline.Points
		}
		if r.Bounds != nil {
			if box, ok := toBox(r.Bounds); ok {
				out.Bounds = &box
			}
		}

		for j := range r.Legs {
			l := &r.Legs[j]
			outLeg := routing.Leg{
				StartAddress: l.StartAddress,
				EndAddress:   l.EndAddress,
				Steps:        make([]routing.Step, 0, len(l.Steps)),
			}
			if l.Distance != nil {
				out.DistanceMeters += l.Distance.Value
			}
			if l.Duration != nil {
				out.DurationSeconds += l.Duration.Value
			}

			for k := range l.Steps {
				s := &l.Steps[k]
				start, ok := toPoint(s.StartLocation)
				if !ok {
					return nil, fmt.Errorf("%w: route %d leg %d step %d has no valid start_location",
						routing.ErrMalformedResponse, i, j, k)
				}

				outStep := routing.Step{
					StartLocation: start,
					Instruction:   stripHTML(s.HTMLInstructions),
				}
				if end, ok := toPoint(s.EndLocation); ok {
					outStep.EndLocation = end
				}
				if s.Distance != nil {
					outStep.DistanceMeters = s.Distance.Value
				}
				if s.Duration != nil {
					outStep.DurationSeconds = s.Duration.Value
				}
				outLeg.Steps = append(outLeg.Steps, outStep)
			}

			out.Legs = append(out.Legs, outLeg)
		}

		out.DistanceText, out.DurationText = summaryText(r.Legs, out.DistanceMeters, out.DurationSeconds)
		routes = append(routes, out)
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}

// summaryText uses the provider's text for single-leg routes and formats totals otherwise.
func summaryText(legs []leg, meters, seconds int) (distance, duration string) {
	if len(legs) == 1 && legs[0].Distance != nil && legs[0].Duration != nil {
		return legs[0].Distance.Text, legs[0].Duration.Text
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000), fmt.Sprintf("%d mins", (seconds+59)/60)
}

func toPoint(ll *latLng) (geo.Point, bool) {
	if ll == nil || ll.Lat == nil || ll.Lng == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *ll.Lat, Lng: *ll.Lng}
	if p.Validate() != nil {
		return geo.Point{}, false
	}
	return p, true
}

func toBox(b *bounds) (geo.Box, bool) {
	ne, ok := toPoint(b.Northeast)
	if !ok {
		return geo.Box{}, false
	}
	sw, ok := toPoint(b.Southwest)
	if !ok {
		return geo.Box{}, false
	}
	return geo.Box{MinLat: sw.Lat, MinLng: sw.Lng, MaxLat: ne.Lat, MaxLng: ne.Lng}, true
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return strings.Join(strings.Fields(htmlTag.ReplaceAllString(s, " ")), " ")
}

func formatPoint(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
