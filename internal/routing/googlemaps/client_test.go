package googlemaps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/routing"
)

var (
	testOrigin      = geo.Point{Lat: 28.6139, Lng: 77.2090}
	testDestination = geo.Point{Lat: 28.6129, Lng: 77.2295}
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_GetDirections_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/directions_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/maps/api/directions/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("key") != "mock123" {
			t.Errorf("expected key 'mock123', got '%s'", q.Get("key"))
		}
		if q.Get("alternatives") != "true" {
			t.Errorf("expected alternatives=true, got '%s'", q.Get("alternatives"))
		}
		if q.Get("region") != "in" {
			t.Errorf("expected region 'in', got '%s'", q.Get("region"))
		}
		if q.Has("mode") {
			t.Errorf("expected no mode parameter by default, got '%s'", q.Get("mode"))
		}
		if q.Get("origin") != "28.613900,77.209000" {
			t.Errorf("unexpected origin '%s'", q.Get("origin"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	resp, err := newTestClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:       testOrigin,
		Destination:  testDestination,
		Alternatives: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
	if len(resp.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(resp.Routes))
	}

	route := resp.Routes[0]
	if route.Summary != "Rajpath" {
		t.Errorf("expected summary Rajpath, got %q", route.Summary)
	}
	if route.DistanceMeters != 2412 || route.DistanceText != "2.4 km" {
		t.Errorf("unexpected distance %d / %q", route.DistanceMeters, route.DistanceText)
	}
	if route.DurationSeconds != 1860 || route.DurationText != "31 mins" {
		t.Errorf("unexpected duration %d / %q", route.DurationSeconds, route.DurationText)
	}
	if route.OverviewPolyline == "" {
		t.Error("expected non-empty overview polyline")
	}
	if route.Bounds == nil {
		t.Fatal("expected bounds to be set")
	}
	if route.Bounds.MinLat != 28.6000 || route.Bounds.MaxLng != 77.2295 {
		t.Errorf("unexpected bounds %+v", *route.Bounds)
	}
	if got := route.Legs[0].Steps[1].Instruction; got != "Turn left onto Rajpath" {
		t.Errorf("expected HTML stripped instruction, got %q", got)
	}

	waypoints := route.Waypoints()
	if len(waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(waypoints))
	}
	if waypoints[1] != (geo.Point{Lat: 28.6100, Lng: 77.2150}) {
		t.Errorf("unexpected second waypoint %v", waypoints[1])
	}

	if resp.Routes[1].Bounds != nil {
		t.Error("expected nil bounds when the provider omits them")
	}
}

func TestClient_GetDirections_ExplicitMode(t *testing.T) {
	var gotMode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMode = r.URL.Query().Get("mode")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ZERO_RESULTS","routes":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Mode:       "walking",
		Logger:     zerolog.Nop(),
	})
	_, _ = client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      testOrigin,
		Destination: testDestination,
	})

	if gotMode != "walking" {
		t.Errorf("expected mode=walking, got '%s'", gotMode)
	}
}

func TestClient_GetDirections_StatusMapping(t *testing.T) {
	tests := []struct {
		status  string
		wantErr error
	}{
		{"ZERO_RESULTS", routing.ErrNoRouteFound},
		{"NOT_FOUND", routing.ErrNoRouteFound},
		{"OVER_QUERY_LIMIT", routing.ErrRateLimitExceeded},
		{"REQUEST_DENIED", routing.ErrProviderUnavailable},
		{"INVALID_REQUEST", routing.ErrInvalidCoordinates},
		{"SOMETHING_NEW", routing.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"status":"` + tt.status + `","routes":[]}`))
			}))
			defer server.Close()

			_, err := newTestClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
				Origin:      testOrigin,
				Destination: testDestination,
			})

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if routingErr.Provider != ProviderName {
				t.Errorf("expected provider %s, got %s", ProviderName, routingErr.Provider)
			}
		})
	}
}

func TestClient_GetDirections_HTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
		retryable  bool
	}{
		{"rate limited", http.StatusTooManyRequests, routing.ErrRateLimitExceeded, true},
		{"forbidden", http.StatusForbidden, routing.ErrProviderUnavailable, true},
		{"server error", http.StatusInternalServerError, routing.ErrProviderUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			_, err := newTestClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
				Origin:      testOrigin,
				Destination: testDestination,
			})

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if routingErr.IsRetryable() != tt.retryable {
				t.Errorf("expected retryable=%v", tt.retryable)
			}
		})
	}
}

func TestClient_GetDirections_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"route without legs", `{"status":"OK","routes":[{"summary":"x","legs":[]}]}`},
		{"step without start location", `{"status":"OK","routes":[{"legs":[{"steps":[{"end_location":{"lat":1,"lng":1}}]}]}]}`},
		{"step with partial start location", `{"status":"OK","routes":[{"legs":[{"steps":[{"start_location":{"lat":1}}]}]}]}`},
		{"step with out of range start location", `{"status":"OK","routes":[{"legs":[{"steps":[{"start_location":{"lat":123,"lng":1}}]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
				Origin:      testOrigin,
				Destination: testDestination,
			})
			if !errors.Is(err, routing.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestClient_GetDirections_InvalidCoordinates(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "mock123", Logger: zerolog.Nop()})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Point{Lat: 100, Lng: 0},
		Destination: testDestination,
	})

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if routingErr.Code != "INVALID_ORIGIN" {
		t.Errorf("expected INVALID_ORIGIN, got %s", routingErr.Code)
	}
}

func TestClient_GetDirections_MultiLegTotals(t *testing.T) {
	body := `{"status":"OK","routes":[{"legs":[
		{"distance":{"text":"1 km","value":1000},"duration":{"text":"1 min","value":60},
		 "steps":[{"start_location":{"lat":1,"lng":1}}]},
		{"distance":{"text":"0.5 km","value":500},"duration":{"text":"1 min","value":61},
		 "steps":[{"start_location":{"lat":2,"lng":2}}]}
	]}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	resp, err := newTestClient(server).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      testOrigin,
		Destination: testDestination,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	route := resp.Routes[0]
	if route.DistanceMeters != 1500 || route.DistanceText != "1.5 km" {
		t.Errorf("unexpected distance %d / %q", route.DistanceMeters, route.DistanceText)
	}
	if route.DurationSeconds != 121 || route.DurationText != "3 mins" {
		t.Errorf("unexpected duration %d / %q", route.DurationSeconds, route.DurationText)
	}
	if len(route.Waypoints()) != 2 {
		t.Errorf("expected 2 waypoints, got %d", len(route.Waypoints()))
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "mock123"})
	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}
