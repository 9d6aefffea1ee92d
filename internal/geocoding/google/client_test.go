package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/geocoding/google"
)

func newClient(server *httptest.Server) *google.Client {
	return google.NewClient(google.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Geocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "India Gate, New Delhi", r.URL.Query().Get("address"))
		assert.Equal(t, "in", r.URL.Query().Get("region"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Rajpath, India Gate, New Delhi, Delhi 110001, India",
				"geometry": {"location": {"lat": 28.6129, "lng": 77.2295}}
			}]
		}`))
	}))
	defer server.Close()

	r, err := newClient(server).Geocode(context.Background(), "India Gate, New Delhi")
	require.NoError(t, err)

	assert.Equal(t, 28.6129, r.Point.Lat)
	assert.Equal(t, 77.2295, r.Point.Lng)
	assert.Equal(t, google.ProviderName, r.Provider)
	require.NotNil(t, r.FormattedAddress)
	assert.Contains(t, *r.FormattedAddress, "New Delhi")
	assert.Nil(t, r.Confidence)
}

func TestClient_Geocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`, geocoding.ErrNoResults},
		{"over query limit", http.StatusOK, `{"status":"OVER_QUERY_LIMIT","results":[]}`, geocoding.ErrQuotaExceeded},
		{"request denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`, geocoding.ErrProviderUnavailable},
		{"ok without results", http.StatusOK, `{"status":"OK","results":[]}`, geocoding.ErrNoResults},
		{"missing location", http.StatusOK, `{"status":"OK","results":[{"geometry":{}}]}`, geocoding.ErrMalformedResponse},
		{"not json", http.StatusOK, `not json`, geocoding.ErrMalformedResponse},
		{"http error", http.StatusBadGateway, ``, geocoding.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newClient(server).Geocode(context.Background(), "somewhere")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var gerr *geocoding.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, google.ProviderName, gerr.Provider)
		})
	}
}
