package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
)

// serve runs fn behind the RequestID middleware so handlers see a request ID.
func serve(method, path string, fn http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.RequestID(fn).ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestJSON_IncludesRequestID(t *testing.T) {
	rec := serve(http.MethodGet, "/v1/weather", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"condition": "CLEAR"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("X-Request-Id"), "req_")
	assert.JSONEq(t, `{"condition":"CLEAR"}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
	assert.Empty(t, rec.Body.String())
}

func TestCreated_SetsLocation(t *testing.T) {
	rec := serve(http.MethodPost, "/v1/ratings", func(w http.ResponseWriter, r *http.Request) {
		response.Created(w, r, "/v1/ratings/rat_1", map[string]string{"id": "rat_1"})
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/ratings/rat_1", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestProblemWriters(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, *http.Request)
		status   int
		wantType string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "lat", Message: "is required"}})
		}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			response.Unauthorized(w, r, "invalid token")
		}, http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "no route")
		}, http.StatusNotFound, models.ProblemTypeNotFound},
		{"quota", func(w http.ResponseWriter, r *http.Request) {
			response.QuotaExceeded(w, r, "quota", 0)
		}, http.StatusTooManyRequests, models.ProblemTypeQuotaExceeded},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "boom")
		}, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"bad gateway", func(w http.ResponseWriter, r *http.Request) {
			response.BadGateway(w, r, "garbled")
		}, http.StatusBadGateway, models.ProblemTypeBadGateway},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "down")
		}, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Conflict(w, r, "already closed")
		}, http.StatusConflict, models.ProblemTypeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodGet, "/v1/thing", tt.write)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			p := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "/v1/thing", p.Instance)
			assert.NotEmpty(t, p.TraceID)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), p.TraceID)
		})
	}
}

func TestQuotaExceeded_RetryAfter(t *testing.T) {
	rec := serve(http.MethodGet, "/v1/geocode", func(w http.ResponseWriter, r *http.Request) {
		response.QuotaExceeded(w, r, "daily geocoding quota exhausted", 3600)
	})

	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Equal(t, "daily geocoding quota exhausted", decodeProblem(t, rec).Detail)
}

func TestNoContent(t *testing.T) {
	rec := serve(http.MethodDelete, "/v1/contacts/con_1", func(w http.ResponseWriter, r *http.Request) {
		response.NoContent(w, r)
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
