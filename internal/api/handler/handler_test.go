package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/api/models"
)

// stubValidator accepts every bearer token as the given user.
type stubValidator struct{ userID string }

func (s stubValidator) ValidateAccessToken(string) (string, error) { return s.userID, nil }

// do runs h behind the RequestID middleware, optionally authenticated.
func do(h http.HandlerFunc, method, target string, body io.Reader, userID string) *httptest.ResponseRecorder {
	var wrapped http.Handler = h
	if userID != "" {
		wrapped = middleware.Auth(stubValidator{userID: userID})(h)
	}
	wrapped = middleware.RequestID(wrapped)

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	return decode[models.Problem](t, rec)
}
