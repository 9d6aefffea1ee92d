// Package response writes JSON and problem responses for the SafePath API.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/api/models"
)

func setRequestID(w http.ResponseWriter, r *http.Request) string {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	return requestID
}

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 with an optional Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Error writes problem with the request path as its instance.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(middleware.GetRequestID(r.Context()), detail))
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

// Conflict writes a 409 for a request the resource's current state rejects.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(middleware.GetRequestID(r.Context()), detail))
}

// QuotaExceeded writes a 429 for an exhausted provider quota.
// retryAfter is in seconds; zero omits the header.
func QuotaExceeded(w http.ResponseWriter, r *http.Request, detail string, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	Error(w, r, models.NewQuotaExceeded(middleware.GetRequestID(r.Context()), detail))
}

func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(middleware.GetRequestID(r.Context()), detail))
}

func BadGateway(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewBadGateway(middleware.GetRequestID(r.Context()), detail))
}

func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(middleware.GetRequestID(r.Context()), detail))
}
