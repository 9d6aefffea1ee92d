package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.safepath.app/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation       = problemBase + "validation-error"
	ProblemTypeUnauthorized     = problemBase + "unauthorized"
	ProblemTypeNotFound         = problemBase + "not-found"
	ProblemTypeMethodNotAllowed = problemBase + "method-not-allowed"
	ProblemTypeConflict         = problemBase + "conflict"
	ProblemTypeTooManyRequests  = problemBase + "too-many-requests"
	ProblemTypeQuotaExceeded    = problemBase + "quota-exceeded"
	ProblemTypeInternal         = problemBase + "internal-error"
	ProblemTypeBadGateway       = problemBase + "bad-gateway"
	ProblemTypeUnavailable      = problemBase + "service-unavailable"
	ProblemTypeTLSRequired      = problemBase + "tls-required"
	ProblemTypeUnsupportedMedia = problemBase + "unsupported-media-type"
)

// NewProblem creates a Problem without detail.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets the occurrence-specific detail.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write serializes the problem with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

func NewUnauthorized(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID).WithDetail(detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).WithDetail(detail)
}

func NewConflict(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeConflict, "Conflict", http.StatusConflict, traceID).WithDetail(detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

// NewQuotaExceeded creates a 429 problem for an exhausted upstream quota.
// Unlike NewTooManyRequests the limit belongs to the provider, not the caller.
func NewQuotaExceeded(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeQuotaExceeded, "Provider quota exceeded", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).WithDetail(detail)
}

// NewBadGateway creates a 502 problem for an upstream response that could not be understood.
func NewBadGateway(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeBadGateway, "Bad gateway", http.StatusBadGateway, traceID).WithDetail(detail)
}

func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}
