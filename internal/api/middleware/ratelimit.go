package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/safepath/safepath/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// Rate limit tiers.
var (
	// GeocodeRateLimit guards endpoints that spend paid geocoding quota (20 req/min).
	GeocodeRateLimit = RateLimitConfig{
		RequestLimit: 20,
		WindowLength: time.Minute,
	}

	// RoutePlanRateLimit guards route planning, which fans out to the directions
	// provider and one ratings query per waypoint (30 req/min).
	RoutePlanRateLimit = RateLimitConfig{
		RequestLimit: 30,
		WindowLength: time.Minute,
	}

	// ReportRateLimit guards community rating submission (10 req/min).
	ReportRateLimit = RateLimitConfig{
		RequestLimit: 10,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies to cheap read endpoints (100 req/min).
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 100,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP creates a rate limiter keyed on the client IP.
// Uses X-Forwarded-For when present (extracted by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceededHandler(cfg.WindowLength)),
	)
}

// RateLimitByUser creates a rate limiter keyed on the authenticated user ID,
// falling back to the client IP for anonymous requests.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(limitExceededHandler(cfg.WindowLength)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitExceededHandler writes an RFC7807 problem with a Retry-After of one window.
func limitExceededHandler(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(window.Seconds())))

	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
