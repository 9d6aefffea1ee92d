package geocoding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/safepath/safepath/internal/telemetry"
)

const metricsOperation = "geocode"

// sharedLookupTimeout bounds a lookup that outlives the caller who started it.
const sharedLookupTimeout = 30 * time.Second

// Provider pairs a geocoder with its daily quota. A nil Quota is unguarded.
type Provider struct {
	Geocoder Geocoder
	Quota    *QuotaCounter
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Providers are tried in order until one succeeds.
	Providers []Provider

	// Cache stores successful results. If nil, an LRU of DefaultCacheSize is used.
	Cache Cache

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics
}

// QuotaStatus reports a provider's quota usage for today.
type QuotaStatus struct {
	Provider string
	Used     int
	Limit    int // 0 means unguarded
}

// Service resolves addresses with cache, quota and provider fallback.
type Service struct {
	providers []Provider
	cache     Cache
	logger    zerolog.Logger
	metrics   *telemetry.ProviderMetrics
	group     singleflight.Group
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) (*Service, error) {
	cache := cfg.Cache
	if cache == nil {
		lruCache, err := NewLRUCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		cache = lruCache
	}

	return &Service{
		providers: cfg.Providers,
		cache:     cache,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Geocode resolves address. Results are cached by the exact input string, and
// concurrent lookups of the same address share one upstream call.
func (s *Service) Geocode(ctx context.Context, address string) (*Result, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return nil, ErrInvalidAddress
	}

	if r, ok := s.cache.Get(ctx, address); ok {
		s.logger.Debug().Str("provider", r.Provider).Msg("geocode cache hit")
		s.metrics.RecordCacheHit(ctx, metricsOperation)
		return r, nil
	}
	s.metrics.RecordCacheMiss(ctx, metricsOperation)

	ch := s.group.DoChan(address, func() (interface{}, error) {
		// Another caller may have filled the cache while this one waited.
		if r, ok := s.cache.Get(ctx, address); ok {
			return r, nil
		}
		// Callers joining this lookup must not fail because its starter left.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.resolve(lookupCtx, address, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		r := *res.Val.(*Result)
		return &r, nil
	}
}

// resolve tries each provider in order, checking its quota before the request.
func (s *Service) resolve(ctx context.Context, address, query string) (*Result, error) {
	var failures []error

	for _, p := range s.providers {
		name := p.Geocoder.Name()

		if err := p.Quota.Acquire(); err != nil {
			s.logger.Warn().Err(err).Str("provider", name).Msg("geocoding quota exhausted, skipping provider")
			s.metrics.RecordQuotaRejected(ctx, name)
			failures = append(failures, err)
			continue
		}

		start := time.Now()
		result, err := p.Geocoder.Geocode(ctx, query)
		s.metrics.RecordRequest(ctx, name, metricsOperation, time.Since(start), err)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Warn().Err(err).Str("provider", name).Msg("geocoding provider failed, falling back")
			failures = append(failures, err)
			continue
		}

		if result.Provider == "" {
			result.Provider = name
		}
		s.cache.Add(ctx, address, result)

		s.logger.Debug().
			Str("provider", name).
			Float64("lat", result.Point.Lat).
			Float64("lng", result.Point.Lng).
			Msg("address geocoded")
		return result, nil
	}

	chainErr := &ChainError{Failures: failures}
	s.logger.Error().Err(chainErr).Msg("all geocoding providers failed")
	return nil, chainErr
}

// Quotas returns per-provider quota usage in provider order.
func (s *Service) Quotas() []QuotaStatus {
	out := make([]QuotaStatus, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, QuotaStatus{
			Provider: p.Geocoder.Name(),
			Used:     p.Quota.Used(),
			Limit:    p.Quota.Limit(),
		})
	}
	return out
}
