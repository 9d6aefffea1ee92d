package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/safepath/safepath/internal/geo"
)

// sharedFetchTimeout bounds a provider call that outlives the caller who started it.
const sharedFetchTimeout = 30 * time.Second

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for a location.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache weather data (default: 10 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.1).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service provides weather data with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	now             func() time.Time
	group           singleflight.Group

	mu              sync.RWMutex
	cache           map[string]*cachedObservation
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedObservation struct {
	observation *Observation
	fetchedAt   time.Time
	expiresAt   time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.1 // ~11km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		now:             now,
		cache:           make(map[string]*cachedObservation),
		cleanupInterval: 5 * time.Minute,
	}
}

// GetCurrentWeather returns current weather for a location.
// Uses cached data if available and not expired.
func (s *Service) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error) {
	if err := (geo.Point{Lat: lat, Lng: lon}).Validate(); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && s.now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.observation, nil
	}
	s.mu.RUnlock()

	return s.fetchWeather(ctx, lat, lon, cacheKey)
}

// fetchWeather fetches weather from the provider and updates the cache.
// Concurrent misses on one cell share a single provider call, made without
// holding mu.
func (s *Service) fetchWeather(ctx context.Context, lat, lon float64, cacheKey string) (*Observation, error) {
	ch := s.group.DoChan(cacheKey, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.cache[cacheKey]
		s.mu.RUnlock()
		if ok && s.now().Before(cached.expiresAt) {
			return cached.observation, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.refresh(fetchCtx, lat, lon, cacheKey)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Observation), nil
	}
}

// refresh calls the provider and stores the result, falling back to a stale
// entry on failure.
func (s *Service) refresh(ctx context.Context, lat, lon float64, cacheKey string) (*Observation, error) {
	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching weather from provider")

	obs, err := s.provider.GetCurrentWeather(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch weather")

		s.mu.RLock()
		cached, ok := s.cache[cacheKey]
		s.mu.RUnlock()
		if ok && s.now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale weather data due to provider error")
			return cached.observation, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	now := s.now()
	s.mu.Lock()
	s.cache[cacheKey] = &cachedObservation{
		observation: obs,
		fetchedAt:   now,
		expiresAt:   now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()
	s.mu.Unlock()

	if obs.Hazardous() {
		s.logger.Info().
			Float64("lat", lat).
			Float64("lon", lon).
			Str("condition", string(obs.Condition)).
			Msg("hazardous weather observed")
	}

	return obs, nil
}

// cacheKey groups nearby points into grid cells to reduce API calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// cleanupIfNeeded removes entries past the stale window. Caller holds mu.
func (s *Service) cleanupIfNeeded() {
	now := s.now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedObservation)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
