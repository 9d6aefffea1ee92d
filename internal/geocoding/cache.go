package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/valkey-io/valkey-go"
)

// DefaultCacheSize is the default LRU capacity.
const DefaultCacheSize = 1024

// Cache stores geocoding results keyed by the exact input address.
type Cache interface {
	Get(ctx context.Context, address string) (*Result, bool)
	Add(ctx context.Context, address string, result *Result)
}

// LRUCache is a fixed-capacity in-process cache evicting the least recently used entry.
type LRUCache struct {
	cache *lru.Cache[string, Result]
}

// NewLRUCache creates an LRU cache holding up to size entries (default 1024).
func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	c, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRUCache{cache: c}, nil
}

// Get returns a copy of the cached result.
func (c *LRUCache) Get(_ context.Context, address string) (*Result, bool) {
	r, ok := c.cache.Get(address)
	if !ok {
		return nil, false
	}
	return &r, true
}

// Add stores a copy of result.
func (c *LRUCache) Add(_ context.Context, address string, result *Result) {
	if result == nil {
		return
	}
	c.cache.Add(address, *result)
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// DefaultValkeyTTL is how long shared results live in Valkey.
const DefaultValkeyTTL = 7 * 24 * time.Hour

const valkeyKeyPrefix = "geocode:"

// ValkeyCache stores JSON-encoded results in Valkey so replicas share hits.
// Valkey errors are logged and treated as misses.
type ValkeyCache struct {
	client valkey.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewValkeyCache connects to the Valkey server at addr.
func NewValkeyCache(addr string, ttl time.Duration, logger zerolog.Logger) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultValkeyTTL
	}

	return &ValkeyCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get retrieves a cached result.
func (c *ValkeyCache) Get(ctx context.Context, address string) (*Result, bool) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(valkeyKeyPrefix+address).Build()).AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			c.logger.Warn().Err(err).Msg("valkey geocode cache read failed")
		}
		return nil, false
	}

	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		c.logger.Warn().Err(err).Msg("discarding undecodable geocode cache entry")
		return nil, false
	}
	return &r, true
}

// Add stores a result with the configured TTL.
func (c *ValkeyCache) Add(ctx context.Context, address string, result *Result) {
	if result == nil {
		return
	}

	b, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encoding geocode cache entry")
		return
	}

	cmd := c.client.B().Set().Key(valkeyKeyPrefix + address).Value(string(b)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn().Err(err).Msg("valkey geocode cache write failed")
	}
}

// Ping checks connectivity for the readiness check.
func (c *ValkeyCache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}

var (
	_ Cache = (*LRUCache)(nil)
	_ Cache = (*ValkeyCache)(nil)
)
