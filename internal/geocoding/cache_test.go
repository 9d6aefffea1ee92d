package geocoding_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/geocoding"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache, err := geocoding.NewLRUCache(2)
	require.NoError(t, err)

	cache.Add(ctx, "a", &geocoding.Result{Point: geo.Point{Lat: 1, Lng: 1}})
	cache.Add(ctx, "b", &geocoding.Result{Point: geo.Point{Lat: 2, Lng: 2}})

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.Get(ctx, "a")
	require.True(t, ok)

	cache.Add(ctx, "c", &geocoding.Result{Point: geo.Point{Lat: 3, Lng: 3}})

	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = cache.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestLRUCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache, err := geocoding.NewLRUCache(0)
	require.NoError(t, err)

	cache.Add(ctx, "x", &geocoding.Result{Point: geo.Point{Lat: 1, Lng: 1}, Provider: "google"})

	r, ok := cache.Get(ctx, "x")
	require.True(t, ok)
	r.Provider = "mutated"

	again, _ := cache.Get(ctx, "x")
	assert.Equal(t, "google", again.Provider)
}

// Requires a running Valkey; set VALKEY_ADDR to run.
func TestValkeyCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set")
	}

	cache, err := geocoding.NewValkeyCache(addr, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Ping(ctx))

	address := "test-" + time.Now().Format(time.RFC3339Nano)
	_, ok := cache.Get(ctx, address)
	assert.False(t, ok)

	conf := 9
	cache.Add(ctx, address, &geocoding.Result{
		Point:      geo.Point{Lat: 28.6, Lng: 77.2},
		Confidence: &conf,
		Provider:   "opencage",
	})

	r, ok := cache.Get(ctx, address)
	require.True(t, ok)
	assert.Equal(t, geo.Point{Lat: 28.6, Lng: 77.2}, r.Point)
	require.NotNil(t, r.Confidence)
	assert.Equal(t, 9, *r.Confidence)
}
