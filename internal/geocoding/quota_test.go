package geocoding_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geocoding"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestQuotaCounter_LimitMinusOneSucceeds(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)}
	q := geocoding.NewQuotaCounter("opencage", 3, clock.Now)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Acquire(), "request %d", i+1)
	}
	assert.Equal(t, 3, q.Used())
}

func TestQuotaCounter_AtLimitFailsWithoutIncrement(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)}
	q := geocoding.NewQuotaCounter("opencage", 2, clock.Now)

	require.NoError(t, q.Acquire())
	require.NoError(t, q.Acquire())

	err := q.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, geocoding.ErrQuotaExceeded))

	var gerr *geocoding.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "opencage", gerr.Provider)

	assert.Equal(t, 2, q.Used(), "failed acquire must not increment")
}

func TestQuotaCounter_ResetsAtLocalMidnight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 23, 59, 0, 0, time.Local)}
	q := geocoding.NewQuotaCounter("opencage", 1, clock.Now)

	require.NoError(t, q.Acquire())
	assert.ErrorIs(t, q.Acquire(), geocoding.ErrQuotaExceeded)

	clock.now = time.Date(2026, 5, 2, 0, 0, 1, 0, time.Local)
	require.NoError(t, q.Acquire(), "new day resets the count")
	assert.Equal(t, 1, q.Used())

	// Later the same day the count is not reset again.
	clock.now = time.Date(2026, 5, 2, 18, 0, 0, 0, time.Local)
	assert.ErrorIs(t, q.Acquire(), geocoding.ErrQuotaExceeded)
}

func TestQuotaCounter_Unguarded(t *testing.T) {
	q := geocoding.NewQuotaCounter("google", 0, nil)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Acquire())
	}
	assert.Equal(t, 0, q.Limit())

	var nilQuota *geocoding.QuotaCounter
	assert.NoError(t, nilQuota.Acquire())
	assert.Equal(t, 0, nilQuota.Used())
}
