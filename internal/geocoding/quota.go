package geocoding

import (
	"fmt"
	"sync"
	"time"
)

// QuotaCounter counts requests to one provider per local calendar day.
// The count resets on the first Acquire after local midnight. It is not persisted.
type QuotaCounter struct {
	mu       sync.Mutex
	name     string
	limit    int
	count    int
	resetDay time.Time
	now      func() time.Time
}

// NewQuotaCounter creates a counter allowing limit requests per day.
// A non-positive limit disables the guard. now defaults to time.Now.
func NewQuotaCounter(name string, limit int, now func() time.Time) *QuotaCounter {
	if now == nil {
		now = time.Now
	}
	return &QuotaCounter{
		name:     name,
		limit:    limit,
		resetDay: startOfDay(now()),
		now:      now,
	}
}

// Acquire reserves one request. At the limit it fails with ErrQuotaExceeded
// without incrementing.
func (q *QuotaCounter) Acquire() error {
	if q == nil || q.limit <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()

	if q.count >= q.limit {
		return &Error{
			Provider: q.name,
			Code:     "QUOTA_EXCEEDED",
			Message:  fmt.Sprintf("daily limit of %d requests reached", q.limit),
			Err:      ErrQuotaExceeded,
		}
	}

	q.count++
	return nil
}

// Used returns the number of requests counted today.
func (q *QuotaCounter) Used() int {
	if q == nil {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.count
}

// Limit returns the daily limit; 0 means unguarded.
func (q *QuotaCounter) Limit() int {
	if q == nil || q.limit < 0 {
		return 0
	}
	return q.limit
}

// rollover resets the count when the local day has advanced. Caller holds mu.
func (q *QuotaCounter) rollover() {
	today := startOfDay(q.now())
	if today.After(q.resetDay) {
		q.count = 0
		q.resetDay = today
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
