package detection

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultFeedCapacity is the default number of users tracked at once.
const DefaultFeedCapacity = 10000

// Feeds holds one rolling StalkingAnalyzer per user. Once capacity users are
// tracked, the least recently fed one is dropped.
type Feeds struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *StalkingAnalyzer]
}

// NewFeeds creates an empty set of feeds (default capacity 10000).
func NewFeeds(capacity int) (*Feeds, error) {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}

	c, err := lru.New[string, *StalkingAnalyzer](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating feed cache: %w", err)
	}
	return &Feeds{cache: c}, nil
}

// Append adds detections to the user's window, oldest first, and scores it.
func (f *Feeds) Append(userID string, detections []Detection) StalkingAnalysis {
	a := f.analyzer(userID)
	for _, d := range detections {
		a.Add(d)
	}
	return a.Analyze()
}

// Reset discards the user's window and returns how many detections it held.
func (f *Feeds) Reset(userID string) int {
	f.mu.Lock()
	a, ok := f.cache.Peek(userID)
	f.cache.Remove(userID)
	f.mu.Unlock()

	if !ok {
		return 0
	}
	n := a.Len()
	a.Reset()
	return n
}

// Len returns the number of users with a window.
func (f *Feeds) Len() int {
	return f.cache.Len()
}

func (f *Feeds) analyzer(userID string) *StalkingAnalyzer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.cache.Get(userID); ok {
		return a
	}
	a := NewStalkingAnalyzer()
	f.cache.Add(userID, a)
	return a
}
