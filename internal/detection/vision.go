package detection

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Stalking analysis parameters.
const (
	// MaxHistory is the number of most recent detections considered.
	MaxHistory = 30
	// MinHistory is the number of detections needed before any verdict.
	MinHistory = 5
	// StalkingThreshold is the confidence above which a history counts as stalking.
	StalkingThreshold = 0.7

	lurkingThreshold  = 10.0
	followingDistance = 100.0
	matchingThreshold = 0.8
)

// ErrInvalidDetection indicates a bounding box with non-finite or negative values.
var ErrInvalidDetection = errors.New("invalid detection")

// Detection is a person bounding box from one video frame, as [x, y, width, height].
type Detection struct {
	BBox       [4]float64 `json:"bbox"`
	Score      float64    `json:"score,omitempty"`
	DetectedAt time.Time  `json:"detectedAt,omitempty"`
}

// Validate checks that the box values are finite and the size is non-negative.
func (d Detection) Validate() error {
	for i, v := range d.BBox {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bbox[%d] is not finite", ErrInvalidDetection, i)
		}
	}
	if d.BBox[2] < 0 || d.BBox[3] < 0 {
		return fmt.Errorf("%w: bbox width and height must be non-negative", ErrInvalidDetection)
	}
	return nil
}

// StalkingAnalysis is the result of a stalking analysis.
type StalkingAnalysis struct {
	IsStalking      bool    `json:"isStalking"`
	Confidence      float64 `json:"confidence"`
	FollowingScore  float64 `json:"followingScore"`
	SuspiciousScore float64 `json:"suspiciousScore"`
	Samples         int     `json:"samples"`
}

// AnalyzeStalking scores the last MaxHistory detections of history.
// Fewer than MinHistory detections yield no verdict and zero confidence.
func AnalyzeStalking(history []Detection) StalkingAnalysis {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	if len(history) < MinHistory {
		return StalkingAnalysis{Samples: len(history)}
	}

	following := followingScore(history)
	suspicious := suspiciousScore(history)
	confidence := (following + suspicious) / 2

	return StalkingAnalysis{
		IsStalking:      confidence > StalkingThreshold,
		Confidence:      confidence,
		FollowingScore:  following,
		SuspiciousScore: suspicious,
		Samples:         len(history),
	}
}

// followingScore is the mean movement correlation over consecutive pairs.
func followingScore(history []Detection) float64 {
	var total float64
	for i := 1; i < len(history); i++ {
		total += movementCorrelation(history[i-1], history[i])
	}
	return total / float64(len(history)-1)
}

// suspiciousScore accumulates lurking, following-at-distance and matching signals
// per pair, normalized by the number of detections and capped at 1.
func suspiciousScore(history []Detection) float64 {
	var total float64
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		if isLurking(curr) {
			total += 0.3
		}
		if isFollowingAtDistance(prev, curr) {
			total += 0.4
		}
		if movementCorrelation(prev, curr) > matchingThreshold {
			total += 0.3
		}
	}
	return math.Min(total/float64(len(history)), 1)
}

func movementCorrelation(prev, curr Detection) float64 {
	dx := curr.BBox[0] - prev.BBox[0]
	dy := curr.BBox[1] - prev.BBox[1]
	return math.Min(math.Abs(dx)+math.Abs(dy), 1)
}

func isLurking(d Detection) bool {
	return math.Abs(d.BBox[0]) < lurkingThreshold && math.Abs(d.BBox[1]) < lurkingThreshold
}

func isFollowingAtDistance(prev, curr Detection) bool {
	dist := math.Hypot(curr.BBox[0]-prev.BBox[0], curr.BBox[1]-prev.BBox[1])
	return dist > followingDistance && dist < followingDistance*2
}

// StalkingAnalyzer keeps a rolling window of detections for one camera feed.
// It is safe for concurrent use.
type StalkingAnalyzer struct {
	mu      sync.Mutex
	history []Detection
}

// NewStalkingAnalyzer creates an empty analyzer.
func NewStalkingAnalyzer() *StalkingAnalyzer {
	return &StalkingAnalyzer{history: make([]Detection, 0, MaxHistory)}
}

// Add appends a detection, dropping the oldest beyond MaxHistory.
func (a *StalkingAnalyzer) Add(d Detection) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) == MaxHistory {
		copy(a.history, a.history[1:])
		a.history = a.history[:MaxHistory-1]
	}
	a.history = append(a.history, d)
}

// Analyze scores the current window.
func (a *StalkingAnalyzer) Analyze() StalkingAnalysis {
	a.mu.Lock()
	snapshot := make([]Detection, len(a.history))
	copy(snapshot, a.history)
	a.mu.Unlock()

	return AnalyzeStalking(snapshot)
}

// Len returns the number of detections in the window.
func (a *StalkingAnalyzer) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

// Reset clears the window.
func (a *StalkingAnalyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = a.history[:0]
}
