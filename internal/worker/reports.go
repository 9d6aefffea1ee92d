// Package worker consumes community safety reports from Pub/Sub and stores
// them as ratings.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/safety"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReportStore stores validated community reports.
// safety.Service is the production implementation.
type ReportStore interface {
	Submit(ctx context.Context, userID string, input *safety.SubmitInput) (*safety.Rating, error)
}

// ReportMessage is the payload of a safety report message: the rating submit
// body plus the reporting user.
type ReportMessage struct {
	UserID string `json:"userId"`
	safety.SubmitInput
}

// Outcome tells the subscriber what to do with a message.
type Outcome int

const (
	// Ack removes the message from the subscription.
	Ack Outcome = iota
	// Nack asks Pub/Sub to redeliver the message.
	Nack
)

func (o Outcome) String() string {
	if o == Nack {
		return "nack"
	}
	return "ack"
}

// Stats is a snapshot of processing counters.
type Stats struct {
	Received      int64     `json:"received"`
	Stored        int64     `json:"stored"`
	Rejected      int64     `json:"rejected"`
	Failed        int64     `json:"failed"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
}

// ReportProcessor decodes, validates and stores report messages.
// It is independent of Pub/Sub so it can be driven directly in tests.
type ReportProcessor struct {
	store  ReportStore
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	stats Stats
}

// ProcessorConfig holds configuration for the report processor.
type ProcessorConfig struct {
	Store  ReportStore
	Logger zerolog.Logger
	Now    func() time.Time
}

// NewReportProcessor creates a new report processor.
func NewReportProcessor(cfg ProcessorConfig) *ReportProcessor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ReportProcessor{
		store:  cfg.Store,
		logger: cfg.Logger,
		now:    now,
	}
}

// Process handles one message body.
// Undecodable and invalid reports are acked so they are not redelivered;
// store failures are nacked for retry.
func (p *ReportProcessor) Process(ctx context.Context, data []byte) Outcome {
	p.record(func(s *Stats) {
		s.Received++
		s.LastMessageAt = p.now().UTC()
	})

	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping undecodable safety report")
		p.record(func(s *Stats) { s.Rejected++ })
		return Ack
	}

	rating, err := p.store.Submit(ctx, msg.UserID, &msg.SubmitInput)
	if err != nil {
		var validationErr *safety.ValidationError
		if errors.As(err, &validationErr) {
			p.logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("dropping invalid safety report")
			p.record(func(s *Stats) { s.Rejected++ })
			return Ack
		}

		p.logger.Error().Err(err).Str("user_id", msg.UserID).Msg("failed to store safety report")
		p.record(func(s *Stats) { s.Failed++ })
		return Nack
	}

	p.logger.Debug().Str("rating_id", rating.ID).Msg("safety report stored")
	p.record(func(s *Stats) { s.Stored++ })
	return Ack
}

// Stats returns a snapshot of the processing counters.
func (p *ReportProcessor) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *ReportProcessor) record(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}
