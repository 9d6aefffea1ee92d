package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/internal/worker"
)

// failingRepository is a safety.Repository whose writes always fail.
type failingRepository struct {
	*safety.InMemoryRepository
	err error
}

func (r *failingRepository) Create(context.Context, *safety.Rating) error {
	return r.err
}

func newProcessor(repo safety.Repository) *worker.ReportProcessor {
	store := safety.NewService(safety.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return worker.NewReportProcessor(worker.ProcessorConfig{
		Store:  store,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC) },
	})
}

func TestReportProcessor_StoresValidReport(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	p := newProcessor(repo)

	outcome := p.Process(context.Background(), []byte(`{
		"userId": "usr_7",
		"lat": 28.6139, "lng": 77.2090,
		"radiusMeters": 250, "safetyScore": 20,
		"category": "harassment", "description": "poorly lit underpass"
	}`))

	assert.Equal(t, worker.Ack, outcome)

	ratings, err := repo.ListInBox(context.Background(), geo.Box{MinLat: 28, MinLng: 77, MaxLat: 29, MaxLng: 78}, 10)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 20.0, ratings[0].SafetyScore)
	assert.Equal(t, safety.CategoryHarassment, ratings[0].Category)
	require.NotNil(t, ratings[0].ReporterID)
	assert.Equal(t, "usr_7", *ratings[0].ReporterID)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Received)
	assert.Equal(t, int64(1), stats.Stored)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC), stats.LastMessageAt)
}

func TestReportProcessor_AnonymousReportDropsUser(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	p := newProcessor(repo)

	outcome := p.Process(context.Background(), []byte(`{"userId":"usr_7","lat":1,"lng":1,"radiusMeters":10,"safetyScore":70,"category":"well_lit","anonymous":true}`))
	require.Equal(t, worker.Ack, outcome)

	ratings, err := repo.ListInLatRange(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Nil(t, ratings[0].ReporterID)
	assert.True(t, ratings[0].Anonymous)
}

func TestReportProcessor_PoisonMessagesAreAcked(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json`},
		{"score out of range", `{"lat":1,"lng":1,"radiusMeters":10,"safetyScore":150}`},
		{"radius too large", `{"lat":1,"lng":1,"radiusMeters":10000,"safetyScore":50}`},
		{"unknown category", `{"lat":1,"lng":1,"radiusMeters":10,"safetyScore":50,"category":"noise"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := safety.NewInMemoryRepository()
			p := newProcessor(repo)

			assert.Equal(t, worker.Ack, p.Process(context.Background(), []byte(tt.body)))

			ratings, err := repo.ListInLatRange(context.Background(), -90, 90)
			require.NoError(t, err)
			assert.Empty(t, ratings)
			assert.Equal(t, int64(1), p.Stats().Rejected)
		})
	}
}

func TestReportProcessor_StoreFailureIsNacked(t *testing.T) {
	repo := &failingRepository{
		InMemoryRepository: safety.NewInMemoryRepository(),
		err:                errors.New("connection reset"),
	}
	p := newProcessor(repo)

	outcome := p.Process(context.Background(), []byte(`{"lat":1,"lng":1,"radiusMeters":10,"safetyScore":50}`))

	assert.Equal(t, worker.Nack, outcome)
	assert.Equal(t, int64(1), p.Stats().Failed)
	assert.Equal(t, int64(0), p.Stats().Stored)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", worker.Ack.String())
	assert.Equal(t, "nack", worker.Nack.String())
}

func TestHealthHandler(t *testing.T) {
	p := newProcessor(safety.NewInMemoryRepository())
	p.Process(context.Background(), []byte(`{"lat":1,"lng":1,"radiusMeters":10,"safetyScore":50}`))

	rec := httptest.NewRecorder()
	worker.HealthHandler("1.2.3", p).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp worker.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, int64(1), resp.Stats.Stored)
}

func TestHealthHandler_UnknownPath(t *testing.T) {
	p := newProcessor(safety.NewInMemoryRepository())

	rec := httptest.NewRecorder()
	worker.HealthHandler("dev", p).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
