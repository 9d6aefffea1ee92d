package safety_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/safety"
)

func newTestService(repo safety.Repository) *safety.Service {
	return safety.NewService(safety.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		Now: func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	})
}

func validInput() *safety.SubmitInput {
	return &safety.SubmitInput{
		Lat:          28.6139,
		Lng:          77.2090,
		RadiusMeters: 200,
		SafetyScore:  35,
		Category:     safety.CategoryHarassment,
		Description:  "poorly lit underpass",
	}
}

func TestService_Submit(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	rating, err := svc.Submit(ctx, "usr_1", validInput())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rating.ID, "rat_"), "id %q", rating.ID)
	assert.Equal(t, geo.Point{Lat: 28.6139, Lng: 77.2090}, rating.Center)
	assert.Equal(t, safety.CategoryHarassment, rating.Category)
	require.NotNil(t, rating.ReporterID)
	assert.Equal(t, "usr_1", *rating.ReporterID)
	require.NotNil(t, rating.Description)
	assert.Equal(t, "poorly lit underpass", *rating.Description)

	stored, err := svc.Get(ctx, rating.ID)
	require.NoError(t, err)
	assert.Equal(t, rating.SafetyScore, stored.SafetyScore)
}

func TestService_Submit_Anonymous(t *testing.T) {
	svc := newTestService(safety.NewInMemoryRepository())

	input := validInput()
	input.Anonymous = true

	rating, err := svc.Submit(context.Background(), "usr_1", input)
	require.NoError(t, err)

	assert.Nil(t, rating.ReporterID)
	assert.True(t, rating.Anonymous)
}

func TestService_Submit_DefaultCategory(t *testing.T) {
	svc := newTestService(safety.NewInMemoryRepository())

	input := validInput()
	input.Category = ""

	rating, err := svc.Submit(context.Background(), "usr_1", input)
	require.NoError(t, err)
	assert.Equal(t, safety.CategoryUnsafeArea, rating.Category)
}

func TestService_Submit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *safety.SubmitInput)
		wantField string
	}{
		{"score above 100", func(in *safety.SubmitInput) { in.SafetyScore = 101 }, "safetyScore"},
		{"negative score", func(in *safety.SubmitInput) { in.SafetyScore = -1 }, "safetyScore"},
		{"radius too small", func(in *safety.SubmitInput) { in.RadiusMeters = 0 }, "radiusMeters"},
		{"radius too large", func(in *safety.SubmitInput) { in.RadiusMeters = 5001 }, "radiusMeters"},
		{"latitude out of range", func(in *safety.SubmitInput) { in.Lat = 91 }, "lat"},
		{"longitude out of range", func(in *safety.SubmitInput) { in.Lng = -181 }, "lng"},
		{"unknown category", func(in *safety.SubmitInput) { in.Category = "noisy" }, "category"},
		{"description too long", func(in *safety.SubmitInput) { in.Description = strings.Repeat("x", 501) }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := safety.NewInMemoryRepository()
			svc := newTestService(repo)

			input := validInput()
			tt.mutate(input)

			_, err := svc.Submit(context.Background(), "usr_1", input)
			require.Error(t, err)

			var verr *safety.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)

			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.wantField)

			stored, err := repo.ListInLatRange(context.Background(), -90, 90)
			require.NoError(t, err)
			assert.Empty(t, stored, "invalid input must not be stored")
		})
	}
}

func TestService_RatingsNear(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	center := geo.Point{Lat: 28.6139, Lng: 77.2090}
	require.NoError(t, repo.Create(ctx, &safety.Rating{ID: "a", Center: center, RadiusMeters: 100, SafetyScore: 60}))
	require.NoError(t, repo.Create(ctx, &safety.Rating{ID: "b", Center: center, RadiusMeters: 500, SafetyScore: 80}))
	// Inside the latitude band but the zone does not reach the query point.
	require.NoError(t, repo.Create(ctx, &safety.Rating{
		ID:           "c",
		Center:       geo.Point{Lat: 28.6139, Lng: 77.2290},
		RadiusMeters: 50,
		SafetyScore:  10,
	}))
	// Outside the latitude band entirely.
	require.NoError(t, repo.Create(ctx, &safety.Rating{
		ID:           "d",
		Center:       geo.Point{Lat: 28.7, Lng: 77.2090},
		RadiusMeters: safety.MaxRadiusMeters,
		SafetyScore:  0,
	}))

	ratings, err := svc.RatingsNear(ctx, center)
	require.NoError(t, err)

	ids := make([]string, 0, len(ratings))
	for _, r := range ratings {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestService_RatingsNear_BoundaryInclusive(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	center := geo.Point{Lat: 28.6139, Lng: 77.2090}
	point := geo.Point{Lat: 28.6149, Lng: 77.2090}
	dist := geo.Distance(center, point)

	require.NoError(t, repo.Create(ctx, &safety.Rating{ID: "edge", Center: center, RadiusMeters: dist, SafetyScore: 70}))
	require.NoError(t, repo.Create(ctx, &safety.Rating{ID: "short", Center: center, RadiusMeters: dist - 0.001, SafetyScore: 20}))

	ratings, err := svc.RatingsNear(ctx, point)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "edge", ratings[0].ID)
}

func TestService_ListInBox(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Create(ctx, &safety.Rating{
			ID:           id,
			Center:       geo.Point{Lat: 28.6 + float64(i)*0.001, Lng: 77.2},
			RadiusMeters: 100,
			SafetyScore:  50,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, &safety.Rating{
		ID:     "outside",
		Center: geo.Point{Lat: 19.07, Lng: 72.87},
	}))

	box := geo.Box{MinLat: 28.5, MinLng: 77.1, MaxLat: 28.7, MaxLng: 77.3}

	ratings, err := svc.ListInBox(ctx, box, 0)
	require.NoError(t, err)
	require.Len(t, ratings, 3)
	assert.Equal(t, "new", ratings[0].ID)
	assert.Equal(t, "old", ratings[2].ID)

	limited, err := svc.ListInBox(ctx, box, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestService_ListInBox_InvalidBox(t *testing.T) {
	svc := newTestService(safety.NewInMemoryRepository())

	_, err := svc.ListInBox(context.Background(), geo.Box{MinLat: 10, MaxLat: 5, MinLng: 0, MaxLng: 1}, 10)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

type failingRepo struct {
	safety.Repository
}

func (failingRepo) ListInLatRange(context.Context, float64, float64) ([]*safety.Rating, error) {
	return nil, errors.New("connection reset")
}

func TestService_RatingsNear_RepositoryError(t *testing.T) {
	svc := newTestService(failingRepo{Repository: safety.NewInMemoryRepository()})

	_, err := svc.RatingsNear(context.Background(), geo.Point{Lat: 1, Lng: 1})
	assert.Error(t, err)
}

func TestService_RatingsNear_WideZoneOutsideDefaultBand(t *testing.T) {
	repo := safety.NewInMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	input := validInput()
	input.Lat, input.Lng = 12.9916, 77.5946
	input.RadiusMeters = safety.MaxRadiusMeters
	input.SafetyScore = 10
	rating, err := svc.Submit(ctx, "usr_1", input)
	require.NoError(t, err)

	// About 2.2 km south of the center: outside ±0.01° but inside the zone.
	point := geo.Point{Lat: 12.9716, Lng: 77.5946}
	require.Greater(t, rating.Center.Lat-point.Lat, safety.DefaultSearchBand)
	require.True(t, rating.Contains(point))

	ratings, err := svc.RatingsNear(ctx, point)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, rating.ID, ratings[0].ID)
}

func TestNewService_SearchBandCoversMaxRadius(t *testing.T) {
	svc := safety.NewService(safety.ServiceConfig{
		Repository: safety.NewInMemoryRepository(),
		SearchBand: 0.001,
	})
	assert.InDelta(t, 5000.0/111_320.0, svc.SearchBand(), 1e-12)

	wide := safety.NewService(safety.ServiceConfig{
		Repository: safety.NewInMemoryRepository(),
		SearchBand: 0.2,
	})
	assert.Equal(t, 0.2, wide.SearchBand())
}

func TestMaxRadiusMatchesValidation(t *testing.T) {
	svc := newTestService(safety.NewInMemoryRepository())

	input := validInput()
	input.RadiusMeters = safety.MaxRadiusMeters
	_, err := svc.Submit(context.Background(), "usr_1", input)
	require.NoError(t, err)

	input = validInput()
	input.RadiusMeters = safety.MaxRadiusMeters + 1
	_, err = svc.Submit(context.Background(), "usr_1", input)
	require.Error(t, err)
}
