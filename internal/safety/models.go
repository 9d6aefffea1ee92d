// Package safety stores and serves community safety ratings: circular zones with a
// 0-100 score contributed by user reports.
package safety

import (
	"errors"
	"time"

	"github.com/safepath/safepath/internal/geo"
	"github.com/safepath/safepath/internal/validation"
)

// Sentinel errors for rating operations.
var (
	// ErrRatingNotFound indicates no rating exists with the given ID.
	ErrRatingNotFound = errors.New("safety rating not found")
)

// Category classifies the report a rating came from.
type Category string

const (
	CategoryUnsafeArea         Category = "unsafe_area"
	CategoryWellLit            Category = "well_lit"
	CategoryHarassment         Category = "harassment"
	CategorySuspiciousActivity Category = "suspicious_activity"
	CategoryOther              Category = "other"
)

// Categories lists every accepted category.
func Categories() []Category {
	return []Category{
		CategoryUnsafeArea,
		CategoryWellLit,
		CategoryHarassment,
		CategorySuspiciousActivity,
		CategoryOther,
	}
}

// Rating is a community safety rating for a circular area.
// Overlapping ratings are never merged; consumers average them.
type Rating struct {
	ID           string
	Center       geo.Point
	RadiusMeters float64
	SafetyScore  float64 // 0-100, higher is safer
	Category     Category
	Description  *string
	ReporterID   *string // nil for anonymous reports
	Anonymous    bool
	CreatedAt    time.Time
}

// Contains reports whether p lies inside the rating's zone.
func (r *Rating) Contains(p geo.Point) bool {
	return geo.WithinRadius(p, r.Center, r.RadiusMeters)
}

// SubmitInput is a community report to be stored as a rating.
type SubmitInput struct {
	Lat          float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng          float64  `json:"lng" validate:"gte=-180,lte=180"`
	RadiusMeters float64  `json:"radiusMeters" validate:"gte=1,lte=5000"`
	SafetyScore  float64  `json:"safetyScore" validate:"gte=0,lte=100"`
	Category     Category `json:"category" validate:"required,oneof=unsafe_area well_lit harassment suspicious_activity other"`
	Description  string   `json:"description,omitempty" validate:"max=500"`
	Anonymous    bool     `json:"anonymous,omitempty"`
}

// ValidationError is returned when a submission fails validation.
type ValidationError = validation.Error

// FieldError describes a single invalid input field.
type FieldError = validation.FieldError
