// Package models provides request and response models for the SafePath API.
package models

import (
	"fmt"
	"time"

	"github.com/safepath/safepath/internal/geo"
)

// Point is a coordinate on the wire. Zero is a valid latitude and longitude,
// so ranges are checked without "required".
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ToGeo converts the wire point to a geo.Point.
func (p Point) ToGeo() geo.Point {
	return geo.Point{Lat: p.Lat, Lng: p.Lng}
}

// PointFromGeo converts a geo.Point to its wire form.
func PointFromGeo(p geo.Point) Point {
	return Point{Lat: p.Lat, Lng: p.Lng}
}

// HealthStatus is the coarse state of the service or one of its dependencies.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp marshals as RFC 3339 in UTC.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", s)
	}
	parsed, err := time.Parse(time.RFC3339, s[1:len(s)-1])
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// TimestampPtr converts an optional time.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := Timestamp(*t)
	return &ts
}
