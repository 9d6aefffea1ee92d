// Package geo provides geographic primitives shared by the routing, rating and
// geocoding packages.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000

// ErrInvalidCoordinates indicates a latitude or longitude outside its valid range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Validate checks that the point lies within valid latitude/longitude ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || math.IsNaN(p.Lat) {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinates, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 || math.IsNaN(p.Lng) {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinates, p.Lng)
	}
	return nil
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// WithinRadius reports whether p lies inside the circle around center.
// The boundary is inclusive.
func WithinRadius(p, center Point, radiusMeters float64) bool {
	return Distance(p, center) <= radiusMeters
}

// Box is a latitude/longitude bounding box.
type Box struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// Validate checks the corners and their ordering.
func (b Box) Validate() error {
	if err := (Point{Lat: b.MinLat, Lng: b.MinLng}).Validate(); err != nil {
		return err
	}
	if err := (Point{Lat: b.MaxLat, Lng: b.MaxLng}).Validate(); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return fmt.Errorf("%w: box minimum exceeds maximum", ErrInvalidCoordinates)
	}
	return nil
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// LatBand returns the latitude range [lat-delta, lat+delta] clamped to [-90, 90].
func LatBand(lat, delta float64) (minLat, maxLat float64) {
	return math.Max(lat-delta, -90), math.Min(lat+delta, 90)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
