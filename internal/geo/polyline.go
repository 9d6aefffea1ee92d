package geo

import (
	"errors"
	"math"
)

// ErrInvalidPolyline is returned for a truncated or corrupt encoded polyline.
var ErrInvalidPolyline = errors.New("invalid encoded polyline")

const polylinePrecision = 1e5

// DecodePolyline decodes a Google encoded polyline (precision 5).
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, nil
	}

	var (
		points   []Point
		lat, lng int
		i        int
	)
	for i < len(encoded) {
		dLat, next, err := decodeVarint(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeVarint(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, Point{
			Lat: float64(lat) / polylinePrecision,
			Lng: float64(lng) / polylinePrecision,
		})
	}
	return points, nil
}

func decodeVarint(encoded string, i int) (value, next int, err error) {
	var result, shift int
	for {
		if i >= len(encoded) {
			return 0, 0, ErrInvalidPolyline
		}
		b := int(encoded[i]) - 63
		i++
		if b < 0 || b > 63 {
			return 0, 0, ErrInvalidPolyline
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// EncodePolyline encodes points at precision 5.
func EncodePolyline(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*6)
	var prevLat, prevLng int
	for _, p := range points {
		lat := int(math.Round(p.Lat * polylinePrecision))
		lng := int(math.Round(p.Lng * polylinePrecision))
		buf = encodeVarint(buf, lat-prevLat)
		buf = encodeVarint(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

func encodeVarint(buf []byte, v int) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}

// PathLength sums the haversine distance along points, in meters.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
