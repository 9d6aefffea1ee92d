// Package weather reports current conditions at a point and flags conditions
// hazardous to someone travelling on foot.
package weather

import (
	"errors"
	"time"

	"github.com/safepath/safepath/internal/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrMalformedResponse   = errors.New("malformed weather provider response")
	ErrInvalidCoordinates  = geo.ErrInvalidCoordinates
)

// Hazard thresholds.
const (
	// MinSafeVisibility is the visibility in meters below which conditions are hazardous.
	MinSafeVisibility = 1000.0
	// MaxSafeWindSpeed is the wind speed in m/s above which conditions are hazardous.
	MaxSafeWindSpeed = 20.0
)

// Observation represents weather data at a specific point and time.
type Observation struct {
	Lat float64
	Lon float64

	// Temperature in Celsius
	Temperature float64
	Humidity    float64

	WindSpeed float64 // m/s
	WindGust  float64 // m/s, 0 if not reported

	Condition   Condition
	Description string

	// Visibility in meters; nil when the provider omits it.
	Visibility *float64

	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// HazardReason names a condition that made an observation hazardous.
type HazardReason string

const (
	HazardThunderstorm  HazardReason = "THUNDERSTORM"
	HazardLowVisibility HazardReason = "LOW_VISIBILITY"
	HazardHighWind      HazardReason = "HIGH_WIND"
)

// HazardReasons lists every hazard present in the observation.
func (o *Observation) HazardReasons() []HazardReason {
	var reasons []HazardReason
	if o.Condition == ConditionThunderstorm {
		reasons = append(reasons, HazardThunderstorm)
	}
	if o.Visibility != nil && *o.Visibility < MinSafeVisibility {
		reasons = append(reasons, HazardLowVisibility)
	}
	if o.WindSpeed > MaxSafeWindSpeed {
		reasons = append(reasons, HazardHighWind)
	}
	return reasons
}

// Hazardous reports a thunderstorm, visibility under 1 km, or wind above 20 m/s.
func (o *Observation) Hazardous() bool {
	return len(o.HazardReasons()) > 0
}
