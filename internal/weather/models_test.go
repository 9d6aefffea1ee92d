package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safepath/safepath/internal/weather"
)

func ptr(v float64) *float64 { return &v }

func TestObservation_Hazardous(t *testing.T) {
	tests := []struct {
		name    string
		obs     weather.Observation
		want    bool
		reasons []weather.HazardReason
	}{
		{
			name: "clear and calm",
			obs:  weather.Observation{Condition: weather.ConditionClear, Visibility: ptr(10000), WindSpeed: 4},
			want: false,
		},
		{
			name:    "thunderstorm",
			obs:     weather.Observation{Condition: weather.ConditionThunderstorm, Visibility: ptr(10000), WindSpeed: 4},
			want:    true,
			reasons: []weather.HazardReason{weather.HazardThunderstorm},
		},
		{
			name:    "low visibility",
			obs:     weather.Observation{Condition: weather.ConditionFog, Visibility: ptr(999), WindSpeed: 1},
			want:    true,
			reasons: []weather.HazardReason{weather.HazardLowVisibility},
		},
		{
			name: "visibility at threshold",
			obs:  weather.Observation{Condition: weather.ConditionMist, Visibility: ptr(1000)},
			want: false,
		},
		{
			name: "visibility unknown",
			obs:  weather.Observation{Condition: weather.ConditionClear},
			want: false,
		},
		{
			name: "wind at threshold",
			obs:  weather.Observation{Condition: weather.ConditionClear, WindSpeed: 20},
			want: false,
		},
		{
			name:    "strong wind",
			obs:     weather.Observation{Condition: weather.ConditionClear, WindSpeed: 20.5},
			want:    true,
			reasons: []weather.HazardReason{weather.HazardHighWind},
		},
		{
			name: "everything at once",
			obs:  weather.Observation{Condition: weather.ConditionThunderstorm, Visibility: ptr(200), WindSpeed: 25},
			want: true,
			reasons: []weather.HazardReason{
				weather.HazardThunderstorm,
				weather.HazardLowVisibility,
				weather.HazardHighWind,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obs.Hazardous())
			assert.Equal(t, tt.reasons, tt.obs.HazardReasons())
		})
	}
}
