package models

// WeatherResponse is the current observation near a point with its hazard flag.
type WeatherResponse struct {
	Point         Point     `json:"point"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
	WindGust      float64   `json:"windGust,omitempty"`
	Visibility    *float64  `json:"visibility,omitempty"`
	Condition     string    `json:"condition"`
	Description   string    `json:"description,omitempty"`
	Hazardous     bool      `json:"hazardous"`
	HazardReasons []string  `json:"hazardReasons,omitempty"`
	ObservedAt    Timestamp `json:"observedAt"`
	Provider      string    `json:"provider"`
}
