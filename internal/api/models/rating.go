package models

// SafetyRating is a community rating of a circular area.
type SafetyRating struct {
	ID           string    `json:"id"`
	Center       Point     `json:"center"`
	RadiusMeters float64   `json:"radiusMeters"`
	SafetyScore  float64   `json:"safetyScore"`
	Category     string    `json:"category"`
	Description  *string   `json:"description,omitempty"`
	Anonymous    bool      `json:"anonymous"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// SafetyMapResponse is the list of ratings inside a bounding box.
type SafetyMapResponse struct {
	Ratings []SafetyRating `json:"ratings"`
	Limit   int            `json:"limit"`
}
