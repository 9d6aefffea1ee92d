package models

// PlanRouteRequest asks for safety-ranked routes. Each endpoint is given either
// as coordinates or as an address to geocode; coordinates win when both are set.
type PlanRouteRequest struct {
	Origin             *Point `json:"origin,omitempty" validate:"omitempty"`
	Destination        *Point `json:"destination,omitempty" validate:"omitempty"`
	OriginAddress      string `json:"originAddress,omitempty" validate:"max=300"`
	DestinationAddress string `json:"destinationAddress,omitempty" validate:"max=300"`
	IncludePath        bool   `json:"includePath,omitempty"`
}

// PlanRouteResponse lists routes from safest to least safe.
type PlanRouteResponse struct {
	GeneratedAt Timestamp     `json:"generatedAt"`
	Origin      Point         `json:"origin"`
	Destination Point         `json:"destination"`
	Provider    string        `json:"provider"`
	Routes      []RouteOption `json:"routes"`
}

// RouteOption is one scored alternative.
type RouteOption struct {
	Rank             int     `json:"rank"`
	Summary          string  `json:"summary"`
	SafetyScore      float64 `json:"safetyScore"`
	SafetyLevel      string  `json:"safetyLevel"`
	WaypointCount    int     `json:"waypointCount"`
	RatedWaypoints   int     `json:"ratedWaypoints"`
	DistanceMeters   int     `json:"distanceMeters"`
	DistanceText     string  `json:"distanceText,omitempty"`
	DurationSeconds  int     `json:"durationSeconds"`
	DurationText     string  `json:"durationText,omitempty"`
	OverviewPolyline string  `json:"overviewPolyline,omitempty"`
	Path             []Point `json:"path,omitempty"`
	PathLengthMeters float64 `json:"pathLengthMeters,omitempty"`
}

// GeocodeResponse is a resolved address.
type GeocodeResponse struct {
	Address          string  `json:"address"`
	Point            Point   `json:"point"`
	Confidence       *int    `json:"confidence,omitempty"`
	FormattedAddress *string `json:"formattedAddress,omitempty"`
	Provider         string  `json:"provider"`
}
