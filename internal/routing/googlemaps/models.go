package googlemaps

// Directions API status codes.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusNotFound       = "NOT_FOUND"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusOverDailyLimit = "OVER_DAILY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusInvalidRequest = "INVALID_REQUEST"
	statusUnknownError   = "UNKNOWN_ERROR"
)

// directionsResponse is the Directions API response body.
type directionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []route `json:"routes"`
}

type route struct {
	Summary          string    `json:"summary"`
	Bounds           *bounds   `json:"bounds,omitempty"`
	OverviewPolyline *polyline `json:"overview_polyline,omitempty"`
	Legs             []leg     `json:"legs"`
	Warnings         []string  `json:"warnings,omitempty"`
}

type bounds struct {
	Northeast *latLng `json:"northeast"`
	Southwest *latLng `json:"southwest"`
}

type polyline struct {
	Points string `json:"points"`
}

type leg struct {
	Distance     *textValue `json:"distance"`
	Duration     *textValue `json:"duration"`
	StartAddress string     `json:"start_address,omitempty"`
	EndAddress   string     `json:"end_address,omitempty"`
	Steps        []step     `json:"steps"`
}

type step struct {
	StartLocation    *latLng    `json:"start_location"`
	EndLocation      *latLng    `json:"end_location"`
	Distance         *textValue `json:"distance"`
	Duration         *textValue `json:"duration"`
	HTMLInstructions string     `json:"html_instructions,omitempty"`
	TravelMode       string     `json:"travel_mode,omitempty"`
}

// latLng uses pointers so that a missing coordinate is distinguishable from zero.
type latLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}
