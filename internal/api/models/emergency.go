package models

// EmergencyContact is a person alerted when the user raises an SOS.
type EmergencyContact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Relation  string    `json:"relation,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// ContactList is every emergency contact of the user.
type ContactList struct {
	Contacts []EmergencyContact `json:"contacts"`
	Max      int                `json:"max"`
}

// Incident is an SOS raised by the user.
type Incident struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Location         Point      `json:"location"`
	Address          *string    `json:"address,omitempty"`
	Note             *string    `json:"note,omitempty"`
	ContactsNotified int        `json:"contactsNotified"`
	CreatedAt        Timestamp  `json:"createdAt"`
	UpdatedAt        Timestamp  `json:"updatedAt"`
	ClosedAt         *Timestamp `json:"closedAt,omitempty"`
}

// IncidentList is the user's incident history, newest first.
type IncidentList struct {
	Incidents []Incident `json:"incidents"`
	Limit     int        `json:"limit"`
}

// CancelResponse lists the incidents a cancel closed.
type CancelResponse struct {
	Cancelled []Incident `json:"cancelled"`
}

// Geofence is a named circle the user is alerted about.
type Geofence struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Center       Point     `json:"center"`
	RadiusMeters float64   `json:"radiusMeters"`
	Active       bool      `json:"active"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// GeofenceList is every geofence of the user.
type GeofenceList struct {
	Geofences []Geofence `json:"geofences"`
}

// LastKnownLocation is the user's most recent reported position.
type LastKnownLocation struct {
	Location   Point     `json:"location"`
	RecordedAt Timestamp `json:"recordedAt"`
}

// LocationUpdateResponse is the result of reporting a position.
// Entered and Exited hold geofence IDs.
type LocationUpdateResponse struct {
	LastKnownLocation
	Inside  []Geofence `json:"inside"`
	Entered []string   `json:"entered"`
	Exited  []string   `json:"exited"`
}
