package models

// Health is the body of the liveness and readiness checks.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus reports upstream provider health, geocoding quotas and the
// route scorer's settings.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
	Quotas    []QuotaStatus    `json:"quotas,omitempty"`
	Scoring   *ScoringStatus   `json:"scoring,omitempty"`
}

// ScoringStatus is how routes are scored: the score of an unrated route and the
// latitude band searched for ratings around each waypoint.
type ScoringStatus struct {
	NeutralScore      float64 `json:"neutralScore"`
	SearchBandDegrees float64 `json:"searchBandDegrees"`
}

// ProviderStatus is one provider's circuit breaker state.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	Requests            uint32       `json:"requests"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	LastError           string       `json:"lastError,omitempty"`
}

// QuotaStatus is one geocoding provider's usage for the current day.
// A zero Limit means the provider is not quota-guarded.
type QuotaStatus struct {
	Provider string `json:"provider"`
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
}
