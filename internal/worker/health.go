package worker

import (
	"net/http"
)

// HealthResponse is the body of the worker's /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Stats   Stats  `json:"stats"`
}

// HealthHandler serves /health with the processor's counters.
func HealthHandler(version string, processor *ReportProcessor) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(HealthResponse{
			Status:  "OK",
			Version: version,
			Stats:   processor.Stats(),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
	return mux
}
