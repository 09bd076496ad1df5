package handlers

import (
	"net/http"
	"runtime"
	"time"

	"album-slideshow/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Ready            bool   `json:"ready"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	Provider         string `json:"provider"`
	MediaCount       int    `json:"mediaCount"`
	LastRefresh      string `json:"lastRefresh,omitempty"`
	LastRefreshError string `json:"lastRefreshError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. An empty album is
// still healthy; only a service that never managed to enumerate anything
// reports starting.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	view := h.albums.Current()

	response := HealthResponse{
		Ready:        view != nil,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Provider:     h.albums.ProviderName(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if view != nil {
		response.Status = statusHealthy
		response.MediaCount = len(view.Items)
	} else {
		response.Status = statusStarting
	}
	if last := h.albums.LastRefresh(); !last.IsZero() {
		response.LastRefresh = last.UTC().Format(time.RFC3339)
	}
	if err := h.albums.LastError(); err != nil {
		response.LastRefreshError = err.Error()
	}

	writeJSON(w, response)
}

// LivenessCheck always succeeds while the process is serving.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

// ReadinessCheck succeeds once the album has been enumerated at least once.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.albums.Current() == nil {
		writeJSONError(w, "album not yet enumerated", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, startup.GetBuildInfo())
}
