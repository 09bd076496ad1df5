package handlers

import (
	"encoding/json"
	"net/http"

	"album-slideshow/internal/logging"
	"album-slideshow/internal/store"
)

// ForceNext advances the slideshow immediately.
func (h *Handlers) ForceNext(w http.ResponseWriter, _ *http.Request) {
	h.engine.ForceNext()
	writeJSONStatus(w, "advanced")
}

// ForceRefresh re-enumerates the album now.
func (h *Handlers) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ForceRefresh(r.Context()); err != nil {
		logging.Warn("Forced album refresh failed: %v", err)
		writeJSONError(w, "album refresh failed", http.StatusBadGateway)
		return
	}
	writeJSONStatus(w, "refreshed")
}

// GetStatus returns the engine's observability snapshot.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.engine.Status())
}

// GetSettings returns the current slideshow settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.settings.Values())
}

// settingsPatch carries a partial settings update. Absent fields are left
// unchanged.
type settingsPatch struct {
	SlideInterval   *int    `json:"slideInterval"`
	RefreshHours    *int    `json:"refreshHours"`
	FillMode        *string `json:"fillMode"`
	OrientationMode *string `json:"orientationMode"`
	OrderMode       *string `json:"orderMode"`
	AspectRatio     *string `json:"aspectRatio"`
	DividerPx       *int    `json:"dividerPx"`
	DividerColor    *string `json:"dividerColor"`
}

// UpdateSettings applies a partial settings update and notifies listeners,
// which invalidates the frame cache and persists the new values.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if patch.SlideInterval != nil {
		h.settings.SetSlideInterval(*patch.SlideInterval)
	}
	if patch.RefreshHours != nil {
		h.settings.SetRefreshHours(*patch.RefreshHours)
	}
	if patch.FillMode != nil {
		h.settings.SetFillMode(store.FillMode(*patch.FillMode))
	}
	if patch.OrientationMode != nil {
		h.settings.SetOrientationMode(store.OrientationMode(*patch.OrientationMode))
	}
	if patch.OrderMode != nil {
		h.settings.SetOrderMode(store.OrderMode(*patch.OrderMode))
	}
	if patch.AspectRatio != nil {
		h.settings.SetAspectRatio(*patch.AspectRatio)
	}
	if patch.DividerPx != nil {
		h.settings.SetDividerPx(*patch.DividerPx)
	}
	if patch.DividerColor != nil {
		h.settings.SetDividerColor(*patch.DividerColor)
	}

	h.settings.Notify()
	writeJSON(w, h.settings.Values())
}
