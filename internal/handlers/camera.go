package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"album-slideshow/internal/logging"
	"album-slideshow/internal/render"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// CameraImage renders and returns the current frame. Optional width and
// height query parameters bound the output box; the frame always carries
// the configured aspect ratio.
func (h *Handlers) CameraImage(w http.ResponseWriter, r *http.Request) {
	width := parseDimension(r.URL.Query().Get("width"))
	height := parseDimension(r.URL.Query().Get("height"))

	data, err := h.engine.Render(r.Context(), width, height)
	if err != nil {
		logging.Debug("Render produced no frame: %v", err)
		writeJSONError(w, render.ErrNoMedia.Error(), http.StatusServiceUnavailable)
		return
	}

	contentType := "image/jpeg"
	if bytes.HasPrefix(data, pngMagic) {
		contentType = "image/png"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write frame: %v", err)
	}
}

// parseDimension parses a dimension query parameter; anything missing or
// invalid means "unspecified".
func parseDimension(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
