package album

import "context"

// MediaItem is one photo reference inside an album. Items are immutable;
// the provider replaces the whole list on every refresh.
type MediaItem struct {
	// Reference is an http(s) URL or a file:// path.
	Reference string `json:"reference"`
	// Width and Height are the declared pixel dimensions, 0 when unknown.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	// MimeType is the declared mime type, empty when unknown.
	MimeType string `json:"mimeType,omitempty"`
	// Filename is the display name, empty when unknown.
	Filename string `json:"filename,omitempty"`
}

// View is the snapshot of an album produced by one refresh cycle.
// Consumers never mutate it.
type View struct {
	Title string      `json:"title"`
	Items []MediaItem `json:"items"`
}

// Provider enumerates an album into a fresh View.
type Provider interface {
	// Refresh builds a new View. A non-nil error means no usable view was
	// produced this cycle; the caller keeps whatever it had before.
	Refresh(ctx context.Context) (*View, error)
	// Name identifies the provider kind for logging and status output.
	Name() string
}
