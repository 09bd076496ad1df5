package album

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"album-slideshow/internal/logging"
)

const (
	sharedAlbumTimeout  = 60 * time.Second
	sharedAlbumMaxItems = 500
)

// SharedProvider enumerates photos from a publicly shared album through a
// JSON-RPC resolver endpoint. The payload shape is not under any contract,
// so item discovery is structural: prefer lists under well-known keys, fall
// back to the largest list of URL-bearing objects.
type SharedProvider struct {
	endpoint string
	albumURL string
	fallback string // album title fallback
	client   *http.Client
}

// NewSharedProvider creates a provider for the shared album at albumURL,
// resolved through endpoint. fallbackTitle is used when the payload carries
// no title.
func NewSharedProvider(endpoint, albumURL, fallbackTitle string) *SharedProvider {
	return &SharedProvider{
		endpoint: endpoint,
		albumURL: albumURL,
		fallback: fallbackTitle,
		client:   &http.Client{Timeout: sharedAlbumTimeout},
	}
}

// Name implements Provider.
func (p *SharedProvider) Name() string { return "shared_album" }

// Refresh calls the resolver and extracts the photo list.
func (p *SharedProvider) Refresh(ctx context.Context) (*View, error) {
	if p.albumURL == "" {
		return nil, fmt.Errorf("missing album URL")
	}

	data, err := p.callResolver(ctx, sharedAlbumMaxItems)
	if err != nil {
		return nil, err
	}

	result, _ := data["result"].(map[string]interface{})

	rawItems := findLargestItemList(result)
	if len(rawItems) == 0 {
		rawItems = findLargestItemList(data)
	}
	if len(rawItems) == 0 {
		logging.Warn("Shared album resolver returned no recognizable items (top-level keys: %v)", mapKeys(data))
		return nil, fmt.Errorf("no photos returned from album resolver")
	}

	items := make([]MediaItem, 0, len(rawItems))
	seen := make(map[string]bool)
	for _, raw := range rawItems {
		if looksLikeVideo(raw) {
			continue
		}
		url := pickURL(raw)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		filename, _ := raw["filename"].(string)
		if filename == "" {
			filename, _ = raw["name"].(string)
		}
		mime, _ := raw["mimeType"].(string)

		width := pickInt(raw, "mediaMetadata", "width")
		if width == 0 {
			width = pickInt(raw, "width")
		}
		height := pickInt(raw, "mediaMetadata", "height")
		if height == 0 {
			height = pickInt(raw, "height")
		}

		items = append(items, MediaItem{
			Reference: url,
			Width:     width,
			Height:    height,
			MimeType:  mime,
			Filename:  filename,
		})
	}

	logging.Debug("Shared album: %d raw items, %d photos kept", len(rawItems), len(items))

	title := p.fallback
	if t, ok := result["title"].(string); ok && t != "" {
		title = t
	}

	return &View{Title: title, Items: items}, nil
}

// callResolver posts the JSON-RPC request, retrying with a reduced parameter
// set when the resolver rejects the size parameters.
func (p *SharedProvider) callResolver(ctx context.Context, maxItems int) (map[string]interface{}, error) {
	paramSets := []map[string]interface{}{
		{
			"sharedLink":        p.albumURL,
			"imageWidth":        1920,
			"imageHeight":       1080,
			"includeThumbnails": false,
			"videoQuality":      "1080p",
			"attachMetadata":    true,
			"maxResults":        maxItems,
		},
		{
			"sharedLink":        p.albumURL,
			"includeThumbnails": false,
			"attachMetadata":    true,
			"maxResults":        maxItems,
		},
	}

	var lastError string
	for _, params := range paramSets {
		payload := map[string]interface{}{
			"method": "getSharedAlbum",
			"params": params,
			"id":     1,
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode resolver request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create resolver request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error fetching album: %w", err)
		}

		var data map[string]interface{}
		decodeErr := json.NewDecoder(resp.Body).Decode(&data)
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn("Failed to close resolver response body: %v", closeErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("album resolver returned status %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode resolver response: %w", decodeErr)
		}

		if rpcError, ok := data["error"].(map[string]interface{}); ok {
			msg, _ := rpcError["message"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			lastError = msg
			logging.Debug("Album resolver rejected params %v: %s, retrying with reduced set", mapKeys(params), msg)
			continue
		}

		return data, nil
	}

	return nil, fmt.Errorf("album resolver error: %s", lastError)
}

var knownItemListKeys = map[string]bool{
	"mediaItems": true,
	"items":      true,
	"photos":     true,
	"images":     true,
	"results":    true,
	"data":       true,
}

// findLargestItemList locates the list of media item objects inside an
// arbitrary payload. Lists under well-known keys win over the fallback of
// any list of URL-bearing objects; within each class the largest list wins.
func findLargestItemList(node interface{}) []map[string]interface{} {
	var best, fallback []map[string]interface{}

	var walk func(node interface{})
	walk = func(node interface{}) {
		switch n := node.(type) {
		case map[string]interface{}:
			for key, val := range n {
				if list, ok := val.([]interface{}); ok {
					cleaned := make([]map[string]interface{}, 0, len(list))
					for _, it := range list {
						if m, ok := it.(map[string]interface{}); ok {
							cleaned = append(cleaned, m)
						}
					}
					if len(cleaned) >= 1 {
						if knownItemListKeys[key] {
							if len(cleaned) > len(best) {
								best = cleaned
							}
						} else if anyHasURL(cleaned) {
							if len(cleaned) > len(fallback) {
								fallback = cleaned
							}
						}
					}
				}
				walk(val)
			}
		case []interface{}:
			for _, val := range n {
				walk(val)
			}
		}
	}
	walk(node)

	if len(best) > 0 {
		return best
	}
	return fallback
}

// anyHasURL reports whether any of the first few objects carries an
// http(s) string value.
func anyHasURL(items []map[string]interface{}) bool {
	limit := len(items)
	if limit > 5 {
		limit = 5
	}
	for _, it := range items[:limit] {
		for _, v := range it {
			if s, ok := v.(string); ok && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")) {
				return true
			}
		}
	}
	return false
}

// pickURL extracts the best download URL from a raw item.
func pickURL(item map[string]interface{}) string {
	for _, key := range []string{"baseUrl", "url", "downloadUrl", "productUrl"} {
		if s, ok := item[key].(string); ok && strings.HasPrefix(s, "http") {
			return s
		}
	}
	return ""
}

// pickInt walks nested maps along path and returns the integer found, 0 when
// absent or non-numeric.
func pickInt(d map[string]interface{}, keys ...string) int {
	var cur interface{} = d
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return 0
		}
		cur = m[k]
	}
	switch v := cur.(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

var videoMarkerKeys = map[string]bool{
	"isvideo":        true,
	"hasvideo":       true,
	"videometadata":  true,
	"videovariant":   true,
	"videostreams":   true,
	"duration":       true,
	"durationmillis": true,
	"playbackuri":    true,
}

// looksLikeVideo reports whether a raw item describes a video rather than a
// photo. Several sources encode this differently, so every known marker is
// checked.
func looksLikeVideo(raw map[string]interface{}) bool {
	if mime, ok := raw["mimeType"].(string); ok && strings.HasPrefix(mime, "video/") {
		return true
	}

	if meta, ok := raw["mediaMetadata"].(map[string]interface{}); ok {
		if _, ok := meta["video"]; ok {
			return true
		}
		if mt, ok := meta["mediaType"].(string); ok && strings.EqualFold(mt, "VIDEO") {
			return true
		}
	}

	for _, key := range []string{"mediaType", "type"} {
		if mt, ok := raw[key].(string); ok && strings.EqualFold(mt, "VIDEO") {
			return true
		}
	}

	for _, key := range []string{"filename", "name"} {
		if name, ok := raw[key].(string); ok {
			if videoExtensions[strings.ToLower(path.Ext(name))] {
				return true
			}
		}
	}

	if url := pickURL(raw); url != "" {
		base := strings.SplitN(url, "?", 2)[0]
		if videoExtensions[strings.ToLower(path.Ext(base))] {
			return true
		}
		lowered := strings.ToLower(base)
		for _, marker := range []string{"/video", "=dv", "video-"} {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
	}

	return hasVideoMarkers(raw)
}

func hasVideoMarkers(node interface{}) bool {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			if videoMarkerKeys[strings.ToLower(k)] {
				return true
			}
			if s, ok := v.(string); ok {
				lowered := strings.ToLower(s)
				if lowered == "video" || strings.HasPrefix(lowered, "video/") {
					return true
				}
			}
			if hasVideoMarkers(v) {
				return true
			}
		}
	case []interface{}:
		for _, item := range n {
			if hasVideoMarkers(item) {
				return true
			}
		}
	}
	return false
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
