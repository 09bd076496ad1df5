package render

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"album-slideshow/internal/album"
	"album-slideshow/internal/logging"
	"album-slideshow/internal/metrics"
	"album-slideshow/internal/store"
)

// ErrNoMedia signals that no frame can be produced because the album is
// empty or has never been enumerated.
var ErrNoMedia = errors.New("no media available")

const (
	// avoidScanLimit bounds how many items an orientation-avoid scan may
	// skip before giving up and restoring the starting position.
	avoidScanLimit = 30
	// pairScanLimit bounds how many candidates a pair search may inspect.
	pairScanLimit = 12
	// recentRefsMax bounds the recently-shown ring used to keep pair
	// candidates varied.
	recentRefsMax = 20
)

// Status is the observability snapshot of the engine.
type Status struct {
	AlbumTitle        string       `json:"albumTitle"`
	Provider          string       `json:"provider"`
	MediaCount        int          `json:"mediaCount"`
	CurrentIndex      int          `json:"currentIndex"`
	CurrentFilename   string       `json:"currentFilename,omitempty"`
	CurrentReference  string       `json:"currentReference,omitempty"`
	CurrentIsPortrait *bool        `json:"currentIsPortrait"`
	NextAdvanceAt     *time.Time   `json:"nextAdvanceAt,omitempty"`
	LastRefresh       *time.Time   `json:"lastRefresh,omitempty"`
	LastRefreshError  string       `json:"lastRefreshError,omitempty"`
	Settings          store.Values `json:"settings"`
}

// Engine renders encoded frames from the current album view under the
// current settings. One engine serves any number of concurrent pollers;
// renders are serialized so playback state stays coherent, and the frame
// cache keeps repeat polls cheap.
type Engine struct {
	settings *store.Settings
	albums   *album.Coordinator

	bytes    *ByteCache
	advancer *Advancer
	frame    *FrameCache

	mu           sync.Mutex
	recentRefs   []string
	lastPortrait *bool
}

// NewEngine wires an engine to its settings and album coordinator. Any
// settings mutation invalidates the rendered-frame cache immediately.
func NewEngine(settings *store.Settings, albums *album.Coordinator) *Engine {
	e := &Engine{
		settings: settings,
		albums:   albums,
		bytes:    NewByteCache(),
		advancer: NewAdvancer(),
		frame:    NewFrameCache(),
	}
	settings.AddListener(e.frame.Invalidate)
	return e
}

// Render produces one encoded frame for the requested dimensions. A zero
// dimension means "unspecified"; the output always carries the configured
// aspect ratio. Returns ErrNoMedia when the album is empty.
func (e *Engine) Render(ctx context.Context, reqW, reqH int) ([]byte, error) {
	start := time.Now()
	data, cached, err := e.render(ctx, reqW, reqH)

	switch {
	case errors.Is(err, ErrNoMedia):
		metrics.RendersTotal.WithLabelValues("no_media").Inc()
	case err != nil:
		metrics.RendersTotal.WithLabelValues("error").Inc()
	default:
		metrics.RendersTotal.WithLabelValues("success").Inc()
		if !cached {
			metrics.RenderDuration.Observe(time.Since(start).Seconds())
		}
	}
	return data, err
}

func (e *Engine) render(ctx context.Context, reqW, reqH int) ([]byte, bool, error) {
	width, height := ResolveOutputSize(reqW, reqH, e.settings.AspectRatio())

	view := e.albums.Current()
	if view == nil || len(view.Items) == 0 {
		return nil, false, ErrNoMedia
	}
	items := view.Items

	e.mu.Lock()
	defer e.mu.Unlock()

	e.advancer.Clamp(len(items))
	e.advance(items, false)

	if data, ok := e.frame.Get(); ok {
		metrics.FrameCacheHitsTotal.Inc()
		return data, true, nil
	}

	fill := e.settings.FillMode()
	orientMode := e.settings.OrientationMode()
	dividerPx := e.settings.DividerPx()
	dividerFill, transparentDivider := ParseDividerColor(e.settings.DividerColor())

	cur := items[e.advancer.Index()]

	curBytes, err := e.bytes.Fetch(ctx, cur.Reference)
	if err != nil {
		return nil, false, err
	}
	img, err := decodeImage(curBytes)
	if err != nil {
		logging.Warn("Failed to decode photo %s: %v", cur.Reference, err)
		return nil, false, err
	}

	curPortrait := itemIsPortrait(cur, img)
	e.lastPortrait = &curPortrait

	portraitCanvas := height > width
	mismatch := curPortrait != portraitCanvas

	if mismatch && orientMode == store.OrientationAvoid {
		data, err := e.renderAvoidingMismatch(ctx, items, width, height, fill, portraitCanvas)
		if err != nil {
			return nil, false, err
		}
		e.frame.Put(data)
		return data, false, nil
	}

	if mismatch && orientMode == store.OrientationPair {
		if other := e.findPairCandidate(ctx, items, portraitCanvas); other != nil {
			composed := composePair(img, other, width, height, fill, portraitCanvas, dividerPx, dividerFill)
			data, err := EncodeFrame(composed, transparentDivider)
			if err != nil {
				return nil, false, err
			}
			e.frame.Put(data)
			return data, false, nil
		}
		metrics.OrientationFallbacksTotal.WithLabelValues("pair").Inc()
	}

	data, err := EncodeFrame(renderByFill(img, fill, width, height), false)
	if err != nil {
		return nil, false, err
	}
	e.frame.Put(data)
	return data, false, nil
}

// renderAvoidingMismatch scans forward for a photo matching the canvas
// orientation, skipping fetch and decode failures along the way. Each skip
// is a forced advance, so it reschedules the interval timer like any other
// advance. When the budget runs out the starting position is restored and
// rendered anyway.
func (e *Engine) renderAvoidingMismatch(ctx context.Context, items []album.MediaItem, width, height int, fill store.FillMode, portraitCanvas bool) ([]byte, error) {
	count := len(items)
	if count <= 0 {
		return nil, ErrNoMedia
	}

	budget := count
	if budget > avoidScanLimit {
		budget = avoidScanLimit
	}

	start := e.advancer.Index()
	for i := 0; i < budget; i++ {
		cur := items[e.advancer.Index()]

		data, err := e.bytes.Fetch(ctx, cur.Reference)
		if err != nil {
			e.advance(items, true)
			continue
		}
		img, err := decodeImage(data)
		if err != nil {
			logging.Warn("Failed to decode photo %s: %v", cur.Reference, err)
			e.advance(items, true)
			continue
		}
		if itemIsPortrait(cur, img) != portraitCanvas {
			e.advance(items, true)
			continue
		}

		e.lastPortrait = &portraitCanvas
		return EncodeFrame(renderByFill(img, fill, width, height), false)
	}

	// Budget exhausted: render the starting photo mismatched rather than
	// returning nothing.
	metrics.OrientationFallbacksTotal.WithLabelValues("avoid").Inc()
	e.advancer.SetIndex(start)

	cur := items[e.advancer.Index()]
	data, err := e.bytes.Fetch(ctx, cur.Reference)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		logging.Warn("Failed to decode photo %s: %v", cur.Reference, err)
		return nil, err
	}

	portrait := itemIsPortrait(cur, img)
	e.lastPortrait = &portrait
	return EncodeFrame(renderByFill(img, fill, width, height), false)
}

// findPairCandidate searches forward for another canvas-mismatching photo
// to pair with the current one (two portraits fill a landscape canvas and
// vice versa). Recently shown photos and fetch/decode failures are skipped.
// Returns nil when the budget is exhausted.
func (e *Engine) findPairCandidate(ctx context.Context, items []album.MediaItem, portraitCanvas bool) image.Image {
	n := len(items)
	if n == 0 {
		return nil
	}

	tries := 0
	for offset := 1; tries < pairScanLimit && offset < n; offset++ {
		item := items[(e.advancer.Index()+offset)%n]
		tries++

		if e.isRecent(item.Reference) {
			continue
		}

		data, err := e.bytes.Fetch(ctx, item.Reference)
		if err != nil {
			continue
		}
		img, err := decodeImage(data)
		if err != nil {
			logging.Debug("Skipping undecodable pair candidate %s: %v", item.Reference, err)
			continue
		}

		if itemIsPortrait(item, img) != portraitCanvas {
			return img
		}
	}
	return nil
}

// advance moves the playback position through the advancer, recording the
// newly selected reference in the recently-shown ring for random order.
func (e *Engine) advance(items []album.MediaItem, force bool) bool {
	interval := time.Duration(e.settings.SlideInterval()) * time.Second
	mode := e.settings.OrderMode()

	moved := e.advancer.MaybeAdvance(len(items), force, interval, mode)
	if moved && mode == store.OrderRandom && len(items) > 0 {
		e.pushRecent(items[e.advancer.Index()].Reference, len(items))
	}
	return moved
}

func (e *Engine) pushRecent(reference string, count int) {
	e.recentRefs = append(e.recentRefs, reference)

	keep := count - 1
	if keep > recentRefsMax {
		keep = recentRefsMax
	}
	if keep < 1 {
		keep = 1
	}
	if len(e.recentRefs) > keep {
		e.recentRefs = e.recentRefs[len(e.recentRefs)-keep:]
	}
}

func (e *Engine) isRecent(reference string) bool {
	for _, r := range e.recentRefs {
		if r == reference {
			return true
		}
	}
	return false
}

// ForceNext advances to the next photo immediately and invalidates the
// frame cache so the next poll shows it.
func (e *Engine) ForceNext() {
	view := e.albums.Current()
	if view == nil || len(view.Items) == 0 {
		return
	}

	e.mu.Lock()
	e.advancer.Clamp(len(view.Items))
	e.advance(view.Items, true)
	e.mu.Unlock()

	e.frame.Invalidate()
}

// ForceRefresh re-enumerates the album and invalidates the frame cache.
func (e *Engine) ForceRefresh(ctx context.Context) error {
	err := e.albums.Refresh(ctx)
	e.frame.Invalidate()
	return err
}

// Status returns the current observability snapshot.
func (e *Engine) Status() Status {
	view := e.albums.Current()

	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		Provider:          e.albums.ProviderName(),
		CurrentIndex:      e.advancer.Index(),
		CurrentIsPortrait: e.lastPortrait,
		Settings:          e.settings.Values(),
	}

	if view != nil {
		s.AlbumTitle = view.Title
		s.MediaCount = len(view.Items)
		if idx := e.advancer.Index(); idx >= 0 && idx < len(view.Items) {
			s.CurrentFilename = view.Items[idx].Filename
			s.CurrentReference = view.Items[idx].Reference
		}
	}

	if next := e.advancer.NextAdvanceAt(); !next.IsZero() {
		s.NextAdvanceAt = &next
	}
	if last := e.albums.LastRefresh(); !last.IsZero() {
		s.LastRefresh = &last
	}
	if err := e.albums.LastError(); err != nil {
		s.LastRefreshError = err.Error()
	}

	return s
}
