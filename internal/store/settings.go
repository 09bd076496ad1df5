package store

import (
	"sync"
)

// FillMode selects how a source photo is mapped onto the output canvas.
type FillMode string

const (
	// FillCover scales the photo to cover the canvas and crops the overflow.
	FillCover FillMode = "cover"
	// FillContain letterboxes the photo inside the canvas.
	FillContain FillMode = "contain"
	// FillBlur letterboxes the photo over a blurred cover-filled background.
	FillBlur FillMode = "blur"
)

// OrientationMode selects how portrait/landscape mismatches are handled.
type OrientationMode string

const (
	// OrientationSingle renders the current photo regardless of mismatch.
	OrientationSingle OrientationMode = "single"
	// OrientationPair composes two opposite-orientation photos into one frame.
	OrientationPair OrientationMode = "pair"
	// OrientationAvoid skips ahead to a photo matching the canvas orientation.
	OrientationAvoid OrientationMode = "avoid"
)

// OrderMode selects the slide ordering strategy.
type OrderMode string

const (
	// OrderRandom walks a non-repeating shuffled permutation of the album.
	OrderRandom OrderMode = "random"
	// OrderAlbum walks the album in its native order.
	OrderAlbum OrderMode = "album"
)

// Clamp ranges for numeric settings.
const (
	MinSlideInterval = 3
	MaxSlideInterval = 3600
	MinRefreshHours  = 1
	MaxRefreshHours  = 168
	MinDividerPx     = 0
	MaxDividerPx     = 64
)

// Defaults for a fresh installation.
const (
	DefaultSlideInterval = 10
	DefaultRefreshHours  = 12
	DefaultFillMode      = FillCover
	DefaultOrientation   = OrientationSingle
	DefaultOrderMode     = OrderRandom
	DefaultAspectRatio   = "16:9"
	DefaultDividerPx     = 4
	DefaultDividerColor  = "white"
)

// Listener is invoked synchronously whenever Notify is called.
type Listener func()

// Values is an immutable snapshot of every slideshow setting.
type Values struct {
	SlideInterval   int             `json:"slideInterval"`
	RefreshHours    int             `json:"refreshHours"`
	FillMode        FillMode        `json:"fillMode"`
	OrientationMode OrientationMode `json:"orientationMode"`
	OrderMode       OrderMode       `json:"orderMode"`
	AspectRatio     string          `json:"aspectRatio"`
	DividerPx       int             `json:"dividerPx"`
	DividerColor    string          `json:"dividerColor"`
}

// DefaultValues returns the settings used before anything is persisted.
func DefaultValues() Values {
	return Values{
		SlideInterval:   DefaultSlideInterval,
		RefreshHours:    DefaultRefreshHours,
		FillMode:        DefaultFillMode,
		OrientationMode: DefaultOrientation,
		OrderMode:       DefaultOrderMode,
		AspectRatio:     DefaultAspectRatio,
		DividerPx:       DefaultDividerPx,
		DividerColor:    DefaultDividerColor,
	}
}

// Settings holds the mutable slideshow configuration. Setters validate and
// clamp but do not notify; callers that want a change to take effect must
// call Notify explicitly after mutating. Listeners run synchronously in
// registration order.
type Settings struct {
	mu        sync.RWMutex
	values    Values
	listeners []Listener
}

// NewSettings creates a Settings instance populated with defaults.
func NewSettings() *Settings {
	return &Settings{values: DefaultValues()}
}

// AddListener registers a callback invoked on every Notify.
func (s *Settings) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Notify invokes every registered listener in registration order.
func (s *Settings) Notify() {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l()
	}
}

// Values returns a snapshot of the current settings.
func (s *Settings) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Apply overwrites every setting with v, clamping numeric fields and
// discarding invalid enum or ratio values. It does not notify.
func (s *Settings) Apply(v Values) {
	s.SetSlideInterval(v.SlideInterval)
	s.SetRefreshHours(v.RefreshHours)
	s.SetFillMode(v.FillMode)
	s.SetOrientationMode(v.OrientationMode)
	s.SetOrderMode(v.OrderMode)
	s.SetAspectRatio(v.AspectRatio)
	s.SetDividerPx(v.DividerPx)
	s.SetDividerColor(v.DividerColor)
}

// SlideInterval returns the slide interval in seconds.
func (s *Settings) SlideInterval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.SlideInterval
}

// SetSlideInterval sets the slide interval in seconds, clamped to [3,3600].
func (s *Settings) SetSlideInterval(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.SlideInterval = clampInt(seconds, MinSlideInterval, MaxSlideInterval)
}

// RefreshHours returns the album refresh interval in hours.
func (s *Settings) RefreshHours() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.RefreshHours
}

// SetRefreshHours sets the album refresh interval, clamped to [1,168].
func (s *Settings) SetRefreshHours(hours int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.RefreshHours = clampInt(hours, MinRefreshHours, MaxRefreshHours)
}

// FillMode returns the active fill strategy.
func (s *Settings) FillMode() FillMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.FillMode
}

// SetFillMode sets the fill strategy; unknown values are ignored.
func (s *Settings) SetFillMode(m FillMode) {
	switch m {
	case FillCover, FillContain, FillBlur:
	default:
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.FillMode = m
}

// OrientationMode returns the active orientation-mismatch strategy.
func (s *Settings) OrientationMode() OrientationMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.OrientationMode
}

// SetOrientationMode sets the mismatch strategy; unknown values are ignored.
func (s *Settings) SetOrientationMode(m OrientationMode) {
	switch m {
	case OrientationSingle, OrientationPair, OrientationAvoid:
	default:
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.OrientationMode = m
}

// OrderMode returns the active slide ordering.
func (s *Settings) OrderMode() OrderMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.OrderMode
}

// SetOrderMode sets the slide ordering; unknown values are ignored.
func (s *Settings) SetOrderMode(m OrderMode) {
	switch m {
	case OrderRandom, OrderAlbum:
	default:
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.OrderMode = m
}

// AspectRatio returns the output aspect ratio as a "W:H" string.
func (s *Settings) AspectRatio() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.AspectRatio
}

// SetAspectRatio sets the output aspect ratio. The string is stored as-is;
// the compositor falls back to 16:9 when it cannot be parsed.
func (s *Settings) SetAspectRatio(ratio string) {
	if ratio == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.AspectRatio = ratio
}

// DividerPx returns the pair divider width in pixels.
func (s *Settings) DividerPx() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.DividerPx
}

// SetDividerPx sets the pair divider width, clamped to [0,64].
func (s *Settings) SetDividerPx(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.DividerPx = clampInt(px, MinDividerPx, MaxDividerPx)
}

// DividerColor returns the pair divider color string.
func (s *Settings) DividerColor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.DividerColor
}

// SetDividerColor sets the pair divider color. The string is stored as-is;
// the compositor resolves aliases and falls back to white when unparseable.
func (s *Settings) SetDividerColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.DividerColor = color
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
