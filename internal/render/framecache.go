package render

import (
	"sync"
	"time"
)

// frameCacheTTL is how long one rendered frame satisfies repeat polls.
const frameCacheTTL = 2 * time.Second

// FrameCache is a single-slot cache for the fully rendered, encoded frame.
// It absorbs the polling bursts a camera consumer produces without ever
// re-running the fetch/compose/encode path.
type FrameCache struct {
	mu   sync.Mutex
	when time.Time
	data []byte
	now  func() time.Time
}

// NewFrameCache creates an empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{now: time.Now}
}

// Get returns the cached frame when it is still fresh.
func (f *FrameCache) Get() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.data == nil || f.now().Sub(f.when) >= frameCacheTTL {
		return nil, false
	}
	return f.data, true
}

// Put stores a freshly rendered frame.
func (f *FrameCache) Put(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.when = f.now()
	f.data = data
}

// Invalidate drops the cached frame unconditionally. Wired as a settings
// listener so configuration changes are visible on the next poll.
func (f *FrameCache) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
}
