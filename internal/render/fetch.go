package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"album-slideshow/internal/logging"
	"album-slideshow/internal/metrics"
)

const (
	byteCacheTTL        = 10 * time.Minute
	byteCacheMaxEntries = 120
	byteCacheEvictBatch = 25
	remoteFetchTimeout  = 30 * time.Second

	// maxRemoteBytes bounds a single photo download.
	maxRemoteBytes = 32 << 20
)

type byteCacheEntry struct {
	when time.Time
	data []byte
}

// ByteCache resolves a media reference (http(s) URL or file:// path) into
// raw bytes, memoizing successful fetches for a short TTL. Failures are
// returned to the caller and never cached.
type ByteCache struct {
	mu      sync.Mutex
	entries map[string]byteCacheEntry
	client  *http.Client
	now     func() time.Time
}

// NewByteCache creates an empty cache with a 30-second remote fetch timeout.
func NewByteCache() *ByteCache {
	return &ByteCache{
		entries: make(map[string]byteCacheEntry),
		client:  &http.Client{Timeout: remoteFetchTimeout},
		now:     time.Now,
	}
}

// Fetch returns the bytes behind reference, from cache when fresh.
func (c *ByteCache) Fetch(ctx context.Context, reference string) ([]byte, error) {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[reference]; ok && now.Sub(entry.when) < byteCacheTTL {
		c.mu.Unlock()
		metrics.ByteCacheHitsTotal.Inc()
		return entry.data, nil
	}
	c.mu.Unlock()
	metrics.ByteCacheMissesTotal.Inc()

	source := "remote"
	if strings.HasPrefix(reference, "file://") {
		source = "local"
	}

	start := time.Now()
	var data []byte
	var err error
	if source == "local" {
		data, err = c.readLocal(reference)
	} else {
		data, err = c.fetchRemote(ctx, reference)
	}
	metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FetchesTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}
	metrics.FetchesTotal.WithLabelValues(source, "success").Inc()

	c.store(reference, now, data)
	return data, nil
}

func (c *ByteCache) readLocal(reference string) ([]byte, error) {
	path := strings.TrimPrefix(reference, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Failed to read local photo %s: %v", path, err)
		return nil, fmt.Errorf("failed to read local photo: %w", err)
	}
	return data, nil
}

func (c *ByteCache) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logging.Warn("Failed to fetch photo: %v", err)
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("Failed to close photo response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Warn("Photo fetch returned status %d for %s", resp.StatusCode, url)
		return nil, fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		logging.Warn("Failed to read photo body: %v", err)
		return nil, fmt.Errorf("failed to read photo body: %w", err)
	}
	return data, nil
}

// store records a successful fetch, evicting the oldest entries when the
// capacity bound is exceeded.
func (c *ByteCache) store(reference string, when time.Time, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[reference] = byteCacheEntry{when: when, data: data}

	if len(c.entries) > byteCacheMaxEntries {
		type keyed struct {
			key  string
			when time.Time
		}
		all := make([]keyed, 0, len(c.entries))
		for k, e := range c.entries {
			all = append(all, keyed{key: k, when: e.when})
		}
		sort.Slice(all, func(i, j int) bool { return all[i].when.Before(all[j].when) })

		evict := byteCacheEvictBatch
		if evict > len(all) {
			evict = len(all)
		}
		for _, e := range all[:evict] {
			delete(c.entries, e.key)
		}
		metrics.ByteCacheEvictionsTotal.Add(float64(evict))
	}

	metrics.ByteCacheEntries.Set(float64(len(c.entries)))
}

// Len returns the current number of cached entries.
func (c *ByteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
