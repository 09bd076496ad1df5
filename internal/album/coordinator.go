package album

import (
	"context"
	"sync"
	"time"

	"album-slideshow/internal/logging"
	"album-slideshow/internal/metrics"
	"album-slideshow/internal/store"
)

// Coordinator owns the current album View and refreshes it on the interval
// configured in settings. A failed refresh keeps the previous view; the
// engine only sees "no media" when there has never been a successful
// refresh.
type Coordinator struct {
	provider Provider
	settings *store.Settings

	mu          sync.RWMutex
	view        *View
	lastErr     error
	lastRefresh time.Time

	refreshNow chan struct{}
	rearm      chan struct{}
}

// NewCoordinator wires a coordinator to its provider and settings. A
// settings listener re-arms the refresh timer so interval changes take
// effect without waiting out the old interval.
func NewCoordinator(provider Provider, settings *store.Settings) *Coordinator {
	c := &Coordinator{
		provider:   provider,
		settings:   settings,
		refreshNow: make(chan struct{}, 1),
		rearm:      make(chan struct{}, 1),
	}

	settings.AddListener(func() {
		select {
		case c.rearm <- struct{}{}:
		default:
		}
	})

	return c
}

// Start performs the initial refresh and then runs the periodic refresh
// loop until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		logging.Error("Initial album refresh failed: %v", err)
	}

	timer := time.NewTimer(c.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := c.Refresh(ctx); err != nil {
				logging.Error("Scheduled album refresh failed: %v", err)
			}
			timer.Reset(c.interval())
		case <-c.rearm:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.interval())
		case <-c.refreshNow:
			if err := c.Refresh(ctx); err != nil {
				logging.Error("Requested album refresh failed: %v", err)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.interval())
		}
	}
}

func (c *Coordinator) interval() time.Duration {
	return time.Duration(c.settings.RefreshHours()) * time.Hour
}

// Refresh re-enumerates the album synchronously.
func (c *Coordinator) Refresh(ctx context.Context) error {
	start := time.Now()
	view, err := c.provider.Refresh(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AlbumRefreshesTotal.WithLabelValues(c.provider.Name(), status).Inc()
	metrics.AlbumRefreshDuration.WithLabelValues(c.provider.Name()).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err
		return err
	}

	c.view = view
	c.lastErr = nil
	c.lastRefresh = time.Now()
	metrics.AlbumItems.Set(float64(len(view.Items)))
	logging.Info("Album %q refreshed: %d photos", view.Title, len(view.Items))
	return nil
}

// RequestRefresh asks the refresh loop to re-enumerate soon without
// blocking the caller. Used by the folder watcher.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshNow <- struct{}{}:
	default:
	}
}

// Current returns the last successful view, or nil when no refresh has
// ever succeeded.
func (c *Coordinator) Current() *View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// LastError returns the error from the most recent refresh attempt, nil
// after a success.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastRefresh returns the time of the most recent successful refresh.
func (c *Coordinator) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// ProviderName returns the provider kind for status output.
func (c *Coordinator) ProviderName() string {
	return c.provider.Name()
}
