// Package metrics defines the Prometheus metric families exported by the
// slideshow service.
package metrics
