// Package middleware provides HTTP request logging and Prometheus metrics
// middleware for the slideshow service.
package middleware
