// Package handlers implements the HTTP control surface: the camera image
// endpoint, slideshow commands, settings, status, and health checks.
package handlers
