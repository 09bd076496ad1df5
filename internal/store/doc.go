// Package store holds the mutable slideshow settings, their synchronous
// change-listener list, and their SQLite persistence.
package store
