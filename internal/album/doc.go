// Package album enumerates photo albums from a local folder tree or a
// publicly shared remote album, and keeps the current snapshot fresh on a
// configurable interval.
package album
