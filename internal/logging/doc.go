// Package logging provides leveled logging for the slideshow service,
// configured through the DEBUG and LOG_LEVEL environment variables.
package logging
