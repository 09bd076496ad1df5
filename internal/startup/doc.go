// Package startup handles environment-based configuration, directory
// validation, and structured startup/shutdown logging.
package startup
