// Package startup handles configuration loading, environment checks, and
// the structured startup/shutdown logging for the service.
package startup
