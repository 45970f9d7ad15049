// Package workers sizes the per-job frame-synthesis concurrency window
// based on available CPUs and environment overrides.
package workers
