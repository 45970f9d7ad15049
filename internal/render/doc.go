// Package render turns a page screenshot and a frame image into the
// animation frame sequence: it resizes the page to the cutout width,
// computes per-frame scroll offsets, and composites the visible page slice
// into the frame in bounded concurrent batches.
package render
