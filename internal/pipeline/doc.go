// Package pipeline orchestrates one render job end to end: input
// validation, cutout detection, page resizing, batched frame synthesis,
// and video encoding, with cooperative cancellation checks between phases.
package pipeline
