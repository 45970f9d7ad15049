// Package encoder wraps the external ffmpeg process that turns a rendered
// frame sequence into the final MP4.
package encoder
