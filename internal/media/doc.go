// Package media provides image decoding, dimension probing, and input
// validation shared by the rendering pipeline, including an optional
// libvips fast path for page resizing.
package media
