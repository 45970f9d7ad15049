// Package cutout detects the transparent screen region inside a decorative
// frame image (for example a phone bezel) by scanning its alpha channel.
// Both plain rectangular punch-outs and rounded-corner cutouts are
// supported; the detected region is always an even-dimensioned rectangle.
package cutout
