// Package streaming delivers finished videos over HTTP with chunked,
// timeout-protected writes so slow or vanished clients cannot hold a
// handler open indefinitely.
package streaming
