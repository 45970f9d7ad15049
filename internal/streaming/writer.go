package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"scrollcast/internal/logging"
)

var (
	// ErrWriteTimeout indicates a single write exceeded the configured
	// timeout, typically a client receiving too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client disconnected before the stream
	// completed, detected via the request context.
	ErrClientGone = errors.New("client disconnected")
)

// Config controls chunked response streaming.
type Config struct {
	// WriteTimeout bounds each individual write.
	WriteTimeout time.Duration
	// ChunkSize splits the stream so cancellation is noticed promptly.
	ChunkSize int
}

// DefaultConfig returns defaults tuned for video delivery.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    256 * 1024,
	}
}

// StreamFile streams the file at path to w in chunks, checking ctx between
// chunks and bounding each write. Returns the number of bytes written.
func StreamFile(ctx context.Context, w http.ResponseWriter, path string, cfg Config) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close streamed file %s: %v", path, err)
		}
	}()

	return Stream(ctx, w, file, cfg)
}

// Stream copies r to w in chunks with per-write timeouts and context
// cancellation checks. The response is flushed after every chunk so the
// client sees steady progress.
func Stream(ctx context.Context, w http.ResponseWriter, r io.Reader, cfg Config) (int64, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, cfg.ChunkSize)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ErrClientGone
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			wn, writeErr := writeWithTimeout(w, buf[:n], cfg.WriteTimeout)
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// writeWithTimeout performs one write in a goroutine and abandons it when
// the timeout elapses. The abandoned write finishes or errors on its own
// once the handler returns and the connection closes.
func writeWithTimeout(w io.Writer, p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		return w.Write(p)
	}

	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)

	go func() {
		n, err := w.Write(p)
		ch <- result{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.n, res.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}
