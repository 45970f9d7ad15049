package render

import (
	"sync"

	"scrollcast/internal/logging"
)

// DefaultBatchSize is the number of frames synthesized concurrently in one
// window. Windowing bounds peak memory and open file descriptors per job.
const DefaultBatchSize = 4

// Token is the cooperative cancellation flag checked between batches.
type Token interface {
	Canceled() bool
}

// RenderAll generates the full frame sequence in consecutive windows of
// batchSize concurrent synthesis calls. Each window is joined completely
// before the next starts. If the token reports cancellation between
// windows RenderAll returns early with a nil error; cleanup of any frames
// already written is the caller's responsibility. Any synthesis failure
// aborts the run after its window drains.
func (s *Synthesizer) RenderAll(token Token, batchSize int) error {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	total := s.params.TotalFrames
	for start := 0; start < total; start += batchSize {
		if token != nil && token.Canceled() {
			logging.Debug("frame batch canceled at frame %d/%d", start, total)
			return nil
		}

		end := start + batchSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		errCh := make(chan error, end-start)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				if err := s.RenderFrame(idx); err != nil {
					errCh <- err
				}
			}(i)
		}
		wg.Wait()
		close(errCh)

		// Fail fast on the first error from the window; a partial frame
		// set never reaches the encoder.
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}
