package workers

import (
	"os"
	"runtime"
	"strconv"
)

// BatchSize returns the frame-synthesis window size for one job. Frame
// compositing is CPU-bound, so the window is never allowed to exceed the
// CPUs actually available (GOMAXPROCS reflects container limits on
// Go 1.19+). The FRAME_BATCH_SIZE environment variable overrides the
// default but is still capped.
func BatchSize(defaultSize int) int {
	size := defaultSize
	if override := os.Getenv("FRAME_BATCH_SIZE"); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			size = n
		}
	}

	if size < 1 {
		size = 1
	}
	if cpus := runtime.GOMAXPROCS(0); size > cpus && cpus >= 1 {
		// Jobs run concurrently with each other; oversizing the
		// per-job window just thrashes the scheduler.
		size = cpus
	}
	return size
}
