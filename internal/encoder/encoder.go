package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"scrollcast/internal/logging"
	"scrollcast/internal/metrics"
)

// maxStderr bounds how much encoder output is carried into an error.
const maxStderr = 4096

// ExitError reports a failed encoder invocation: a non-zero exit or a
// spawn failure (exit code -1).
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Encoder invokes ffmpeg over a numbered frame sequence. A single,
// synchronous attempt per job; there is no retry and no partial output.
type Encoder struct {
	ffmpegPath string
}

// New returns an Encoder using ffmpeg from PATH.
func New() *Encoder {
	return &Encoder{ffmpegPath: "ffmpeg"}
}

// Available reports whether ffmpeg can be found. Used by startup checks
// and the readiness probe.
func Available() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	return nil
}

// BuildArgs returns the deterministic ffmpeg argument list for encoding
// the frame sequence at framePattern into an H.264 MP4: overwrite output,
// input and output framerate pinned to fps, yuv420p for broad decoder
// compatibility, faststart layout for streaming delivery.
func BuildArgs(framePattern, outPath string, fps int) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-start_number", "0",
		"-i", framePattern,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-r", strconv.Itoa(fps),
		outPath,
	}
}

// Encode runs ffmpeg over the frame sequence and waits for it to finish.
// The process is deliberately started without a context: once an encode is
// in flight it is never preempted, so cancellation and the job timeout
// only apply up to this point.
func (e *Encoder) Encode(framePattern, outPath string, fps int) error {
	args := BuildArgs(framePattern, outPath, fps)
	logging.Debug("encoding: %s %v", e.ffmpegPath, args)

	cmd := exec.Command(e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.EncodeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EncodeFailuresTotal.Inc()
		var xerr *exec.ExitError
		if errors.As(err, &xerr) {
			return &ExitError{ExitCode: xerr.ExitCode(), Stderr: tail(stderr.String())}
		}
		return &ExitError{ExitCode: -1, Stderr: err.Error()}
	}

	logging.Debug("encoded %s in %v", outPath, time.Since(start))
	return nil
}

// tail keeps the end of the encoder output, where ffmpeg puts the reason
// it failed.
func tail(s string) string {
	if len(s) > maxStderr {
		return s[len(s)-maxStderr:]
	}
	return s
}
