package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"scrollcast/internal/cutout"
	"scrollcast/internal/encoder"
	"scrollcast/internal/job"
	"scrollcast/internal/logging"
	"scrollcast/internal/media"
	"scrollcast/internal/metrics"
	"scrollcast/internal/render"
)

// ErrCanceled is returned when the job's cancellation flag was set at a
// phase boundary. No response is sent for a canceled job.
var ErrCanceled = errors.New("job canceled")

// OutputFilename is the video file written into the job directory.
const OutputFilename = "scrollcast.mp4"

// Inputs are the validated upload paths and animation parameters for one
// render job. Transport-level validation already happened; only the
// decoded values are checked here.
type Inputs struct {
	PagePath  string
	FramePath string
	Duration  float64
	FPS       int
}

// Pipeline runs the full render sequence for a job: validate inputs,
// detect the cutout, resize the page, synthesize the frame set in batches,
// and encode the video. Cancellation is polled at every phase boundary;
// once the encoder starts the job runs to completion.
type Pipeline struct {
	maxDimension int
	batchSize    int
	enc          *encoder.Encoder
}

// New builds a Pipeline. maxDimension bounds input image dimensions and
// batchSize is the frame-synthesis window.
func New(maxDimension, batchSize int) *Pipeline {
	return &Pipeline{
		maxDimension: maxDimension,
		batchSize:    batchSize,
		enc:          encoder.New(),
	}
}

// Run executes the pipeline for one job and returns the path of the
// finished video inside the job's working directory. The caller owns the
// terminal transition and cleanup regardless of the outcome.
func (p *Pipeline) Run(j *job.Job, in Inputs) (string, error) {
	if _, err := media.CheckDimensions(in.PagePath, "page", p.maxDimension); err != nil {
		return "", err
	}
	if _, err := media.CheckDimensions(in.FramePath, "frame", p.maxDimension); err != nil {
		return "", err
	}

	// Detect the cutout on the natively-decoded frame so a missing alpha
	// channel is observable.
	start := time.Now()
	frameNative, err := media.DecodeFile(in.FramePath)
	if err != nil {
		return "", fmt.Errorf("failed to decode frame image: %w", err)
	}
	cut, err := cutout.Detect(frameNative)
	metrics.PhaseDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	logging.Info("job %s: cutout (%d,%d) %dx%d", j.ID, cut.X, cut.Y, cut.Width, cut.Height)

	if j.Canceled() {
		return "", ErrCanceled
	}

	start = time.Now()
	pagePath, err := render.ResizePage(in.PagePath, filepath.Join(j.Dir, "page.png"), cut.Width)
	metrics.PhaseDuration.WithLabelValues("resize").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	if j.Canceled() {
		return "", ErrCanceled
	}

	pageImg, err := media.OpenImage(pagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open resized page: %w", err)
	}
	frameImg, err := media.OpenImage(in.FramePath)
	if err != nil {
		return "", fmt.Errorf("failed to open frame image: %w", err)
	}

	params := render.NewParams(in.Duration, in.FPS, pageImg.Bounds().Dy(), cut.Height)
	logging.Info("job %s: %d frames, scroll range %dpx", j.ID, params.TotalFrames, params.ScrollRange)

	start = time.Now()
	synth := render.NewSynthesizer(pageImg, frameImg, cut, params, j.Dir)
	err = synth.RenderAll(j, p.batchSize)
	metrics.PhaseDuration.WithLabelValues("synthesize").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	// RenderAll returns early without error when canceled mid-sequence;
	// the frame set must be complete before the encoder runs.
	if j.Canceled() {
		return "", ErrCanceled
	}
	metrics.FramesRenderedTotal.Add(float64(params.TotalFrames))

	start = time.Now()
	outPath := filepath.Join(j.Dir, OutputFilename)
	err = p.enc.Encode(render.FramePattern(j.Dir), outPath, in.FPS)
	metrics.PhaseDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	return outPath, nil
}
