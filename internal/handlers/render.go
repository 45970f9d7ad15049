package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"scrollcast/internal/cutout"
	"scrollcast/internal/encoder"
	"scrollcast/internal/job"
	"scrollcast/internal/logging"
	"scrollcast/internal/media"
	"scrollcast/internal/pipeline"
	"scrollcast/internal/streaming"
)

const (
	defaultDuration = 8.0
	minDuration     = 1.0
	defaultFPS      = 30
	minFPS          = 12

	// maxUploadBytes bounds the multipart form held in memory/disk.
	maxUploadBytes = 64 << 20
)

// Render handles POST /api/render: a page screenshot (required), an
// optional frame image, and animation parameters come in as a multipart
// form; the finished MP4 streams back out. Exactly one response is sent
// per job, or none if the client went away.
func (h *Handlers) Render(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	duration, err := parseDurationParam(r.FormValue("duration"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	fps, err := parseFPSParam(r.FormValue("fps"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pageFile, pageHeader, err := r.FormFile("page")
	if err != nil {
		writeJSONError(w, "page upload is required", http.StatusBadRequest)
		return
	}
	defer pageFile.Close()

	frameFile, frameHeader, err := r.FormFile("frame")
	switch {
	case err == nil:
		defer frameFile.Close()
	case errors.Is(err, http.ErrMissingFile):
		frameFile = nil
	default:
		writeJSONError(w, "invalid frame upload", http.StatusBadRequest)
		return
	}

	jb, err := h.jobs.New()
	if err != nil {
		logging.Error("failed to create job: %v", err)
		writeJSONError(w, "failed to create render job", http.StatusInternalServerError)
		return
	}

	// Client disconnect and the job timeout share one cancellation path:
	// the context expires and the watcher sets the job's flag, which the
	// pipeline polls at phase boundaries.
	ctx, cancelCtx := context.WithTimeout(r.Context(), h.cfg.JobTimeout)
	defer cancelCtx()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			jb.Cancel()
		case <-stop:
		}
	}()

	jb.Start()

	pagePath, err := h.saveUpload(jb, pageFile, pageHeader, "page")
	if err != nil {
		logging.Error("job %s: failed to store page upload: %v", jb.ID, err)
		jb.Fail(h.jobs)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	framePath := h.cfg.DefaultFramePath
	if frameFile != nil {
		framePath, err = h.saveUpload(jb, frameFile, frameHeader, "frame")
		if err != nil {
			logging.Error("job %s: failed to store frame upload: %v", jb.ID, err)
			jb.Fail(h.jobs)
			writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
	} else if _, err := os.Stat(framePath); err != nil {
		logging.Error("job %s: default frame asset unavailable: %v", jb.ID, err)
		jb.Fail(h.jobs)
		writeJSONError(w, "no frame uploaded and no default frame available", http.StatusBadRequest)
		return
	}

	videoPath, err := h.pipe.Run(jb, pipeline.Inputs{
		PagePath:  pagePath,
		FramePath: framePath,
		Duration:  duration,
		FPS:       fps,
	})
	if err != nil {
		h.renderError(w, jb, err)
		return
	}

	// The encode is not preemptible, so a disconnect during it lands
	// here: the video exists but nobody is listening.
	if jb.Canceled() {
		jb.MarkCanceled(h.jobs)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="scrollcast.mp4"`)
	if info, err := os.Stat(videoPath); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	if _, err := streaming.StreamFile(r.Context(), w, videoPath, streaming.DefaultConfig()); err != nil {
		logging.Warn("job %s: response streaming ended early: %v", jb.ID, err)
		jb.MarkCanceled(h.jobs)
		return
	}

	jb.Deliver(h.jobs)
}

// renderError converts a pipeline failure into the terminal transition and
// at most one JSON error response. Canceled jobs send nothing.
func (h *Handlers) renderError(w http.ResponseWriter, jb *job.Job, err error) {
	if errors.Is(err, pipeline.ErrCanceled) || jb.Canceled() {
		jb.MarkCanceled(h.jobs)
		return
	}

	jb.Fail(h.jobs)

	var dimErr *media.DimensionError
	if errors.As(err, &dimErr) {
		writeJSONError(w, dimErr.Error(), http.StatusBadRequest)
		return
	}

	if errors.Is(err, cutout.ErrNoAlphaChannel) || errors.Is(err, cutout.ErrNoCutout) {
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var exitErr *encoder.ExitError
	if errors.As(err, &exitErr) {
		logging.Error("job %s: encode failed (exit %d): %s", jb.ID, exitErr.ExitCode, exitErr.Stderr)
		writeJSONError(w, "video encoding failed", http.StatusInternalServerError)
		return
	}

	logging.Error("job %s: render failed: %v", jb.ID, err)
	writeJSONError(w, "render failed", http.StatusInternalServerError)
}

// saveUpload persists one multipart file into the shared uploads area with
// a job-prefixed name and attaches it to the job for cleanup.
func (h *Handlers) saveUpload(jb *job.Job, src multipart.File, header *multipart.FileHeader, input string) (string, error) {
	uploadsDir, err := h.jobs.UploadsDir()
	if err != nil {
		return "", err
	}

	name := job.DirPrefix + jb.ID + "-" + input + safeExt(header.Filename)
	path := filepath.Join(uploadsDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	jb.AttachUpload(path)

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return "", copyErr
	}
	if closeErr != nil {
		return "", closeErr
	}
	return path, nil
}

// safeExt keeps a known image extension from the uploaded filename.
// Decoding sniffs the real format, so this only affects the stored name.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	default:
		return ".png"
	}
}

func parseDurationParam(v string) (float64, error) {
	if v == "" {
		return defaultDuration, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid duration: %q", v)
	}
	if f < minDuration {
		f = minDuration
	}
	return f, nil
}

func parseFPSParam(v string) (int, error) {
	if v == "" {
		return defaultFPS, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid fps: %q", v)
	}
	if n < minFPS {
		n = minFPS
	}
	return n, nil
}
