package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"scrollcast/internal/logging"
	"scrollcast/internal/metrics"

	"github.com/google/uuid"
)

// DirPrefix marks working directories owned by render jobs. The supervisor
// sweep only ever touches paths carrying this prefix.
const DirPrefix = "job-"

// UploadsDirName is the subdirectory of the work root holding uploaded
// inputs before they are consumed by a job.
const UploadsDirName = "uploads"

// State is a job lifecycle state. CREATED and PROCESSING are transient;
// the rest are terminal and trigger cleanup exactly once.
type State int32

const (
	// StateCreated is the initial state at request start.
	StateCreated State = iota
	// StateProcessing covers the whole pipeline run.
	StateProcessing
	// StateDelivered means the video was streamed to the client.
	StateDelivered
	// StateFailed means a pipeline phase returned an error.
	StateFailed
	// StateCanceled means the client disconnected or the timeout elapsed.
	StateCanceled
)

// Terminal reports whether the state ends the job.
func (s State) Terminal() bool { return s >= StateDelivered }

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateProcessing:
		return "processing"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Job is one request's unit of work. It exclusively owns its working
// directory and the uploaded input files attached to it; no file is ever
// shared between jobs, so the only synchronization it needs is the state
// mutex and the cancellation flag.
type Job struct {
	ID  string
	Dir string

	createdAt time.Time
	canceled  atomic.Bool
	cleanup   sync.Once

	mu      sync.Mutex
	state   State
	uploads []string
}

// Manager creates jobs under a common work root, one directory per job.
type Manager struct {
	root   string
	active atomic.Int64
}

// NewManager returns a Manager rooted at dir.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the work root directory.
func (m *Manager) Root() string { return m.root }

// Active returns the number of jobs currently in flight.
func (m *Manager) Active() int64 { return m.active.Load() }

// UploadsDir returns the directory for pending uploads, creating it if
// needed.
func (m *Manager) UploadsDir() (string, error) {
	dir := filepath.Join(m.root, UploadsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return dir, nil
}

// New creates a job with a collision-resistant identifier and its private
// working directory.
func (m *Manager) New() (*Job, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, DirPrefix+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	m.active.Add(1)
	metrics.JobsActive.Inc()
	logging.Debug("job %s: created %s", id, dir)

	return &Job{
		ID:        id,
		Dir:       dir,
		createdAt: time.Now(),
		state:     StateCreated,
	}, nil
}

// AttachUpload records an uploaded file the job owns, so cleanup can
// unlink it on any terminal transition.
func (j *Job) AttachUpload(path string) {
	j.mu.Lock()
	j.uploads = append(j.uploads, path)
	j.mu.Unlock()
}

// Cancel sets the cooperative cancellation flag. Pipeline phases poll it
// at their boundaries; nothing is interrupted preemptively.
func (j *Job) Cancel() {
	j.canceled.Store(true)
}

// Canceled reports whether cancellation was requested.
func (j *Job) Canceled() bool {
	return j.canceled.Load()
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Start moves the job into PROCESSING.
func (j *Job) Start() {
	j.mu.Lock()
	if j.state == StateCreated {
		j.state = StateProcessing
	}
	j.mu.Unlock()
}

// Deliver, Fail, and MarkCanceled are the terminal transitions. The first
// one wins; later calls are no-ops. Every terminal transition triggers
// cleanup exactly once.

// Deliver marks the job delivered after the response was streamed.
func (j *Job) Deliver(m *Manager) { j.finish(m, StateDelivered) }

// Fail marks the job failed after a pipeline error.
func (j *Job) Fail(m *Manager) { j.finish(m, StateFailed) }

// MarkCanceled marks the job canceled after a disconnect or timeout.
func (j *Job) MarkCanceled(m *Manager) { j.finish(m, StateCanceled) }

func (j *Job) finish(m *Manager, s State) {
	j.mu.Lock()
	if j.state.Terminal() {
		j.mu.Unlock()
		return
	}
	j.state = s
	j.mu.Unlock()

	m.active.Add(-1)
	metrics.JobsActive.Dec()
	metrics.JobsTotal.WithLabelValues(s.String()).Inc()
	metrics.JobDuration.Observe(time.Since(j.createdAt).Seconds())
	logging.Info("job %s: %s after %v", j.ID, s, time.Since(j.createdAt).Round(time.Millisecond))

	j.Cleanup()
}

// Cleanup removes the working directory and unlinks the uploaded inputs.
// It runs at most once, swallows every error after logging it, and never
// blocks an in-flight response on its success: release never fails the
// caller.
func (j *Job) Cleanup() {
	j.cleanup.Do(func() {
		if err := os.RemoveAll(j.Dir); err != nil {
			logging.Warn("job %s: failed to remove working directory %s: %v", j.ID, j.Dir, err)
			metrics.CleanupFailuresTotal.Inc()
		}

		j.mu.Lock()
		uploads := j.uploads
		j.mu.Unlock()

		for _, path := range uploads {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logging.Warn("job %s: failed to remove upload %s: %v", j.ID, path, err)
				metrics.CleanupFailuresTotal.Inc()
			}
		}
		logging.Debug("job %s: cleanup complete", j.ID)
	})
}
