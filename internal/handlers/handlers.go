package handlers

import (
	"time"

	"scrollcast/internal/job"
	"scrollcast/internal/pipeline"
	"scrollcast/internal/startup"
)

// Handlers carries the shared dependencies for all HTTP handlers.
type Handlers struct {
	cfg       *startup.Config
	jobs      *job.Manager
	pipe      *pipeline.Pipeline
	startTime time.Time
}

// New builds the handler set from the loaded configuration.
func New(cfg *startup.Config) *Handlers {
	return &Handlers{
		cfg:       cfg,
		jobs:      job.NewManager(cfg.WorkDir),
		pipe:      pipeline.New(cfg.MaxDimension, cfg.BatchSize),
		startTime: time.Now(),
	}
}

// Jobs exposes the job manager, mainly for shutdown accounting.
func (h *Handlers) Jobs() *job.Manager {
	return h.jobs
}
