package adapter

import (
	"context"

	"deep-research-agent/internal/domain/model"
)

// Usage holds the raw token counters reported by the backend. Absent fields
// map to zero.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
	TotalTokens     int `json:"total_tokens"`
}

// StatusSnapshot is one observation of a remote job. Native keeps the
// backend's own status string for diagnostics; Status is the collapsed form.
type StatusSnapshot struct {
	RemoteID string
	Native   string
	Status   model.NormalizedStatus
	Usage    Usage
}

// StatusEvent is one element of a status stream. Snapshot is non-nil only on
// the terminal completed event.
type StatusEvent struct {
	Status   model.NormalizedStatus
	Snapshot *StatusSnapshot
}

// StatusStream is a cancellable lazy sequence of status events for one remote
// job, produced by repeated timed polling. The channel closes after the
// terminal event or on error; Err reports why a stream ended without one.
type StatusStream interface {
	Events() <-chan StatusEvent
	// Cancel stops scheduling further polls. Idempotent; safe on a closed
	// stream. A cancelled stream emits no further events.
	Cancel()
	Err() error
}

// Result is the normalized terminal payload of a completed remote job.
type Result struct {
	Report         string
	ThoughtProcess string
	Sources        []model.Source
	Usage          Usage
}

// ResearchBackend is the port one wire variant implements. All normalization
// (status collapsing, field omission) is shared above this interface.
type ResearchBackend interface {
	Name() string
	CreateJob(ctx context.Context, cfg *model.ResearchConfig) (remoteID string, err error)
	JobStatus(ctx context.Context, remoteID string) (StatusSnapshot, error)
	JobResult(ctx context.Context, remoteID string) (*Result, error)
}

// ResearchClient is what the use-case layer sees: one semantic contract over
// whichever backend variant is configured.
type ResearchClient interface {
	// Configure must be called before any other operation; operations invoked
	// first fail with domain.ErrNotConfigured.
	Configure(creds model.BackendCredentials) error
	Configured() bool
	// Provider names the active backend variant, "" when unconfigured.
	Provider() string

	// Submit creates the remote job and returns its identifier plus a fresh
	// status stream bound to it.
	Submit(ctx context.Context, cfg *model.ResearchConfig) (remoteID string, stream StatusStream, err error)

	// FetchResult retrieves the full terminal payload. Fails with
	// domain.ErrResultUnavailable while the remote job is not yet terminal.
	FetchResult(ctx context.Context, remoteID string) (*Result, error)

	// ResumeStream rebuilds a status stream for an already-submitted job,
	// used after a restart when only the persisted RemoteID survived.
	ResumeStream(remoteID string) (StatusStream, error)
}

// JobObserver receives every job mutation plus running heartbeats. The web
// layer implements it to push updates to subscribed browsers.
type JobObserver interface {
	JobUpdated(job *model.ResearchJob)
	JobProgress(jobID string, status model.NormalizedStatus)
}
