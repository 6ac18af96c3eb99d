package model

import (
	"time"

	"deep-research-agent/internal/domain"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// NormalizedStatus is the three-value vocabulary used internally for remote
// job state, independent of whatever strings the backend reports.
type NormalizedStatus string

const (
	StatusRunning   NormalizedStatus = "running"
	StatusCompleted NormalizedStatus = "completed"
	StatusFailed    NormalizedStatus = "failed"
)

// Terminal reports whether no further polling should happen for this status.
func (s NormalizedStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ResearchJob is the persisted unit of work for one deep-research request.
// It transitions forward only: pending -> running -> {completed | error}.
// RemoteID is set exactly once, Result is written at most once.
type ResearchJob struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Config      ResearchConfig  `json:"config"`
	Status      JobStatus       `json:"status"`
	RemoteID    string          `json:"remote_id,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      *ResearchResult `json:"result,omitempty"`
	Cost        *CostSummary    `json:"cost,omitempty"`
}

func NewResearchJob(id, title string, cfg ResearchConfig) *ResearchJob {
	return &ResearchJob{
		ID:        id,
		Title:     title,
		Config:    cfg,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// MarkRunning attaches the backend-assigned identifier and moves the job to
// running. Only valid from pending; RemoteID never changes once set.
func (j *ResearchJob) MarkRunning(remoteID string) error {
	if j.Status != JobStatusPending {
		return domain.ErrInvalidTransition
	}
	if remoteID == "" {
		return domain.ErrInvalidArgument
	}
	j.Status = JobStatusRunning
	j.RemoteID = remoteID
	return nil
}

// Complete writes the terminal result atomically. Only valid from running,
// and only once.
func (j *ResearchJob) Complete(result *ResearchResult, cost *CostSummary) error {
	if j.Status != JobStatusRunning || j.Result != nil {
		return domain.ErrInvalidTransition
	}
	if result == nil {
		return domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	j.Result = result
	j.Cost = cost
	j.CompletedAt = &now
	j.Status = JobStatusCompleted
	return nil
}

// Fail records a terminal failure. Result is left untouched.
func (j *ResearchJob) Fail(reason string) error {
	if j.Status == JobStatusCompleted || j.Status == JobStatusError {
		return domain.ErrInvalidTransition
	}
	j.Status = JobStatusError
	j.LastError = reason
	return nil
}

// ResetForRetry moves a failed job back to pending so a fresh submission
// cycle can begin. The old remote job is never resumed: RemoteID is cleared.
func (j *ResearchJob) ResetForRetry() error {
	if j.Status != JobStatusError {
		return domain.ErrInvalidTransition
	}
	j.Status = JobStatusPending
	j.RemoteID = ""
	j.LastError = ""
	j.CompletedAt = nil
	return nil
}

// ResearchResult holds the normalized terminal payload of a completed job.
type ResearchResult struct {
	Report         string   `json:"report"`
	ThoughtProcess string   `json:"thought_process,omitempty"`
	Sources        []Source `json:"sources,omitempty"`
}

// Source is one cited reference extracted from the report annotations.
type Source struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Snippet string    `json:"snippet,omitempty"`
	CitedAt time.Time `json:"cited_at"`
}

// CostSummary is the usage/cost attached at completion.
type CostSummary struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}
