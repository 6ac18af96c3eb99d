package research

import (
	"context"
	"fmt"
	"sync"

	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
)

var _ adapter.ResearchBackend = (*NoopBackend)(nil)

// NoopBackend implements adapter.ResearchBackend for local/dev runs without
// an API key. Each job reports in_progress for a few polls, then completes
// with a canned report.
type NoopBackend struct {
	mu      sync.Mutex
	seq     int
	polls   map[string]int
	pollsTo int
}

// NewNoopBackend constructs the noop backend; pollsToComplete sets how many
// status checks a job survives before completing.
func NewNoopBackend(pollsToComplete int) *NoopBackend {
	if pollsToComplete <= 0 {
		pollsToComplete = 3
	}
	return &NoopBackend{polls: make(map[string]int), pollsTo: pollsToComplete}
}

func (b *NoopBackend) Name() string { return "noop" }

func (b *NoopBackend) CreateJob(ctx context.Context, cfg *model.ResearchConfig) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := fmt.Sprintf("noop-resp-%d", b.seq)
	b.polls[id] = 0
	return id, nil
}

func (b *NoopBackend) JobStatus(ctx context.Context, remoteID string) (adapter.StatusSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls[remoteID]++
	native := "in_progress"
	if b.polls[remoteID] >= b.pollsTo {
		native = "completed"
	}
	return adapter.StatusSnapshot{
		RemoteID: remoteID,
		Native:   native,
		Status:   NormalizeStatus(native),
		Usage:    adapter.Usage{InputTokens: 12, OutputTokens: 34, TotalTokens: 46},
	}, nil
}

func (b *NoopBackend) JobResult(ctx context.Context, remoteID string) (*adapter.Result, error) {
	return &adapter.Result{
		Report: "This is a noop research report.",
		Usage:  adapter.Usage{InputTokens: 12, OutputTokens: 34, TotalTokens: 46},
	}, nil
}
