package model

import (
	"errors"
	"testing"

	"deep-research-agent/internal/domain"
)

func validConfig() ResearchConfig {
	return ResearchConfig{
		UserPrompt:      "survey the state of solid-state batteries",
		Model:           "o3-deep-research",
		MaxOutputTokens: 4096,
		Tools:           []ResearchTool{{Type: ToolWebSearch}},
	}
}

func TestJobLifecycleForwardOnly(t *testing.T) {
	job := NewResearchJob("01J0000000000000000000TEST", "batteries", validConfig())
	if job.Status != JobStatusPending {
		t.Fatalf("new job status = %s, want pending", job.Status)
	}

	if err := job.MarkRunning("resp-123"); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if job.Status != JobStatusRunning || job.RemoteID != "resp-123" {
		t.Fatalf("after MarkRunning: status=%s remote=%s", job.Status, job.RemoteID)
	}

	// remote id is immutable once set
	if err := job.MarkRunning("resp-456"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second MarkRunning = %v, want ErrInvalidTransition", err)
	}
	if job.RemoteID != "resp-123" {
		t.Fatalf("remote id changed to %s", job.RemoteID)
	}

	result := &ResearchResult{Report: "# Findings"}
	if err := job.Complete(result, &CostSummary{InputTokens: 10, OutputTokens: 20}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if job.Status != JobStatusCompleted || job.CompletedAt == nil {
		t.Fatalf("after Complete: status=%s completedAt=%v", job.Status, job.CompletedAt)
	}

	// result is write-once; a completed job accepts no further transitions
	if err := job.Complete(result, nil); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second Complete = %v, want ErrInvalidTransition", err)
	}
	if err := job.Fail("late failure"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Fail after Complete = %v, want ErrInvalidTransition", err)
	}
	if job.LastError != "" {
		t.Fatalf("completed job picked up error %q", job.LastError)
	}
}

func TestMarkRunningRequiresPendingAndRemoteID(t *testing.T) {
	job := NewResearchJob("id", "t", validConfig())
	if err := job.MarkRunning(""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty remote id = %v, want ErrInvalidArgument", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("failed MarkRunning mutated status to %s", job.Status)
	}
}

func TestCompleteRequiresRunning(t *testing.T) {
	job := NewResearchJob("id", "t", validConfig())
	err := job.Complete(&ResearchResult{Report: "r"}, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Complete from pending = %v, want ErrInvalidTransition", err)
	}
}

func TestFailFromPendingAndRunning(t *testing.T) {
	job := NewResearchJob("id", "t", validConfig())
	if err := job.Fail("submit rejected"); err != nil {
		t.Fatalf("Fail from pending: %v", err)
	}
	if job.Status != JobStatusError || job.LastError != "submit rejected" {
		t.Fatalf("got status=%s err=%q", job.Status, job.LastError)
	}

	job2 := NewResearchJob("id2", "t", validConfig())
	_ = job2.MarkRunning("resp-1")
	if err := job2.Fail("backend says no"); err != nil {
		t.Fatalf("Fail from running: %v", err)
	}
	if job2.RemoteID != "resp-1" {
		t.Fatal("failure cleared the remote id; retry diagnostics need it")
	}
}

func TestResetForRetry(t *testing.T) {
	job := NewResearchJob("id", "t", validConfig())
	_ = job.MarkRunning("resp-old")
	_ = job.Fail("boom")

	if err := job.ResetForRetry(); err != nil {
		t.Fatalf("ResetForRetry: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.RemoteID != "" || job.LastError != "" || job.CompletedAt != nil {
		t.Fatalf("retry kept stale state: remote=%q err=%q", job.RemoteID, job.LastError)
	}

	// a fresh submission cycle is now legal
	if err := job.MarkRunning("resp-new"); err != nil {
		t.Fatalf("MarkRunning after retry: %v", err)
	}
}

func TestResetForRetryOnlyFromError(t *testing.T) {
	job := NewResearchJob("id", "t", validConfig())
	if err := job.ResetForRetry(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ResetForRetry from pending = %v, want ErrInvalidTransition", err)
	}
	_ = job.MarkRunning("resp-1")
	if err := job.ResetForRetry(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ResetForRetry from running = %v, want ErrInvalidTransition", err)
	}
}

func TestNormalizedStatusTerminal(t *testing.T) {
	if StatusRunning.Terminal() {
		t.Fatal("running must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatal("completed and failed must be terminal")
	}
}
