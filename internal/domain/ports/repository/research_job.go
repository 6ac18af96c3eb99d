package repository

import (
	"context"

	"deep-research-agent/internal/domain/model"
)

// ResearchJobRepository is the persisted job store. Implementations must make
// Save atomic per job id: a reader never observes a partially-written result.
type ResearchJobRepository interface {
	Save(ctx context.Context, job *model.ResearchJob) error
	FindByID(ctx context.Context, id string) (*model.ResearchJob, error)
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*model.ResearchJob, error)
	// FindByStatus returns jobs currently in the given status.
	FindByStatus(ctx context.Context, status model.JobStatus) ([]*model.ResearchJob, error)
	Delete(ctx context.Context, id string) error
}
