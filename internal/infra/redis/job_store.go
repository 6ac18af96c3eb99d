package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/repository"
)

var _ repository.ResearchJobRepository = (*JobStore)(nil)

const jobIndexKey = "research_jobs:index"

// JobStore keeps research jobs in Redis, one JSON value per job id plus an
// index set. A Save replaces the whole value in one SET, so readers never
// observe a partially-written result.
type JobStore struct {
	client RedisClient
}

func NewJobStore(client RedisClient) *JobStore {
	return &JobStore{client: client}
}

func (s *JobStore) jobKey(id string) string {
	return fmt.Sprintf("research_job:%s", id)
}

func (s *JobStore) Save(ctx context.Context, job *model.ResearchJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.jobKey(job.ID), data, 0); err != nil {
		return err
	}
	return s.client.SAdd(ctx, jobIndexKey, job.ID)
}

func (s *JobStore) FindByID(ctx context.Context, id string) (*model.ResearchJob, error) {
	data, err := s.client.Get(ctx, s.jobKey(id))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.ResearchJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context) ([]*model.ResearchJob, error) {
	ids, err := s.client.SMembers(ctx, jobIndexKey)
	if err != nil {
		return nil, err
	}
	jobs := make([]*model.ResearchJob, 0, len(ids))
	for _, id := range ids {
		job, err := s.FindByID(ctx, id)
		if err != nil {
			if err == domain.ErrNotFound {
				continue // index entry outlived its value
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	// ULIDs sort by creation time; newest first.
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID > jobs[j].ID })
	return jobs, nil
}

func (s *JobStore) FindByStatus(ctx context.Context, status model.JobStatus) ([]*model.ResearchJob, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matching := make([]*model.ResearchJob, 0, len(all))
	for _, job := range all {
		if job.Status == status {
			matching = append(matching, job)
		}
	}
	return matching, nil
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.jobKey(id)); err != nil {
		return err
	}
	return s.client.SRem(ctx, jobIndexKey, id)
}
