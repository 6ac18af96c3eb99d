package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.ResearchJobRepository = (*researchJobRepo)(nil)

// researchJobRepo persists jobs in Postgres for deployments that want
// durable history beyond Redis. Result and cost live in jsonb columns and
// are written together with the status in one upsert, keeping terminal
// writes atomic.
type researchJobRepo struct {
	pool *pgxpool.Pool
}

func NewResearchJobRepo(pool *pgxpool.Pool) *researchJobRepo {
	return &researchJobRepo{pool: pool}
}

func (r *researchJobRepo) Save(ctx context.Context, job *model.ResearchJob) error {
	cfg, err := json.Marshal(&job.Config)
	if err != nil {
		return err
	}
	var result, cost []byte
	if job.Result != nil {
		if result, err = json.Marshal(job.Result); err != nil {
			return err
		}
	}
	if job.Cost != nil {
		if cost, err = json.Marshal(job.Cost); err != nil {
			return err
		}
	}

	const q = `
INSERT INTO research_jobs (id, title, status, remote_id, last_error, config, result, cost, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  remote_id = EXCLUDED.remote_id,
  last_error = EXCLUDED.last_error,
  result = EXCLUDED.result,
  cost = EXCLUDED.cost,
  completed_at = EXCLUDED.completed_at;`

	_, err = r.pool.Exec(ctx, q,
		job.ID, job.Title, string(job.Status), job.RemoteID, job.LastError,
		cfg, result, cost, job.CreatedAt, job.CompletedAt)
	return err
}

const selectColumns = `id, title, status, remote_id, last_error, config, result, cost, created_at, completed_at`

func (r *researchJobRepo) FindByID(ctx context.Context, id string) (*model.ResearchJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM research_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *researchJobRepo) List(ctx context.Context) ([]*model.ResearchJob, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM research_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *researchJobRepo) FindByStatus(ctx context.Context, status model.JobStatus) ([]*model.ResearchJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM research_jobs WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *researchJobRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM research_jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*model.ResearchJob, error) {
	var (
		job               model.ResearchJob
		status            string
		cfg, result, cost []byte
		completedAt       *time.Time
	)
	err := row.Scan(&job.ID, &job.Title, &status, &job.RemoteID, &job.LastError,
		&cfg, &result, &cost, &job.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	job.CompletedAt = completedAt
	if err := json.Unmarshal(cfg, &job.Config); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		job.Result = &model.ResearchResult{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, err
		}
	}
	if len(cost) > 0 {
		job.Cost = &model.CostSummary{}
		if err := json.Unmarshal(cost, job.Cost); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]*model.ResearchJob, error) {
	var jobs []*model.ResearchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
