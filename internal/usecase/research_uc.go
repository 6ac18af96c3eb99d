// File: internal/usecase/research_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
	"deep-research-agent/internal/domain/ports/repository"
	"deep-research-agent/internal/infra/logging"
	"deep-research-agent/internal/infra/metrics"
	"deep-research-agent/internal/infra/worker"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ResearchUseCase = (*researchUC)(nil)

// ResearchUseCase owns the authoritative mutable state for all research jobs
// and applies polling-engine events to it under a single-writer discipline
// per job id.
type ResearchUseCase interface {
	Create(ctx context.Context, title string, cfg model.ResearchConfig) (*model.ResearchJob, error)
	// Start submits a pending job to the backend and begins consuming its
	// status stream.
	Start(ctx context.Context, id string) (*model.ResearchJob, error)
	// Resume re-attaches a status stream to a persisted running job without
	// resubmitting it.
	Resume(ctx context.Context, id string) error
	// ResumeAll resumes every running job that has a remote id but no active
	// stream. Returns how many streams were attached.
	ResumeAll(ctx context.Context) (int, error)
	// Retry resets a failed job to pending and starts a fresh submission
	// cycle. The old remote job is never resumed.
	Retry(ctx context.Context, id string) (*model.ResearchJob, error)
	// Cancel stops the active stream for a job, if any. The record itself is
	// never mutated by cancellation.
	Cancel(id string) bool
	Get(ctx context.Context, id string) (*model.ResearchJob, error)
	List(ctx context.Context) ([]*model.ResearchJob, error)
	// Delete removes a job from history, stopping its stream first.
	Delete(ctx context.Context, id string) error
}

type researchUC struct {
	jobs     repository.ResearchJobRepository
	client   adapter.ResearchClient
	pool     *worker.Pool
	observer adapter.JobObserver
	log      *zerolog.Logger

	mu      sync.Mutex
	streams map[string]adapter.StatusStream
}

func NewResearchUseCase(
	jobs repository.ResearchJobRepository,
	client adapter.ResearchClient,
	pool *worker.Pool,
	observer adapter.JobObserver,
	logger *zerolog.Logger,
) *researchUC {
	ucLog := logger.With().Str("component", "ResearchUC").Logger()
	if observer == nil {
		observer = noopObserver{}
	}
	return &researchUC{
		jobs:     jobs,
		client:   client,
		pool:     pool,
		observer: observer,
		log:      &ucLog,
		streams:  make(map[string]adapter.StatusStream),
	}
}

func (s *researchUC) Create(ctx context.Context, title string, cfg model.ResearchConfig) (*model.ResearchJob, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	job := model.NewResearchJob(ulid.Make().String(), title, cfg)
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}
	s.observer.JobUpdated(job)
	return job, nil
}

func (s *researchUC) Start(ctx context.Context, id string) (*model.ResearchJob, error) {
	defer logging.TraceDuration(s.log, "ResearchUC.Start")()

	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusPending {
		return nil, fmt.Errorf("%w: job %s is %s, not pending", domain.ErrInvalidTransition, id, job.Status)
	}

	remoteID, stream, err := s.client.Submit(ctx, &job.Config)
	if err != nil {
		// Submission failure leaves the job in pending so a retry re-submits.
		s.log.Error().Err(err).Str("job_id", id).Msg("submission failed")
		return nil, err
	}
	metrics.IncJobSubmitted(s.client.Provider())

	if err := job.MarkRunning(remoteID); err != nil {
		stream.Cancel()
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		stream.Cancel()
		return nil, err
	}
	s.observer.JobUpdated(job)
	s.log.Info().Str("job_id", id).Str("remote_id", remoteID).Msg("job submitted")

	if err := s.attach(ctx, job.ID, remoteID, stream); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *researchUC) Resume(ctx context.Context, id string) error {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != model.JobStatusRunning || job.RemoteID == "" {
		return fmt.Errorf("%w: job %s has no resumable remote job", domain.ErrInvalidTransition, id)
	}
	stream, err := s.client.ResumeStream(job.RemoteID)
	if err != nil {
		return err
	}
	if err := s.attach(ctx, job.ID, job.RemoteID, stream); err != nil {
		return err
	}
	metrics.IncJobResumed()
	s.log.Info().Str("job_id", id).Str("remote_id", job.RemoteID).Msg("polling resumed")
	return nil
}

func (s *researchUC) ResumeAll(ctx context.Context) (int, error) {
	running, err := s.jobs.FindByStatus(ctx, model.JobStatusRunning)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range running {
		if job.RemoteID == "" || s.active(job.ID) {
			continue
		}
		if err := s.Resume(ctx, job.ID); err != nil {
			s.log.Error().Err(err).Str("job_id", job.ID).Msg("resume failed")
			continue
		}
		n++
	}
	return n, nil
}

func (s *researchUC) Retry(ctx context.Context, id string) (*model.ResearchJob, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := job.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, err
	}
	s.observer.JobUpdated(job)
	return s.Start(ctx, id)
}

func (s *researchUC) Cancel(id string) bool {
	s.mu.Lock()
	stream, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()
	if ok {
		stream.Cancel()
	}
	return ok
}

func (s *researchUC) Get(ctx context.Context, id string) (*model.ResearchJob, error) {
	return s.jobs.FindByID(ctx, id)
}

func (s *researchUC) List(ctx context.Context) ([]*model.ResearchJob, error) {
	return s.jobs.List(ctx)
}

func (s *researchUC) Delete(ctx context.Context, id string) error {
	s.Cancel(id)
	return s.jobs.Delete(ctx, id)
}

// attach registers the stream as the single active one for the job and hands
// the consume loop to the worker pool. Any prior stream for the id is
// cancelled first, so two terminal-result fetches can never race.
func (s *researchUC) attach(ctx context.Context, jobID, remoteID string, stream adapter.StatusStream) error {
	s.mu.Lock()
	if prior, ok := s.streams[jobID]; ok {
		prior.Cancel()
	}
	s.streams[jobID] = stream
	s.mu.Unlock()

	err := s.pool.Submit(func(ctx context.Context) error {
		s.consume(ctx, jobID, remoteID, stream)
		return nil
	})
	if err != nil {
		s.detach(jobID, stream)
		stream.Cancel()
		s.failJob(ctx, jobID, fmt.Errorf("cannot track job: %w", err))
		return err
	}
	return nil
}

func (s *researchUC) detach(jobID string, stream adapter.StatusStream) {
	s.mu.Lock()
	if s.streams[jobID] == stream {
		delete(s.streams, jobID)
	}
	s.mu.Unlock()
}

func (s *researchUC) active(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.streams[jobID]
	return ok
}

// consume applies one stream's events to the job record. It returns after
// the first terminal event, which makes the result fetch exactly-once even
// if a stream were to misbehave and emit completed twice.
func (s *researchUC) consume(ctx context.Context, jobID, remoteID string, stream adapter.StatusStream) {
	defer s.detach(jobID, stream)
	defer stream.Cancel()

	ctx = logging.WithJobID(logging.WithRemoteID(ctx, remoteID), jobID)
	log := logging.With(ctx, s.log)
	log.Debug().Msg("tracking status stream")

	for {
		select {
		case <-ctx.Done():
			// Shutdown: stop tracking without touching the record; the
			// resume worker picks the job up on next start.
			return
		case ev, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					metrics.IncPoll("failed")
					s.failJob(ctx, jobID, err)
				}
				// nil error means the stream was cancelled; nothing to apply
				return
			}
			switch ev.Status {
			case model.StatusCompleted:
				metrics.IncPoll("completed")
				s.applyCompleted(ctx, jobID, remoteID)
				return
			default:
				metrics.IncPoll("running")
				log.Trace().Str("status", string(ev.Status)).Msg("poll tick")
				s.observer.JobProgress(jobID, model.StatusRunning)
			}
		}
	}
}

// applyCompleted fetches the full result once and writes result, cost,
// completion time and status in a single save.
func (s *researchUC) applyCompleted(ctx context.Context, jobID, remoteID string) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("load job for completion")
		return
	}
	if job.Status != model.JobStatusRunning {
		s.log.Warn().Str("job_id", jobID).Str("status", string(job.Status)).
			Msg("terminal event for non-running job ignored")
		return
	}

	res, err := s.client.FetchResult(ctx, remoteID)
	if err != nil {
		s.failJob(ctx, jobID, err)
		return
	}

	cost := model.Cost(job.Config.Model, res.Usage.InputTokens, res.Usage.OutputTokens)
	result := &model.ResearchResult{
		Report:         res.Report,
		ThoughtProcess: res.ThoughtProcess,
		Sources:        res.Sources,
	}
	if err := job.Complete(result, cost); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("complete transition rejected")
		return
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("persist completed job")
		return
	}
	metrics.IncJobFinished(string(model.JobStatusCompleted))
	metrics.AddJobCost(cost.TotalCost)
	s.observer.JobUpdated(job)
	s.log.Info().Str("job_id", jobID).Int("input_tokens", cost.InputTokens).
		Int("output_tokens", cost.OutputTokens).Float64("cost_usd", cost.TotalCost).
		Msg("job completed")
}

func (s *researchUC) failJob(ctx context.Context, jobID string, cause error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("load job for failure")
		return
	}
	if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusError {
		return
	}
	if err := job.Fail(cause.Error()); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("fail transition rejected")
		return
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("persist failed job")
		return
	}
	metrics.IncJobFinished(string(model.JobStatusError))
	s.observer.JobUpdated(job)
	s.log.Warn().Str("job_id", jobID).Str("reason", cause.Error()).Msg("job failed")
}

type noopObserver struct{}

func (noopObserver) JobUpdated(*model.ResearchJob)              {}
func (noopObserver) JobProgress(string, model.NormalizedStatus) {}
