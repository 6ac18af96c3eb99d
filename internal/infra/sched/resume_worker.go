package sched

import (
	"context"
	"time"

	"deep-research-agent/internal/usecase"

	"github.com/rs/zerolog"
)

// ResumeWorker re-attaches polling streams to persisted running jobs: once
// at startup (page-reload analog: the remote id survived, the stream did
// not) and then on a sweep interval in case a consumer died mid-flight.
type ResumeWorker struct {
	interval time.Duration
	uc       usecase.ResearchUseCase
	log      *zerolog.Logger
}

func NewResumeWorker(interval time.Duration, uc usecase.ResearchUseCase, logger *zerolog.Logger) *ResumeWorker {
	workerLog := logger.With().Str("component", "ResumeWorker").Logger()
	return &ResumeWorker{interval: interval, uc: uc, log: &workerLog}
}

func (w *ResumeWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting resume worker")
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping resume worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ResumeWorker) sweep(ctx context.Context) {
	n, err := w.uc.ResumeAll(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("resume sweep error")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("polling streams re-attached")
	}
}
