// Package poll produces cancellable lazy sequences of status events for
// remote research jobs, driven by repeated timed polling rather than any
// server push.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.StatusStream = (*Stream)(nil)

// Stream polls one remote job at a fixed interval until a terminal status.
// Repeated running events are followed by exactly one completed event, then
// the channel closes. A native failed status or a poll error closes the
// channel without a terminal event; Err reports why.
//
// Per instance: Idle -> Polling -> closed. Only Polling re-arms the timer.
type Stream struct {
	remoteID string
	backend  adapter.ResearchBackend
	interval time.Duration
	log      *zerolog.Logger

	events chan adapter.StatusEvent
	cancel chan struct{}

	startOnce  sync.Once
	cancelOnce sync.Once

	mu  sync.Mutex
	err error
}

// New constructs an idle stream; polling starts on the first Events call.
func New(remoteID string, backend adapter.ResearchBackend, interval time.Duration, logger *zerolog.Logger) *Stream {
	streamLog := logger.With().Str("component", "poll.Stream").Str("remote_id", remoteID).Logger()
	return &Stream{
		remoteID: remoteID,
		backend:  backend,
		interval: interval,
		log:      &streamLog,
		events:   make(chan adapter.StatusEvent),
		cancel:   make(chan struct{}),
	}
}

// Events returns the event channel, starting the poll loop on first use.
func (s *Stream) Events() <-chan adapter.StatusEvent {
	s.startOnce.Do(func() { go s.run() })
	return s.events
}

// Cancel stops scheduling further polls and suppresses further events.
// Cancellation never mutates any job record; an in-flight poll is allowed to
// finish but its result is discarded.
func (s *Stream) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancel) })
}

// Err reports the terminal error of a closed stream, nil after a completed
// event or a cancellation.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Stream) cancelled() bool {
	select {
	case <-s.cancel:
		return true
	default:
		return false
	}
}

// emit delivers an event unless the stream was cancelled first.
func (s *Stream) emit(ev adapter.StatusEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.cancel:
		return false
	}
}

func (s *Stream) run() {
	defer close(s.events)

	for {
		if s.cancelled() {
			return
		}

		start := time.Now()
		// The request context is deliberately not tied to Cancel: a poll in
		// flight when the stream is cancelled completes and is discarded.
		snap, err := s.backend.JobStatus(context.Background(), s.remoteID)
		elapsed := time.Since(start)

		if s.cancelled() {
			return
		}
		if err != nil {
			s.log.Error().Err(err).Dur("poll_ms", elapsed).Msg("status poll failed")
			s.setErr(err)
			return
		}

		s.log.Trace().Str("native", snap.Native).Str("status", string(snap.Status)).
			Dur("poll_ms", elapsed).Msg("poll")

		switch snap.Status {
		case model.StatusCompleted:
			snapshot := snap
			s.emit(adapter.StatusEvent{Status: model.StatusCompleted, Snapshot: &snapshot})
			return
		case model.StatusFailed:
			s.setErr(fmt.Errorf("%w: backend reported status %q", domain.ErrResearchFailed, snap.Native))
			return
		default:
			if !s.emit(adapter.StatusEvent{Status: model.StatusRunning}) {
				return
			}
		}

		select {
		case <-time.After(s.interval):
		case <-s.cancel:
			return
		}
	}
}
