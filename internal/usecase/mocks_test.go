// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
)

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.ResearchJob
	saveErr error // used by tests to simulate save failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.ResearchJob)}
}

func (m *memJobRepo) Save(ctx context.Context, job *model.ResearchJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, id string) (*model.ResearchJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) List(ctx context.Context) ([]*model.ResearchJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.ResearchJob, 0, len(m.store))
	for _, j := range m.store {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (m *memJobRepo) FindByStatus(ctx context.Context, status model.JobStatus) ([]*model.ResearchJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ResearchJob
	for _, j := range m.store {
		if j.Status == status {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// fakeStream hands scripted events to the consumer. Tests close done to end
// the stream; Cancel is recorded but does not close the channel by itself so
// tests control the exact interleaving.
type fakeStream struct {
	events chan adapter.StatusEvent

	mu       sync.Mutex
	cancels  int
	err      error
	closedBy sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan adapter.StatusEvent, 16)}
}

func (f *fakeStream) Events() <-chan adapter.StatusEvent { return f.events }

func (f *fakeStream) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeStream) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeStream) emit(ev adapter.StatusEvent) { f.events <- ev }

func (f *fakeStream) close(err error) {
	f.closedBy.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.events)
	})
}

func (f *fakeStream) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

// fakeClient scripts the research client port. Each Submit hands out the
// next stream from the queue; each call is counted.
type fakeClient struct {
	mu            sync.Mutex
	streams       []*fakeStream
	submitErr     error
	submitCalls   int
	resumeCalls   int
	fetchCalls    int
	fetchResult   *adapter.Result
	fetchErr      error
	lastRemoteID  string
	remoteCounter int
}

func newFakeClient(streams ...*fakeStream) *fakeClient {
	return &fakeClient{
		streams:     streams,
		fetchResult: &adapter.Result{Report: "# Report", Usage: adapter.Usage{InputTokens: 1000, OutputTokens: 2000}},
	}
}

func (f *fakeClient) Configure(model.BackendCredentials) error { return nil }
func (f *fakeClient) Configured() bool                         { return true }
func (f *fakeClient) Provider() string                         { return "fake" }

func (f *fakeClient) nextStream() *fakeStream {
	if len(f.streams) == 0 {
		return newFakeStream()
	}
	s := f.streams[0]
	f.streams = f.streams[1:]
	return s
}

func (f *fakeClient) Submit(ctx context.Context, cfg *model.ResearchConfig) (string, adapter.StatusStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return "", nil, f.submitErr
	}
	f.remoteCounter++
	f.lastRemoteID = fmt.Sprintf("resp-%d", f.remoteCounter)
	return f.lastRemoteID, f.nextStream(), nil
}

func (f *fakeClient) FetchResult(ctx context.Context, remoteID string) (*adapter.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchResult, nil
}

func (f *fakeClient) ResumeStream(remoteID string) (adapter.StatusStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls++
	return f.nextStream(), nil
}

func (f *fakeClient) counts() (submit, resume, fetch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.resumeCalls, f.fetchCalls
}

// recObserver records notifications for assertions.
type recObserver struct {
	mu       sync.Mutex
	updates  []model.JobStatus
	progress int
}

func (o *recObserver) JobUpdated(job *model.ResearchJob) {
	o.mu.Lock()
	o.updates = append(o.updates, job.Status)
	o.mu.Unlock()
}

func (o *recObserver) JobProgress(string, model.NormalizedStatus) {
	o.mu.Lock()
	o.progress++
	o.mu.Unlock()
}

func (o *recObserver) progressCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}
