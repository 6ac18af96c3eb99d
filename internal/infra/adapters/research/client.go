package research

import (
	"context"
	"sync"
	"time"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
	"deep-research-agent/internal/infra/poll"

	"github.com/rs/zerolog"
)

var _ adapter.ResearchClient = (*Client)(nil)

// Client is the configurable remote job client. One backend variant is
// active at a time; Configure swaps it when the settings change. The client
// itself is handed around explicitly by the composition root, never held as
// package-level state.
type Client struct {
	mu       sync.RWMutex
	backend  adapter.ResearchBackend
	interval time.Duration
	log      *zerolog.Logger
}

func NewClient(pollInterval time.Duration, logger *zerolog.Logger) *Client {
	clientLog := logger.With().Str("component", "research.Client").Logger()
	return &Client{interval: pollInterval, log: &clientLog}
}

// Configure selects and constructs the backend variant for the given
// credentials. It may be called again at any time; streams already running
// keep the backend they were created with.
func (c *Client) Configure(creds model.BackendCredentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	var (
		backend adapter.ResearchBackend
		err     error
	)
	switch creds.Provider {
	case model.ProviderOpenRouter:
		backend, err = NewOpenRouterBackend(creds.APIKey, creds.BaseURL, creds.Headers)
	default:
		backend, err = NewOpenAIBackend(creds.APIKey, creds.BaseURL, creds.Headers)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.backend = backend
	c.mu.Unlock()
	c.log.Info().Str("provider", string(creds.Provider)).Msg("research backend configured")
	return nil
}

// UseBackend installs a pre-built backend, used for dev mode and tests.
func (c *Client) UseBackend(backend adapter.ResearchBackend) {
	c.mu.Lock()
	c.backend = backend
	c.mu.Unlock()
}

func (c *Client) Provider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.backend == nil {
		return ""
	}
	return c.backend.Name()
}

func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend != nil
}

func (c *Client) current() (adapter.ResearchBackend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.backend == nil {
		return nil, domain.ErrNotConfigured
	}
	return c.backend, nil
}

func (c *Client) Submit(ctx context.Context, cfg *model.ResearchConfig) (string, adapter.StatusStream, error) {
	backend, err := c.current()
	if err != nil {
		return "", nil, err
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	remoteID, err := backend.CreateJob(ctx, cfg)
	if err != nil {
		return "", nil, err
	}
	return remoteID, poll.New(remoteID, backend, c.interval, c.log), nil
}

func (c *Client) FetchResult(ctx context.Context, remoteID string) (*adapter.Result, error) {
	backend, err := c.current()
	if err != nil {
		return nil, err
	}
	return backend.JobResult(ctx, remoteID)
}

func (c *Client) ResumeStream(remoteID string) (adapter.StatusStream, error) {
	backend, err := c.current()
	if err != nil {
		return nil, err
	}
	if remoteID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return poll.New(remoteID, backend, c.interval, c.log), nil
}
