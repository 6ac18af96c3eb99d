package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
	"deep-research-agent/internal/infra/metrics"
)

// httpBackend carries everything both wire variants share: bearer auth,
// the responses resource, envelope decoding. Variant constructors only set
// the base URL, fixed headers and the output-token field name.
type httpBackend struct {
	name           string
	base           string
	apiKey         string
	headers        map[string]string
	maxTokensField string
	client         *http.Client
}

func (b *httpBackend) Name() string { return b.name }

func (b *httpBackend) CreateJob(ctx context.Context, cfg *model.ResearchConfig) (string, error) {
	body, err := json.Marshal(buildPayload(cfg, b.maxTokensField))
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrSubmissionFailed, err)
	}
	env, err := b.do(ctx, http.MethodPost, "/responses", bytes.NewReader(body), domain.ErrSubmissionFailed)
	if err != nil {
		return "", err
	}
	if env.ID == "" {
		return "", fmt.Errorf("%w: response has no id", domain.ErrSubmissionFailed)
	}
	return env.ID, nil
}

func (b *httpBackend) JobStatus(ctx context.Context, remoteID string) (adapter.StatusSnapshot, error) {
	env, err := b.do(ctx, http.MethodGet, "/responses/"+remoteID, nil, domain.ErrPollFailed)
	if err != nil {
		return adapter.StatusSnapshot{}, err
	}
	return env.snapshot(remoteID), nil
}

func (b *httpBackend) JobResult(ctx context.Context, remoteID string) (*adapter.Result, error) {
	env, err := b.do(ctx, http.MethodGet, "/responses/"+remoteID, nil, domain.ErrPollFailed)
	if err != nil {
		return nil, err
	}
	if NormalizeStatus(env.Status) != model.StatusCompleted {
		return nil, fmt.Errorf("%w: remote status %q", domain.ErrResultUnavailable, env.Status)
	}
	return env.extractResult(), nil
}

// do issues one request and decodes the response envelope. Failures wrap
// sentinel so callers can distinguish submission from polling errors, and
// carry a truncated body snippet for diagnostics.
func (b *httpBackend) do(ctx context.Context, method, path string, body io.Reader, sentinel error) (*responseEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	metrics.ObserveBackendRequest(b.name, method, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", sentinel, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s http %d: %s", sentinel, b.name, resp.StatusCode, bodySnippet(raw))
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: parse body: %v: %s", sentinel, err, bodySnippet(raw))
	}
	if env.Error != nil && env.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s: %s", sentinel, env.Error.Code, env.Error.Message)
	}
	return &env, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
