package research

import (
	"errors"
	"strings"

	"deep-research-agent/internal/domain/ports/adapter"
)

const (
	openRouterDefaultBase = "https://openrouter.ai/api/v1"
	openRouterReferer     = "https://research-agent.local"
	openRouterTitle       = "Research Agent"
)

// NewOpenRouterBackend targets OpenRouter's OpenAI-compatible responses
// endpoint. OpenRouter requires two identifying headers on every request and
// names the output bound max_tokens.
func NewOpenRouterBackend(apiKey, base string, extraHeaders map[string]string) (adapter.ResearchBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter api key empty")
	}
	if base == "" {
		base = openRouterDefaultBase
	}
	headers := map[string]string{
		"HTTP-Referer": openRouterReferer,
		"X-Title":      openRouterTitle,
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}
	return &httpBackend{
		name:           "openrouter",
		base:           strings.TrimRight(base, "/"),
		apiKey:         apiKey,
		headers:        headers,
		maxTokensField: "max_tokens",
		client:         newHTTPClient(),
	}, nil
}
