package research

import (
	"errors"
	"strings"

	"deep-research-agent/internal/domain/ports/adapter"
)

// Compile-time assurance the variant satisfies the port
var _ adapter.ResearchBackend = (*httpBackend)(nil)

const openAIDefaultBase = "https://api.openai.com/v1"

// NewOpenAIBackend targets the OpenAI responses API. Background execution of
// deep-research jobs uses max_output_tokens for the output bound.
func NewOpenAIBackend(apiKey, base string, extraHeaders map[string]string) (adapter.ResearchBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if base == "" {
		base = openAIDefaultBase
	}
	return &httpBackend{
		name:           "openai",
		base:           strings.TrimRight(base, "/"),
		apiKey:         apiKey,
		headers:        extraHeaders,
		maxTokensField: "max_output_tokens",
		client:         newHTTPClient(),
	}, nil
}
