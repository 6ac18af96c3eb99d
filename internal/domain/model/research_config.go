package model

import (
	"fmt"
	"strings"

	"deep-research-agent/internal/domain"
)

// Tool types and enum values accepted by the deep-research endpoints.
const (
	ToolWebSearch = "web_search_preview"
	ToolMCP       = "mcp"
)

// ResearchTool selects one capability for the remote agent. JSON tags match
// the wire format; optional fields are omitted when empty.
type ResearchTool struct {
	Type              string `json:"type" yaml:"type"`
	SearchContextSize string `json:"search_context_size,omitempty" yaml:"search_context_size,omitempty"`
	ServerLabel       string `json:"server_label,omitempty" yaml:"server_label,omitempty"`
	ServerURL         string `json:"server_url,omitempty" yaml:"server_url,omitempty"`
	RequireApproval   string `json:"require_approval,omitempty" yaml:"require_approval,omitempty"`
}

// ToolChoice forces the agent to use a specific tool type.
type ToolChoice struct {
	Type string `json:"type"`
}

// ReasoningSpec controls the visible reasoning of the model.
type ReasoningSpec struct {
	Summary string `json:"summary"` // auto | concise | detailed
	Effort  string `json:"effort"`  // low | medium | high
}

// ResearchConfig is the immutable input to a submission.
// Optional fields are pointers so that an unset value can be told apart from
// a zero value and omitted entirely from the wire payload.
type ResearchConfig struct {
	UserPrompt      string         `json:"user_prompt"`
	SystemPrompt    string         `json:"system_prompt,omitempty"`
	Model           string         `json:"model"`
	MaxOutputTokens int            `json:"max_output_tokens"`
	Tools           []ResearchTool `json:"tools,omitempty"`
	ToolChoice      *ToolChoice    `json:"tool_choice,omitempty"`
	Reasoning       *ReasoningSpec `json:"reasoning,omitempty"`
	Background      *bool          `json:"background,omitempty"`
	Seed            *int           `json:"seed,omitempty"`
	WebhookURL      string         `json:"webhook_url,omitempty"`
}

var (
	validContextSizes = map[string]bool{"low": true, "medium": true, "high": true}
	validSummaries    = map[string]bool{"auto": true, "concise": true, "detailed": true}
	validEfforts      = map[string]bool{"low": true, "medium": true, "high": true}
	validApprovals    = map[string]bool{"never": true, "auto": true, "manual": true}
)

// Validate checks the config against the model catalog before submission.
func (c *ResearchConfig) Validate() error {
	if strings.TrimSpace(c.UserPrompt) == "" {
		return fmt.Errorf("%w: user prompt is empty", domain.ErrInvalidArgument)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is empty", domain.ErrInvalidArgument)
	}
	info, ok := LookupModel(c.Model)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModel, c.Model)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("%w: max_output_tokens must be positive", domain.ErrInvalidArgument)
	}
	if c.MaxOutputTokens > info.MaxOutputTokens {
		return fmt.Errorf("%w: max_output_tokens %d exceeds model ceiling %d",
			domain.ErrInvalidArgument, c.MaxOutputTokens, info.MaxOutputTokens)
	}
	if info.RequiresTools && len(c.Tools) == 0 {
		return fmt.Errorf("%w: model %s requires at least one tool", domain.ErrInvalidArgument, c.Model)
	}
	for i := range c.Tools {
		if err := c.Tools[i].validate(); err != nil {
			return err
		}
	}
	if c.Reasoning != nil {
		if !validSummaries[c.Reasoning.Summary] {
			return fmt.Errorf("%w: reasoning summary %q", domain.ErrInvalidArgument, c.Reasoning.Summary)
		}
		if !validEfforts[c.Reasoning.Effort] {
			return fmt.Errorf("%w: reasoning effort %q", domain.ErrInvalidArgument, c.Reasoning.Effort)
		}
	}
	if c.ToolChoice != nil && c.ToolChoice.Type != ToolWebSearch && c.ToolChoice.Type != ToolMCP {
		return fmt.Errorf("%w: tool_choice type %q", domain.ErrInvalidArgument, c.ToolChoice.Type)
	}
	return nil
}

func (t *ResearchTool) validate() error {
	switch t.Type {
	case ToolWebSearch:
		if t.SearchContextSize != "" && !validContextSizes[t.SearchContextSize] {
			return fmt.Errorf("%w: search_context_size %q", domain.ErrInvalidArgument, t.SearchContextSize)
		}
	case ToolMCP:
		if t.ServerURL == "" {
			return fmt.Errorf("%w: mcp tool needs server_url", domain.ErrInvalidArgument)
		}
		if t.RequireApproval != "" && !validApprovals[t.RequireApproval] {
			return fmt.Errorf("%w: require_approval %q", domain.ErrInvalidArgument, t.RequireApproval)
		}
	default:
		return fmt.Errorf("%w: tool type %q", domain.ErrInvalidArgument, t.Type)
	}
	return nil
}

// BackendProvider selects which wire variant the research client talks.
type BackendProvider string

const (
	ProviderOpenAI     BackendProvider = "openai"
	ProviderOpenRouter BackendProvider = "openrouter"
)

// BackendCredentials is an explicitly passed client configuration, owned by
// the composition root rather than held as ambient global state.
type BackendCredentials struct {
	Provider BackendProvider   `json:"provider"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

func (c *BackendCredentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is empty", domain.ErrInvalidArgument)
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderOpenRouter:
		return nil
	default:
		return fmt.Errorf("%w: provider %q", domain.ErrInvalidArgument, c.Provider)
	}
}
