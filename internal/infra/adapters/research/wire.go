package research

import (
	"time"

	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
)

// Wire shapes for the responses endpoints. Both variants share them; only
// field naming for the output-token bound differs (see buildPayload).

type wireMessage struct {
	Role    string        `json:"role"`
	Content []wireContent `json:"content"`
}

type wireContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usagePayload struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
	TotalTokens     int `json:"total_tokens"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type annotation struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type outputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []annotation `json:"annotations"`
}

type outputItem struct {
	Type    string          `json:"type"` // "message" | "reasoning"
	Role    string          `json:"role"`
	Status  string          `json:"status"`
	Content []outputContent `json:"content"`
	Summary []outputContent `json:"summary"`
}

type responseEnvelope struct {
	ID        string        `json:"id"`
	Object    string        `json:"object"`
	Status    string        `json:"status"`
	Model     string        `json:"model"`
	Output    []outputItem  `json:"output"`
	Usage     *usagePayload `json:"usage"`
	Error     *apiError     `json:"error"`
	CreatedAt int64         `json:"created_at"`
}

// buildPayload assembles the creation body as a key set rather than a struct
// so that unset optional fields produce no key at all, never an explicit null.
// maxTokensField is the variant-specific name for the output-token bound.
func buildPayload(cfg *model.ResearchConfig, maxTokensField string) map[string]interface{} {
	input := make([]wireMessage, 0, 2)
	if cfg.SystemPrompt != "" {
		input = append(input, wireMessage{
			Role:    "developer",
			Content: []wireContent{{Type: "input_text", Text: cfg.SystemPrompt}},
		})
	}
	input = append(input, wireMessage{
		Role:    "user",
		Content: []wireContent{{Type: "input_text", Text: cfg.UserPrompt}},
	})

	payload := map[string]interface{}{
		"model":        cfg.Model,
		"input":        input,
		maxTokensField: cfg.MaxOutputTokens,
	}
	if len(cfg.Tools) > 0 {
		payload["tools"] = cfg.Tools
	}
	if cfg.ToolChoice != nil {
		payload["tool_choice"] = cfg.ToolChoice
	}
	if cfg.Reasoning != nil {
		payload["reasoning"] = cfg.Reasoning
	}
	if cfg.Background != nil {
		payload["background"] = *cfg.Background
	}
	if cfg.Seed != nil {
		payload["seed"] = *cfg.Seed
	}
	if cfg.WebhookURL != "" {
		payload["webhook_url"] = cfg.WebhookURL
	}
	return payload
}

func (env *responseEnvelope) snapshot(remoteID string) adapter.StatusSnapshot {
	return adapter.StatusSnapshot{
		RemoteID: remoteID,
		Native:   env.Status,
		Status:   NormalizeStatus(env.Status),
		Usage:    mapUsage(env.Usage),
	}
}

// extractResult pulls the report text, reasoning summary and cited sources
// out of a terminal envelope.
func (env *responseEnvelope) extractResult() *adapter.Result {
	res := &adapter.Result{Usage: mapUsage(env.Usage)}
	citedAt := time.Now().UTC()
	if env.CreatedAt > 0 {
		citedAt = time.Unix(env.CreatedAt, 0).UTC()
	}
	for _, item := range env.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type != "output_text" {
					continue
				}
				if res.Report == "" {
					res.Report = c.Text
				}
				for _, a := range c.Annotations {
					if a.Type != "url_citation" {
						continue
					}
					res.Sources = append(res.Sources, model.Source{
						Title:   a.Title,
						URL:     a.URL,
						Snippet: a.Snippet,
						CitedAt: citedAt,
					})
				}
			}
		case "reasoning":
			for _, s := range item.Summary {
				if s.Text == "" {
					continue
				}
				if res.ThoughtProcess != "" {
					res.ThoughtProcess += "\n\n"
				}
				res.ThoughtProcess += s.Text
			}
		}
	}
	return res
}
