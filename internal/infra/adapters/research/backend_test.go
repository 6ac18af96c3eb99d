package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
)

func minimalConfig() *model.ResearchConfig {
	return &model.ResearchConfig{
		UserPrompt:      "how do heat pumps perform below -20C",
		Model:           "o3-deep-research",
		MaxOutputTokens: 4096,
		Tools:           []model.ResearchTool{{Type: model.ToolWebSearch}},
	}
}

func TestBuildPayloadOmitsUnsetFields(t *testing.T) {
	cfg := &model.ResearchConfig{
		UserPrompt:      "p",
		Model:           "o3-deep-research",
		MaxOutputTokens: 100,
	}
	payload := buildPayload(cfg, "max_output_tokens")

	for _, key := range []string{"tools", "tool_choice", "reasoning", "background", "seed", "webhook_url", "system_prompt"} {
		if _, present := payload[key]; present {
			t.Errorf("unset field %q present in payload", key)
		}
	}
	for _, key := range []string{"model", "input", "max_output_tokens"} {
		if _, present := payload[key]; !present {
			t.Errorf("required field %q missing from payload", key)
		}
	}

	input := payload["input"].([]wireMessage)
	if len(input) != 1 || input[0].Role != "user" {
		t.Fatalf("input without system prompt = %+v", input)
	}
}

func TestBuildPayloadIncludesSetFields(t *testing.T) {
	bg := true
	seed := 42
	cfg := minimalConfig()
	cfg.SystemPrompt = "be terse"
	cfg.ToolChoice = &model.ToolChoice{Type: model.ToolWebSearch}
	cfg.Reasoning = &model.ReasoningSpec{Summary: "auto", Effort: "high"}
	cfg.Background = &bg
	cfg.Seed = &seed
	cfg.WebhookURL = "https://hooks.example.com/done"

	payload := buildPayload(cfg, "max_tokens")
	for _, key := range []string{"tools", "tool_choice", "reasoning", "background", "seed", "webhook_url", "max_tokens"} {
		if _, present := payload[key]; !present {
			t.Errorf("set field %q missing from payload", key)
		}
	}
	if _, present := payload["max_output_tokens"]; present {
		t.Error("wrong output-token field name for variant")
	}

	input := payload["input"].([]wireMessage)
	if len(input) != 2 {
		t.Fatalf("input = %+v, want developer + user", input)
	}
	if input[0].Role != "developer" || input[0].Content[0].Type != "input_text" {
		t.Fatalf("developer message = %+v", input[0])
	}
	if input[1].Role != "user" || input[1].Content[0].Text != cfg.UserPrompt {
		t.Fatalf("user message = %+v", input[1])
	}
}

func TestCreateJobSendsAuthAndDecodesID(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(responseEnvelope{ID: "resp-abc", Status: "queued"})
	}))
	defer srv.Close()

	backend, err := NewOpenAIBackend("sk-test", srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := backend.CreateJob(context.Background(), minimalConfig())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if id != "resp-abc" {
		t.Fatalf("id = %s", id)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPath != "/responses" {
		t.Fatalf("path = %q", gotPath)
	}
	if _, present := gotBody["max_output_tokens"]; !present {
		t.Error("openai variant must send max_output_tokens")
	}
}

func TestOpenRouterVariantHeadersAndField(t *testing.T) {
	var gotReferer, gotTitle string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(responseEnvelope{ID: "resp-or", Status: "queued"})
	}))
	defer srv.Close()

	backend, err := NewOpenRouterBackend("sk-or", srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := backend.CreateJob(context.Background(), minimalConfig()); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if gotReferer == "" || gotTitle == "" {
		t.Fatalf("identifying headers missing: referer=%q title=%q", gotReferer, gotTitle)
	}
	if _, present := gotBody["max_tokens"]; !present {
		t.Error("openrouter variant must send max_tokens")
	}
	if _, present := gotBody["max_output_tokens"]; present {
		t.Error("openrouter variant must not send max_output_tokens")
	}
}

func TestCreateJobMissingIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(responseEnvelope{Status: "queued"})
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	if _, err := backend.CreateJob(context.Background(), minimalConfig()); !errors.Is(err, domain.ErrSubmissionFailed) {
		t.Fatalf("err = %v, want ErrSubmissionFailed", err)
	}
}

func TestHTTPErrorCarriesStatusAndSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	_, err := backend.JobStatus(context.Background(), "resp-1")
	if !errors.Is(err, domain.ErrPollFailed) {
		t.Fatalf("err = %v, want ErrPollFailed", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "429") || !strings.Contains(msg, "rate limited") {
		t.Fatalf("diagnostic missing status or body: %q", msg)
	}
}

func TestAPIErrorEnvelopeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(responseEnvelope{
			ID:    "resp-1",
			Error: &apiError{Code: "invalid_model", Message: "no such model"},
		})
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	_, err := backend.JobStatus(context.Background(), "resp-1")
	if !errors.Is(err, domain.ErrPollFailed) || !strings.Contains(err.Error(), "no such model") {
		t.Fatalf("err = %v", err)
	}
}

func TestJobResultRequiresCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(responseEnvelope{ID: "resp-1", Status: "in_progress"})
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	if _, err := backend.JobResult(context.Background(), "resp-1"); !errors.Is(err, domain.ErrResultUnavailable) {
		t.Fatalf("err = %v, want ErrResultUnavailable", err)
	}
}

func TestJobResultExtraction(t *testing.T) {
	env := responseEnvelope{
		ID:        "resp-1",
		Status:    "completed",
		CreatedAt: 1750000000,
		Usage:     &usagePayload{InputTokens: 1000, OutputTokens: 2000, TotalTokens: 3000},
		Output: []outputItem{
			{
				Type: "reasoning",
				Summary: []outputContent{
					{Type: "summary_text", Text: "first considered efficiency curves"},
					{Type: "summary_text", Text: "then compared vendor data"},
				},
			},
			{
				Type: "message",
				Role: "assistant",
				Content: []outputContent{{
					Type: "output_text",
					Text: "# Heat Pump Report",
					Annotations: []annotation{
						{Type: "url_citation", Title: "NREL study", URL: "https://nrel.gov/x", Snippet: "cold-climate data"},
						{Type: "file_citation", Title: "ignored", URL: ""},
					},
				}},
			},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	res, err := backend.JobResult(context.Background(), "resp-1")
	if err != nil {
		t.Fatalf("JobResult: %v", err)
	}
	if res.Report != "# Heat Pump Report" {
		t.Fatalf("report = %q", res.Report)
	}
	if res.ThoughtProcess != "first considered efficiency curves\n\nthen compared vendor data" {
		t.Fatalf("thought process = %q", res.ThoughtProcess)
	}
	if len(res.Sources) != 1 || res.Sources[0].URL != "https://nrel.gov/x" {
		t.Fatalf("sources = %+v", res.Sources)
	}
	if res.Usage.TotalTokens != 3000 {
		t.Fatalf("usage = %+v", res.Usage)
	}
}

func TestJobStatusSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses/resp-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(responseEnvelope{
			ID: "resp-9", Status: "in_progress",
			Usage: &usagePayload{InputTokens: 5},
		})
	}))
	defer srv.Close()

	backend, _ := NewOpenAIBackend("k", srv.URL, nil)
	snap, err := backend.JobStatus(context.Background(), "resp-9")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if snap.Status != model.StatusRunning || snap.Native != "in_progress" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.RemoteID != "resp-9" || snap.Usage.InputTokens != 5 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

