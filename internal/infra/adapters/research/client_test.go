package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestClient() *Client {
	logger := zerolog.Nop()
	return NewClient(time.Millisecond, &logger)
}

func TestClientOperationsBeforeConfigure(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	if c.Configured() {
		t.Fatal("fresh client reports configured")
	}
	if got := c.Provider(); got != "" {
		t.Fatalf("fresh client provider = %q, want empty", got)
	}

	if _, _, err := c.Submit(ctx, minimalConfig()); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("Submit before configure = %v, want ErrNotConfigured", err)
	}
	if _, err := c.FetchResult(ctx, "resp-1"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("FetchResult before configure = %v, want ErrNotConfigured", err)
	}
	if _, err := c.ResumeStream("resp-1"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("ResumeStream before configure = %v, want ErrNotConfigured", err)
	}
}

func TestClientConfigureSelectsVariant(t *testing.T) {
	cases := []struct {
		provider model.BackendProvider
		want     string
	}{
		{model.ProviderOpenAI, "openai"},
		{model.ProviderOpenRouter, "openrouter"},
	}
	for _, tc := range cases {
		c := newTestClient()
		creds := model.BackendCredentials{Provider: tc.provider, APIKey: "sk-unit"}
		if err := c.Configure(creds); err != nil {
			t.Fatalf("Configure(%s): %v", tc.provider, err)
		}
		if !c.Configured() {
			t.Errorf("client not configured after Configure(%s)", tc.provider)
		}
		if got := c.Provider(); got != tc.want {
			t.Errorf("Provider() after Configure(%s) = %q, want %q", tc.provider, got, tc.want)
		}
	}
}

func TestClientConfigureRejectsBadCredentials(t *testing.T) {
	cases := []struct {
		name  string
		creds model.BackendCredentials
	}{
		{"empty api key", model.BackendCredentials{Provider: model.ProviderOpenAI}},
		{"unknown provider", model.BackendCredentials{Provider: "gemini", APIKey: "sk-unit"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient()
			if err := c.Configure(tc.creds); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("Configure = %v, want ErrInvalidArgument", err)
			}
			if c.Configured() {
				t.Fatal("rejected credentials still installed a backend")
			}
		})
	}
}

func TestClientReconfigureSwapsBackend(t *testing.T) {
	c := newTestClient()
	if err := c.Configure(model.BackendCredentials{Provider: model.ProviderOpenAI, APIKey: "sk-unit"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Configure(model.BackendCredentials{Provider: model.ProviderOpenRouter, APIKey: "sk-unit"}); err != nil {
		t.Fatal(err)
	}
	if got := c.Provider(); got != "openrouter" {
		t.Fatalf("Provider() after reconfigure = %q, want openrouter", got)
	}
}

func TestClientResumeStreamRequiresRemoteID(t *testing.T) {
	c := newTestClient()
	c.UseBackend(NewNoopBackend(1))

	if _, err := c.ResumeStream(""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("ResumeStream(\"\") = %v, want ErrInvalidArgument", err)
	}
	stream, err := c.ResumeStream("noop-resp-1")
	if err != nil {
		t.Fatalf("ResumeStream: %v", err)
	}
	stream.Cancel()
}

func TestClientSubmitValidatesConfig(t *testing.T) {
	c := newTestClient()
	c.UseBackend(NewNoopBackend(1))
	ctx := context.Background()

	bad := &model.ResearchConfig{Model: "o3-deep-research", MaxOutputTokens: 100}
	if _, _, err := c.Submit(ctx, bad); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Submit with empty prompt = %v, want ErrInvalidArgument", err)
	}

	remoteID, stream, err := c.Submit(ctx, minimalConfig())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if remoteID == "" {
		t.Fatal("Submit returned empty remote id")
	}
	stream.Cancel()
}
