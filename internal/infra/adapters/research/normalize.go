package research

import (
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
)

// NormalizeStatus collapses the backend-native status vocabulary to the
// three-value form. Unrecognized strings count as running so the engine never
// sticks on backend vocabulary drift.
func NormalizeStatus(native string) model.NormalizedStatus {
	switch native {
	case "completed":
		return model.StatusCompleted
	case "failed", "cancelled":
		return model.StatusFailed
	default:
		// queued, in_progress, incomplete, anything new
		return model.StatusRunning
	}
}

func mapUsage(u *usagePayload) adapter.Usage {
	if u == nil {
		return adapter.Usage{}
	}
	return adapter.Usage{
		InputTokens:     u.InputTokens,
		OutputTokens:    u.OutputTokens,
		ReasoningTokens: u.ReasoningTokens,
		TotalTokens:     u.TotalTokens,
	}
}

const maxSnippetLen = 256

// bodySnippet truncates a raw response body for error diagnostics.
func bodySnippet(b []byte) string {
	if len(b) > maxSnippetLen {
		b = b[:maxSnippetLen]
	}
	return string(b)
}
