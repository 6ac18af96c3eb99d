package model

import "strings"

// ModelInfo describes a research-capable model: what it costs per million
// tokens (USD) and how large its output may be.
type ModelInfo struct {
	Name               string
	InputPricePerMTok  float64
	OutputPricePerMTok float64
	MaxOutputTokens    int
	RequiresTools      bool
}

// catalog holds the documented deep-research models. Dated snapshots resolve
// through the prefix fallback in LookupModel.
var catalog = map[string]ModelInfo{
	"o3-deep-research": {
		Name:               "o3-deep-research",
		InputPricePerMTok:  10,
		OutputPricePerMTok: 40,
		MaxOutputTokens:    128_000,
		RequiresTools:      true,
	},
	"o4-mini-deep-research": {
		Name:               "o4-mini-deep-research",
		InputPricePerMTok:  2,
		OutputPricePerMTok: 8,
		MaxOutputTokens:    64_000,
		RequiresTools:      true,
	},
}

// LookupModel resolves a model identifier, accepting dated variants such as
// "o3-deep-research-2025-06-26".
func LookupModel(name string) (ModelInfo, bool) {
	if info, ok := catalog[name]; ok {
		return info, ok
	}
	for prefix, info := range catalog {
		if strings.HasPrefix(name, prefix) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// Cost derives the monetary summary from raw usage counters. Unknown models
// yield a summary with the token counts and a zero dollar amount.
func Cost(modelName string, inputTokens, outputTokens int) *CostSummary {
	summary := &CostSummary{InputTokens: inputTokens, OutputTokens: outputTokens}
	if info, ok := LookupModel(modelName); ok {
		summary.TotalCost = float64(inputTokens)/1_000_000*info.InputPricePerMTok +
			float64(outputTokens)/1_000_000*info.OutputPricePerMTok
	}
	return summary
}
