package usecase

import (
	"context"
	"fmt"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"

	"github.com/pkoukk/tiktoken-go"
)

var _ EstimateUseCase = (*estimateUC)(nil)

// CostEstimate is a pre-submission projection: exact prompt token count plus
// the cost range up to the configured output ceiling.
type CostEstimate struct {
	Model           string  `json:"model"`
	PromptTokens    int     `json:"prompt_tokens"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	MinCostUSD      float64 `json:"min_cost_usd"`
	MaxCostUSD      float64 `json:"max_cost_usd"`
}

type EstimateUseCase interface {
	Estimate(ctx context.Context, cfg *model.ResearchConfig) (*CostEstimate, error)
}

type estimateUC struct{}

func NewEstimateUseCase() *estimateUC { return &estimateUC{} }

// The deep-research models are not in tiktoken's model table; they share the
// o-series o200k_base encoding.
const researchEncoding = "o200k_base"

func (e *estimateUC) Estimate(ctx context.Context, cfg *model.ResearchConfig) (*CostEstimate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	info, ok := model.LookupModel(cfg.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, cfg.Model)
	}

	enc, err := tiktoken.GetEncoding(researchEncoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding: %w", err)
	}
	promptTokens := len(enc.Encode(cfg.UserPrompt, nil, nil))
	if cfg.SystemPrompt != "" {
		promptTokens += len(enc.Encode(cfg.SystemPrompt, nil, nil))
	}

	inputCost := float64(promptTokens) / 1_000_000 * info.InputPricePerMTok
	worstOutput := float64(cfg.MaxOutputTokens) / 1_000_000 * info.OutputPricePerMTok

	return &CostEstimate{
		Model:           cfg.Model,
		PromptTokens:    promptTokens,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MinCostUSD:      inputCost,
		MaxCostUSD:      inputCost + worstOutput,
	}, nil
}
