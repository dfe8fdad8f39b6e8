package providers

import (
	"context"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/pkg/perplexity"
)

// PerplexityAdapter drives Perplexity's search-grounded models. It carries no
// image support; the orchestrator only routes text and search stages here.
type PerplexityAdapter struct {
	client perplexity.Client
	model  string
}

// NewPerplexityAdapter wraps a Perplexity client as a registry client.
func NewPerplexityAdapter(client perplexity.Client, model string) *PerplexityAdapter {
	return &PerplexityAdapter{client: client, model: model}
}

func (a *PerplexityAdapter) ID() string { return "perplexity" }

func (a *PerplexityAdapter) Analyze(ctx context.Context, req registry.AnalysisRequest) (*model.Analysis, error) {
	resp, err := a.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: a.model,
		Messages: []perplexity.Message{
			{Role: "user", Content: req.Prompt},
		},
		SearchRecencyFilter: "month",
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyCompletion
	}
	return ParseAnalysis(resp.Choices[0].Message.Content)
}
