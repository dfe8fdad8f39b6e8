package providers

import (
	"context"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/pkg/anthropic"
)

const anthropicMaxTokens = 1024

// AnthropicAdapter drives Claude models through the official SDK.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter wraps an Anthropic client as a registry client.
func NewAnthropicAdapter(client anthropic.Client, model string) *AnthropicAdapter {
	return &AnthropicAdapter{client: client, model: model}
}

func (a *AnthropicAdapter) ID() string { return "anthropic" }

func (a *AnthropicAdapter) Analyze(ctx context.Context, req registry.AnalysisRequest) (*model.Analysis, error) {
	msgReq := anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		Prompt:    req.Prompt,
	}
	for _, img := range req.Images {
		msgReq.Images = append(msgReq.Images, anthropic.Image{
			MediaType: img.MimeType,
			Data:      img.Data,
		})
	}

	resp, err := a.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(resp.Text)
}
