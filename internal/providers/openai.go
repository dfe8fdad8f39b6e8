package providers

import (
	"context"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/pkg/openai"
)

// OpenAIAdapter drives any OpenAI-compatible chat endpoint.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter wraps an OpenAI client as a registry client.
func NewOpenAIAdapter(client openai.Client, model string) *OpenAIAdapter {
	return &OpenAIAdapter{client: client, model: model}
}

func (a *OpenAIAdapter) ID() string { return "openai" }

func (a *OpenAIAdapter) Analyze(ctx context.Context, req registry.AnalysisRequest) (*model.Analysis, error) {
	chatReq := openai.ChatRequest{
		Model:  a.model,
		Prompt: req.Prompt,
	}
	for _, img := range req.Images {
		chatReq.Images = append(chatReq.Images, openai.Image{
			MimeType: img.MimeType,
			Data:     img.Data,
		})
	}

	resp, err := a.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(resp.Text)
}
