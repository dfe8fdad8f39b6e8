package providers

import (
	"context"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/pkg/gemini"
)

// GeminiAdapter drives Gemini models through the GenAI SDK.
type GeminiAdapter struct {
	client gemini.Client
	model  string
}

// NewGeminiAdapter wraps a Gemini client as a registry client.
func NewGeminiAdapter(client gemini.Client, model string) *GeminiAdapter {
	return &GeminiAdapter{client: client, model: model}
}

func (a *GeminiAdapter) ID() string { return "gemini" }

func (a *GeminiAdapter) Analyze(ctx context.Context, req registry.AnalysisRequest) (*model.Analysis, error) {
	genReq := gemini.GenerateRequest{
		Model:  a.model,
		Prompt: req.Prompt,
	}
	for _, img := range req.Images {
		genReq.Images = append(genReq.Images, gemini.Image{
			MimeType: img.MimeType,
			Data:     img.Data,
		})
	}

	resp, err := a.client.GenerateContent(ctx, genReq)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(resp.Text)
}
