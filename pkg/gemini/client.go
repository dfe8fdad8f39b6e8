// Package gemini wraps the Google GenAI SDK behind the small surface the
// valuation engine needs.
package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Client defines the Gemini operations used by the engine.
type Client interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Image is one inline image attachment.
type Image struct {
	MimeType string
	Data     []byte
}

// GenerateRequest is the request for GenerateContent.
type GenerateRequest struct {
	Model  string
	Prompt string
	Images []Image
}

// GenerateResponse is the flattened response.
type GenerateResponse struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Option configures the client.
type Option func(*genaiClient)

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *genaiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type genaiClient struct {
	client  *genai.Client
	limiter *rate.Limiter
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	c := &genaiClient{client: client, limiter: rate.NewLimiter(2, 2)}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *genaiClient) GenerateContent(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MimeType},
		})
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := c.client.Models.GenerateContent(ctx, req.Model, contents, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}
	if len(result.Candidates) == 0 {
		return nil, eris.New("gemini: empty response")
	}

	resp := &GenerateResponse{Text: result.Text()}
	if result.UsageMetadata != nil {
		resp.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}
