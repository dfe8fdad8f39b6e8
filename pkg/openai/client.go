// Package openai is a minimal client for OpenAI-compatible chat completion
// endpoints, with inline image support.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client performs chat completions.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Image is one inline image attachment.
type Image struct {
	MimeType string
	Data     []byte
}

// ChatRequest is the flattened request for ChatCompletion.
type ChatRequest struct {
	Model  string
	Prompt string
	Images []Image
}

// ChatResponse is the flattened response.
type ChatResponse struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// contentPart is one element of a multimodal user message.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.http.SetBaseURL(url)
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a client for an OpenAI-compatible endpoint.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetAuthToken(apiKey).
			SetTimeout(60 * time.Second),
		limiter: rate.NewLimiter(2, 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "openai: rate limit wait")
	}

	parts := []contentPart{{Type: "text", Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data)),
			},
		})
	}

	var result wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wireRequest{
			Model:    req.Model,
			Messages: []wireMessage{{Role: "user", Content: parts}},
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return nil, eris.Wrap(err, "openai: send request")
	}
	if resp.IsError() {
		return nil, eris.Errorf("openai: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return nil, eris.New("openai: empty response")
	}

	return &ChatResponse{
		Text:             result.Choices[0].Message.Content,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
	}, nil
}
