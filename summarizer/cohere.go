package summarizer

import (
	"context"
	"fmt"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

// CohereConfig configures the Cohere generator
type CohereConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Cohere generates text with the Cohere chat API
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere creates a Cohere generator
func NewCohere(cfg CohereConfig) *Cohere {
	opts := []option.RequestOption{cohereclient.WithToken(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, cohereclient.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, cohereclient.WithBaseURL(cfg.BaseURL))
	}
	return &Cohere{client: cohereclient.NewClient(opts...), model: cfg.Model}
}

func (c *Cohere) Name() string { return "cohere/" + c.model }

func (c *Cohere) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: prompt,
		Model:   cohere.String(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return resp.Text, nil
}
