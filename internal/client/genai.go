package client

import (
	"context"
	"fmt"

	"github.com/writeitupx/backend/internal/config"
	"google.golang.org/genai"
)

type SuggestionClient struct {
	client *genai.Client
	model  string
}

func NewSuggestionClient(cfg config.AIConfig) (*SuggestionClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &SuggestionClient{client: client, model: cfg.Model}, nil
}

func (c *SuggestionClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return "", err
	}
	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}
