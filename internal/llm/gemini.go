package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the genai SDK
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. Without an API key no SDK client is
// built and every call fails with ErrMissingAPIKey. An empty baseURL keeps the
// SDK's default endpoint.
func NewGeminiClient(ctx context.Context, apiKey, baseURL, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return &GeminiClient{model: model}, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

// Complete generates content for req and returns the concatenated text parts
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.client == nil {
		return "", ErrMissingAPIKey
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		TopP:             genai.Ptr(float32(req.TopP)),
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text returned from gemini")
	}
	return text, nil
}
