package sqlpilot

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// TextGenerator is the contract for the external generative calls used by
// drafting, conversation, and summarization. Output is untrusted text;
// SQL responses get the full extraction and validation treatment.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenAIClient backs TextGenerator with the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed text generator.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: model}, nil
}

// Generate runs one prompt against the model. The caller bounds the call
// with a context deadline; no retries happen here.
func (c *GenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: 600,
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned an empty response")
	}
	return text, nil
}
