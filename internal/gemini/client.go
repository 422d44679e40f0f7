package gemini

import (
	"context"
	"fmt"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash-exp"

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
}

// Config for Gemini client
type Config struct {
	APIKey            string
	ModelName         string // Default: "gemini-2.0-flash-exp"
	SystemInstruction string
}

// NewClient creates a new Gemini client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)

	if cfg.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(cfg.SystemInstruction)},
		}
	}

	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.3), // Lower for consistent scoring
		TopP:             genai.Ptr[float32](0.9),
		TopK:             genai.Ptr[int32](40),
		MaxOutputTokens:  genai.Ptr[int32](500),
	}

	logger.Info("Gemini client initialized", zap.String("model", cfg.ModelName))

	return &Client{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
	}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Model() string { return c.modelName }

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

// Generate sends a text prompt and returns the model output
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return responseText(resp)
}

// GenerateMedia sends an image or audio file inline with the prompt
func (c *Client) GenerateMedia(ctx context.Context, prompt string, content media.Content) (string, error) {
	if !content.IsImage() && !content.IsAudio() {
		return "", media.ErrUnsupported
	}

	blob := genai.Blob{MIMEType: content.MIMEType, Data: content.Data}
	resp, err := c.model.GenerateContent(ctx, blob, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return responseText(resp)
}

// responseText extracts the text of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	textPart, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from gemini")
	}

	return string(textPart), nil
}
