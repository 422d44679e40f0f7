// Package openai is a client for providers exposing the OpenAI chat
// completions API (OpenAI, Groq, OpenRouter).
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"

	"go.uber.org/zap"
)

// Client represents an OpenAI-compatible API client
type Client struct {
	provider           string
	apiKey             string
	baseURL            string
	modelName          string
	transcriptionModel string
	systemInstruction  string
	jsonMode           bool
	headers            map[string]string
	httpClient         *http.Client
	logger             *zap.Logger
}

// Config holds configuration for the client
type Config struct {
	Provider           string // reported in logs and analysis records
	APIKey             string
	BaseURL            string
	ModelName          string
	TranscriptionModel string // audio is unsupported when empty
	SystemInstruction  string
	JSONMode           bool // request response_format json_object
	Headers            map[string]string
	Timeout            time.Duration
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatMessage content is either a string or a list of contentPart
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type transcriptionResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewClient creates a new client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", cfg.Provider)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%s model name is required", cfg.Provider)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("OpenAI-compatible client initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.ModelName),
		zap.Bool("audio", cfg.TranscriptionModel != ""))

	return &Client{
		provider:           cfg.Provider,
		apiKey:             cfg.APIKey,
		baseURL:            strings.TrimSuffix(cfg.BaseURL, "/"),
		modelName:          cfg.ModelName,
		transcriptionModel: cfg.TranscriptionModel,
		systemInstruction:  cfg.SystemInstruction,
		jsonMode:           cfg.JSONMode,
		headers:            cfg.Headers,
		httpClient:         &http.Client{Timeout: cfg.Timeout},
		logger:             logger,
	}, nil
}

func (c *Client) Name() string { return c.provider }

func (c *Client) Model() string { return c.modelName }

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Generate sends a text prompt and returns the model output
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt)
}

// GenerateMedia analyzes an image through an image_url part, or an audio
// file by transcribing it first.
func (c *Client) GenerateMedia(ctx context.Context, prompt string, content media.Content) (string, error) {
	switch {
	case content.IsImage():
		dataURL := "data:" + content.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(content.Data)
		return c.complete(ctx, []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		})

	case content.IsAudio() && c.transcriptionModel != "":
		transcript, err := c.transcribe(ctx, content)
		if err != nil {
			return "", err
		}
		return c.complete(ctx, prompt+"\n\nTranscrição: "+transcript)

	default:
		return "", media.ErrUnsupported
	}
}

func (c *Client) complete(ctx context.Context, userContent any) (string, error) {
	reqBody := chatRequest{
		Model: c.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemInstruction},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}
	if c.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", c.provider, apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", c.provider)
	}

	return apiResp.Choices[0].Message.Content, nil
}

func (c *Client) transcribe(ctx context.Context, content media.Content) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("model", c.transcriptionModel); err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	part, err := w.CreateFormFile("file", "audio"+audioExtension(content.MIMEType))
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	if _, err := part.Write(content.Data); err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to unmarshal transcription: %w", err)
	}
	if tr.Error != nil {
		return "", fmt.Errorf("%s transcription error: %s", c.provider, tr.Error.Message)
	}
	if strings.TrimSpace(tr.Text) == "" {
		return "", fmt.Errorf("empty transcription")
	}

	c.logger.Debug("Audio transcribed", zap.Int("chars", len(tr.Text)))
	return tr.Text, nil
}

// do sends req once with auth headers and returns the body of a 200 response
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Provider API error",
			zap.String("provider", c.provider),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%s API returned status %d: %s", c.provider, resp.StatusCode, string(body))
	}

	return body, nil
}

func audioExtension(mimeType string) string {
	switch mimeType {
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	case "audio/webm":
		return ".webm"
	default:
		return ".ogg"
	}
}
