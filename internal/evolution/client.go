// Package evolution sends WhatsApp messages through an Evolution API instance.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is an Evolution API client bound to one instance
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Evolution API client
type Config struct {
	URL      string        `yaml:"url" envconfig:"URL" validate:"required,url"`
	APIKey   string        `yaml:"api_key" envconfig:"API_KEY" validate:"required"`
	Instance string        `yaml:"instance" envconfig:"INSTANCE" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// NewClient creates a new Evolution API client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("evolution URL is required")
	}
	if cfg.Instance == "" {
		return nil, fmt.Errorf("evolution instance is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		instance:   cfg.Instance,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// SendText sends text to the WhatsApp number or JID to. It makes a single attempt.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	jsonData, err := json.Marshal(sendTextRequest{Number: to, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/message/sendText/" + url.PathEscape(c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("evolution request failed: %w", err)
	}
	defer resp.Body.Close()

	// Evolution answers 201 on success
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("evolution returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("Message sent", zap.String("to", to), zap.Int("status", resp.StatusCode))
	return nil
}
