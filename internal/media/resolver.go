package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps a single download
const DefaultMaxBytes = 16 << 20

// HTTPResolver downloads media references over HTTP(S) and decodes inline
// base64 data: references
type HTTPResolver struct {
	httpClient *http.Client
	headers    map[string]string
	maxBytes   int64
	logger     *zap.Logger
}

// ResolverConfig for HTTPResolver
type ResolverConfig struct {
	MaxBytes int64         `yaml:"max_bytes" envconfig:"MAX_BYTES" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	// Headers are added to every request, e.g. the Evolution apikey
	Headers map[string]string `yaml:"headers" envconfig:"HEADERS"`
}

// NewHTTPResolver creates a new resolver
func NewHTTPResolver(cfg ResolverConfig, logger *zap.Logger) *HTTPResolver {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &HTTPResolver{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    cfg.Headers,
		maxBytes:   cfg.MaxBytes,
		logger:     logger,
	}
}

// Resolve loads ref and checks that it is an image or audio file
func (r *HTTPResolver) Resolve(ctx context.Context, ref string) (Content, error) {
	if strings.HasPrefix(ref, "data:") {
		data, err := r.decodeDataRef(ref)
		if err != nil {
			return Content{}, err
		}
		return r.inspect(data)
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Content{}, fmt.Errorf("invalid media reference %q", ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Content{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Content{}, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Content{}, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return Content{}, fmt.Errorf("failed to read media: %w", err)
	}
	return r.inspect(data)
}

// decodeDataRef decodes a data:<mime>;base64,<payload> reference
func (r *HTTPResolver) decodeDataRef(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("invalid media reference: data reference is not base64")
	}

	payload = strings.TrimSpace(payload)
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > r.maxBytes+2 {
		return nil, fmt.Errorf("media exceeds %d bytes", r.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline media: %w", err)
	}
	return data, nil
}

// inspect enforces the size cap and sniffs the media type
func (r *HTTPResolver) inspect(data []byte) (Content, error) {
	if int64(len(data)) > r.maxBytes {
		return Content{}, fmt.Errorf("media exceeds %d bytes", r.maxBytes)
	}
	if len(data) == 0 {
		return Content{}, fmt.Errorf("empty media body")
	}

	content := Content{Data: data, MIMEType: mimetype.Detect(data).String()}
	if !content.IsImage() && !content.IsAudio() {
		return Content{}, fmt.Errorf("unexpected media type %s", content.MIMEType)
	}

	r.logger.Debug("Media resolved",
		zap.String("mime_type", content.MIMEType),
		zap.Int("bytes", len(data)))

	return content, nil
}
