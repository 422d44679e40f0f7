package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Classifier turns backend output into risk verdicts. Backend failures never
// leave this type: they become models.FailedVerdict.
type Classifier struct {
	backend  Backend
	limiter  *rate.Limiter
	validate *validator.Validate
	logger   *zap.Logger
}

// NewClassifier wraps backend with rate limiting and response validation.
// requestsPerMinute <= 0 disables rate limiting.
func NewClassifier(backend Backend, requestsPerMinute int, logger *zap.Logger) *Classifier {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}

	return &Classifier{
		backend:  backend,
		limiter:  limiter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With(zap.String("provider", backend.Name()), zap.String("model", backend.Model())),
	}
}

func (c *Classifier) Provider() string { return c.backend.Name() }

func (c *Classifier) Model() string { return c.backend.Model() }

// Close closes the underlying backend
func (c *Classifier) Close() error {
	return c.backend.Close()
}

// ClassifyText classifies a text message. It always returns a verdict.
func (c *Classifier) ClassifyText(ctx context.Context, text string) models.RiskVerdict {
	prompt := BuildTextPrompt(text)

	verdict, err := c.classify(ctx, func(ctx context.Context) (string, error) {
		return c.backend.Generate(ctx, prompt)
	})
	if err != nil {
		c.logger.Error("Text classification failed", zap.Error(err))
		return models.FailedVerdict()
	}

	c.logger.Debug("Text classified", zap.Int("risk_score", verdict.RiskScore))
	return verdict
}

// ClassifyMedia classifies an image or audio file. The only error it returns
// is media.ErrUnsupported, when the backend cannot analyze this content.
func (c *Classifier) ClassifyMedia(ctx context.Context, content media.Content, caption string) (models.RiskVerdict, error) {
	mb, ok := c.backend.(MediaBackend)
	if !ok {
		return models.RiskVerdict{}, media.ErrUnsupported
	}

	prompt := BuildMediaPrompt(content, caption)

	verdict, err := c.classify(ctx, func(ctx context.Context) (string, error) {
		return mb.GenerateMedia(ctx, prompt, content)
	})
	if errors.Is(err, media.ErrUnsupported) {
		return models.RiskVerdict{}, media.ErrUnsupported
	}
	if err != nil {
		c.logger.Error("Media classification failed",
			zap.String("mime_type", content.MIMEType),
			zap.Error(err))
		return models.FailedVerdict(), nil
	}

	c.logger.Debug("Media classified",
		zap.String("mime_type", content.MIMEType),
		zap.Int("risk_score", verdict.RiskScore))
	return verdict, nil
}

func (c *Classifier) classify(ctx context.Context, call func(context.Context) (string, error)) (verdict models.RiskVerdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return models.RiskVerdict{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	raw, err := call(ctx)
	if err != nil {
		return models.RiskVerdict{}, err
	}

	verdict, err = ParseVerdict(raw, c.validate)
	if err != nil {
		c.logger.Warn("Backend returned an invalid verdict",
			zap.String("response", raw),
			zap.Error(err))
		return models.RiskVerdict{}, err
	}
	return verdict, nil
}
