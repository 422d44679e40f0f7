//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_dispatcher.go -package=mocks
package dispatcher

import (
	"context"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"
)

// RiskClassifier is implemented by llm.Classifier. ClassifyText never fails;
// ClassifyMedia fails only with media.ErrUnsupported.
type RiskClassifier interface {
	Provider() string
	Model() string
	ClassifyText(ctx context.Context, text string) models.RiskVerdict
	ClassifyMedia(ctx context.Context, content media.Content, caption string) (models.RiskVerdict, error)
}

// MediaResolver downloads the content behind a media reference
type MediaResolver interface {
	Resolve(ctx context.Context, ref string) (media.Content, error)
}

// Notifier delivers the reply to the sender
type Notifier interface {
	SendText(ctx context.Context, to, text string) error
}

// Alerter forwards high-risk verdicts to operators
type Alerter interface {
	Alert(ctx context.Context, msg models.InboundMessage, verdict models.RiskVerdict) error
}
