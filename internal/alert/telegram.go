// Package alert forwards high-risk verdicts to an operator Telegram chat.
package alert

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const previewLength = 150

// Config for operator alerts. Alerts are disabled when TelegramToken is empty.
type Config struct {
	TelegramToken string `yaml:"telegram_token" envconfig:"TELEGRAM_TOKEN"`
	ChatID        int64  `yaml:"chat_id" envconfig:"CHAT_ID" validate:"required_with=TelegramToken"`
	MinScore      int    `yaml:"min_score" envconfig:"MIN_SCORE" validate:"gte=0,lte=10"`
}

// Enabled reports whether alerts are configured
func (c Config) Enabled() bool {
	return c.TelegramToken != "" && c.ChatID != 0 && c.MinScore > 0
}

// TelegramAlerter sends alerts through the Telegram Bot API
type TelegramAlerter struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramAlerter connects to the Bot API with the default endpoint
func NewTelegramAlerter(cfg Config, logger *zap.Logger) (*TelegramAlerter, error) {
	return NewTelegramAlerterWithClient(cfg, tgbotapi.APIEndpoint, http.DefaultClient, logger)
}

// NewTelegramAlerterWithClient connects to the Bot API at endpoint
func NewTelegramAlerterWithClient(cfg Config, endpoint string, client tgbotapi.HTTPClient, logger *zap.Logger) (*TelegramAlerter, error) {
	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram alerter authorized",
		zap.String("bot_username", botAPI.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID))

	return &TelegramAlerter{api: botAPI, chatID: cfg.ChatID, logger: logger}, nil
}

// Alert posts msg and its verdict to the operator chat
func (a *TelegramAlerter) Alert(ctx context.Context, msg models.InboundMessage, verdict models.RiskVerdict) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(a.chatID, FormatAlert(msg, verdict))
	if _, err := a.api.Send(out); err != nil {
		a.logger.Error("Failed to send alert",
			zap.Int64("chat_id", a.chatID),
			zap.String("sender", msg.SenderID),
			zap.Error(err))
		return fmt.Errorf("failed to send alert: %w", err)
	}

	a.logger.Info("Alert sent",
		zap.String("sender", msg.SenderID),
		zap.Int("risk_score", verdict.RiskScore))
	return nil
}

// FormatAlert renders the operator notification
func FormatAlert(msg models.InboundMessage, verdict models.RiskVerdict) string {
	preview := []rune(msg.Text)
	text := string(preview)
	if len(preview) > previewLength {
		text = string(preview[:previewLength]) + "..."
	}
	if text == "" {
		text = "(" + string(msg.Modality) + ")"
	}

	return fmt.Sprintf(
		"🚨 Golpe provável detectado\n\n"+
			"👤 Remetente: %s (%s)\n"+
			"⚠️ Risco: %d/10\n"+
			"🧐 %s\n\n"+
			"📝 Mensagem:\n%s",
		msg.DisplayName, msg.SenderID,
		verdict.RiskScore,
		verdict.Explanation,
		text,
	)
}
