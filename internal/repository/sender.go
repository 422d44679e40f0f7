//go:generate go run go.uber.org/mock/mockgen -source=sender.go -destination=../mocks/mock_sender_repository.go -package=mocks
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type SenderRepository interface {
	// UpsertSender creates the sender on first contact. Later contacts only
	// move last_seen; the first display name is kept.
	UpsertSender(ctx context.Context, phone, displayName string, seenAt time.Time) (*models.Sender, error)
	GetSenderByPhone(ctx context.Context, phone string) (*models.Sender, error)
}

type senderRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSenderRepository(db *sqlx.DB, logger *zap.Logger) SenderRepository {
	return &senderRepository{db: db, logger: logger}
}

func (r *senderRepository) UpsertSender(ctx context.Context, phone, displayName string, seenAt time.Time) (*models.Sender, error) {
	seenAt = seenAt.UTC()
	query := r.db.Rebind(`INSERT INTO senders (phone, display_name, first_seen, last_seen)
	          VALUES (?, ?, ?, ?)
	          ON CONFLICT (phone) DO UPDATE SET last_seen = excluded.last_seen`)
	if _, err := r.db.ExecContext(ctx, query, phone, displayName, seenAt, seenAt); err != nil {
		return nil, fmt.Errorf("failed to upsert sender: %w", err)
	}

	sender, err := r.GetSenderByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, fmt.Errorf("sender %s missing after upsert", phone)
	}
	return sender, nil
}

func (r *senderRepository) GetSenderByPhone(ctx context.Context, phone string) (*models.Sender, error) {
	var sender models.Sender
	query := r.db.Rebind(`SELECT id, phone, display_name, first_seen, last_seen FROM senders WHERE phone = ?`)
	err := r.db.GetContext(ctx, &sender, query, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Sender not found
		}
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	return &sender, nil
}
