//go:generate go run go.uber.org/mock/mockgen -source=analysis.go -destination=../mocks/mock_analysis_repository.go -package=mocks
package repository

import (
	"context"
	"fmt"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxListLimit = 500

type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
	ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
	ListBySender(ctx context.Context, senderID int64, limit int) ([]*models.AnalysisRecord, error)
}

type analysisRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAnalysisRepository(db *sqlx.DB, logger *zap.Logger) AnalysisRepository {
	return &analysisRepository{db: db, logger: logger}
}

const analysisColumns = `id, sender_id, media_type, message_content, risk_score, explanation, advice, provider, model, created_at`

// SaveAnalysis inserts rec and sets its ID
func (r *analysisRepository) SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	rec.CreatedAt = rec.CreatedAt.UTC()
	query := r.db.Rebind(`INSERT INTO analysis_logs (sender_id, media_type, message_content, risk_score, explanation, advice, provider, model, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		rec.SenderID, rec.MediaType, rec.TextContent, rec.RiskScore,
		rec.Explanation, rec.Advice, rec.Provider, rec.Model, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first
func (r *analysisRepository) ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	records := []*models.AnalysisRecord{}
	query := r.db.Rebind(`SELECT ` + analysisColumns + ` FROM analysis_logs ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &records, query, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

func (r *analysisRepository) ListBySender(ctx context.Context, senderID int64, limit int) ([]*models.AnalysisRecord, error) {
	records := []*models.AnalysisRecord{}
	query := r.db.Rebind(`SELECT ` + analysisColumns + ` FROM analysis_logs WHERE sender_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &records, query, senderID, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list analyses for sender: %w", err)
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return min(limit, maxListLimit)
}
