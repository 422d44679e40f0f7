package models

import "time"

// Sender is a WhatsApp contact that sent at least one analyzed message
type Sender struct {
	ID          int64     `db:"id" json:"id"`
	Phone       string    `db:"phone" json:"phone"`
	DisplayName string    `db:"display_name" json:"display_name"`
	FirstSeen   time.Time `db:"first_seen" json:"first_seen"`
	LastSeen    time.Time `db:"last_seen" json:"last_seen"`
}

// AnalysisRecord is the persisted projection of a message and its verdict
type AnalysisRecord struct {
	ID          int64     `db:"id" json:"id"`
	SenderID    int64     `db:"sender_id" json:"sender_id"`
	MediaType   Modality  `db:"media_type" json:"media_type"`
	TextContent string    `db:"message_content" json:"message_content"`
	RiskScore   int       `db:"risk_score" json:"risk_score"`
	Explanation string    `db:"explanation" json:"explanation"`
	Advice      string    `db:"advice" json:"advice"`
	Provider    string    `db:"provider" json:"provider"` // gemini, openai, groq, openrouter
	Model       string    `db:"model" json:"model"`       // model name reported by the backend
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NewAnalysisRecord builds the record for msg classified as v
func NewAnalysisRecord(senderID int64, msg InboundMessage, v RiskVerdict, provider, model string, at time.Time) *AnalysisRecord {
	return &AnalysisRecord{
		SenderID:    senderID,
		MediaType:   msg.Modality,
		TextContent: msg.Text,
		RiskScore:   v.RiskScore,
		Explanation: v.Explanation,
		Advice:      v.Advice,
		Provider:    provider,
		Model:       model,
		CreatedAt:   at,
	}
}
