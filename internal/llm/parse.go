package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/go-playground/validator/v10"
)

// verdictPayload is the wire shape every backend must return
type verdictPayload struct {
	Risco      *int   `json:"risco" validate:"required,min=0,max=10"`
	Explicacao string `json:"explicacao" validate:"required"`
	Conselho   string `json:"conselho" validate:"required"`
}

// CleanJSON strips markdown code fences some models wrap around JSON
func CleanJSON(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```JSON")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// ParseVerdict decodes and validates a backend response
func ParseVerdict(raw string, validate *validator.Validate) (models.RiskVerdict, error) {
	cleanJSON := CleanJSON(raw)
	if cleanJSON == "" {
		return models.RiskVerdict{}, fmt.Errorf("empty response")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return models.RiskVerdict{}, fmt.Errorf("failed to parse response: %w", err)
	}

	payload.Explicacao = strings.TrimSpace(payload.Explicacao)
	payload.Conselho = strings.TrimSpace(payload.Conselho)

	if err := validate.Struct(payload); err != nil {
		return models.RiskVerdict{}, fmt.Errorf("invalid verdict: %w", err)
	}

	return models.RiskVerdict{
		RiskScore:   *payload.Risco,
		Explanation: payload.Explicacao,
		Advice:      payload.Conselho,
	}, nil
}
