package llm

import (
	"testing"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"risco\": 1}\n```": `{"risco": 1}`,
		"```JSON\n{\"risco\": 1}```":   `{"risco": 1}`,
		"```\n{\"risco\": 1}\n```":     `{"risco": 1}`,
		"  {\"risco\": 1}  ":           `{"risco": 1}`,
		"":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanJSON(in), "input %q", in)
	}
}

func TestParseVerdict(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		raw     string
		want    models.RiskVerdict
		wantErr bool
	}{
		{
			name: "valid",
			raw:  `{"risco": 9, "explicacao": "Pedido de PIX urgente", "conselho": "Não transfira"}`,
			want: models.RiskVerdict{RiskScore: 9, Explanation: "Pedido de PIX urgente", Advice: "Não transfira"},
		},
		{
			name: "zero risk is valid",
			raw:  `{"risco": 0, "explicacao": "Mensagem comum", "conselho": "Nada a fazer"}`,
			want: models.RiskVerdict{RiskScore: 0, Explanation: "Mensagem comum", Advice: "Nada a fazer"},
		},
		{
			name: "fenced",
			raw:  "```json\n{\"risco\": 10, \"explicacao\": \"a\", \"conselho\": \"b\"}\n```",
			want: models.RiskVerdict{RiskScore: 10, Explanation: "a", Advice: "b"},
		},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "not json", raw: "O risco é alto", wantErr: true},
		{name: "above range", raw: `{"risco": 11, "explicacao": "a", "conselho": "b"}`, wantErr: true},
		{name: "below range", raw: `{"risco": -1, "explicacao": "a", "conselho": "b"}`, wantErr: true},
		{name: "missing risco", raw: `{"explicacao": "a", "conselho": "b"}`, wantErr: true},
		{name: "string risco", raw: `{"risco": "7", "explicacao": "a", "conselho": "b"}`, wantErr: true},
		{name: "fractional risco", raw: `{"risco": 7.5, "explicacao": "a", "conselho": "b"}`, wantErr: true},
		{name: "missing explicacao", raw: `{"risco": 3, "conselho": "b"}`, wantErr: true},
		{name: "blank conselho", raw: `{"risco": 3, "explicacao": "a", "conselho": "   "}`, wantErr: true},
		{name: "english field names", raw: `{"risk": 3, "explanation": "a", "advice": "b"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.raw, validate)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
