package dispatcher

import (
	"fmt"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"
)

// FormatReply renders a verdict as the WhatsApp reply text
func FormatReply(v models.RiskVerdict) string {
	return fmt.Sprintf("*Análise do Guardião* 🛡️\n\n"+
		"🚨 *Risco:* %d/10\n"+
		"🧐 *Explicação:* %s\n\n"+
		"💡 *Conselho:* %s",
		v.RiskScore, v.Explanation, v.Advice)
}
