package llm

import (
	"fmt"
	"strings"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
)

// SystemInstruction fixes the response contract for every backend
const SystemInstruction = "Você é um especialista em segurança digital. " +
	"Analise o conteúdo e classifique o risco de 0 a 10. " +
	"Responda EXCLUSIVAMENTE com um JSON válido no seguinte formato: " +
	`{"risco": int, "explicacao": "str", "conselho": "str"}. ` +
	"Não adicione texto antes ou depois do JSON."

// BuildTextPrompt builds the user prompt for a text message
func BuildTextPrompt(text string) string {
	return fmt.Sprintf("Analise esta mensagem suspeita: %s", text)
}

// BuildMediaPrompt builds the user prompt sent alongside media
func BuildMediaPrompt(content media.Content, caption string) string {
	var prompt string
	if content.IsAudio() {
		prompt = "Transcreva este áudio e analise se é fraude."
	} else {
		prompt = "Analise este print/imagem de suposta fraude:"
	}

	if caption = strings.TrimSpace(caption); caption != "" {
		prompt += "\nLegenda enviada junto: " + caption
	}
	return prompt
}
