// Package normalizer turns raw Evolution API webhook events into typed
// inbound messages. It performs no I/O.
package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/samber/lo"
)

var (
	ErrNormalization         = errors.New("normalization failed")
	ErrMissingSenderIdentity = fmt.Errorf("%w: missing sender identity", ErrNormalization)
	ErrEmptyTextContent      = fmt.Errorf("%w: empty text content", ErrNormalization)
)

const defaultDisplayName = "Unknown"

// messageTypes maps Evolution messageType tags to modalities
var messageTypes = map[string]models.Modality{
	"conversation":        models.ModalityText,
	"extendedTextMessage": models.ModalityText,
	"imageMessage":        models.ModalityImage,
	"audioMessage":        models.ModalityAudio,
}

// Normalize builds an InboundMessage from ev
func Normalize(ev Event) (models.InboundMessage, error) {
	jid := strings.TrimSpace(ev.Data.Key.RemoteJid)
	phone, _, _ := strings.Cut(jid, "@")
	if phone == "" {
		return models.InboundMessage{}, ErrMissingSenderIdentity
	}

	msg := models.InboundMessage{
		SenderID:    phone,
		ReplyTo:     jid,
		DisplayName: lo.Ternary(strings.TrimSpace(ev.Data.PushName) != "", ev.Data.PushName, defaultDisplayName),
		MessageID:   ev.Data.Key.ID,
		Modality:    modalityOf(ev.Data.MessageType),
	}

	content := ev.Data.Message
	switch msg.Modality {
	case models.ModalityText:
		text, ok := firstNonBlank(textCandidates(content))
		if !ok {
			return models.InboundMessage{}, ErrEmptyTextContent
		}
		msg.Text = text
	case models.ModalityImage:
		msg.MediaRef, _ = firstNonBlank(mediaCandidates(content, content.ImageMessage))
		if content.ImageMessage != nil {
			msg.Text = content.ImageMessage.Caption
		}
	case models.ModalityAudio:
		msg.MediaRef, _ = firstNonBlank(mediaCandidates(content, content.AudioMessage))
	}

	return msg, nil
}

func modalityOf(messageType string) models.Modality {
	if m, ok := messageTypes[messageType]; ok {
		return m
	}
	return models.ModalityUnsupported
}

// textCandidates lists text fields in lookup order
func textCandidates(c MessageContent) []string {
	candidates := []string{c.Conversation}
	if c.ExtendedTextMessage != nil {
		candidates = append(candidates, c.ExtendedTextMessage.Text)
	}
	return candidates
}

// mediaCandidates lists media refs in lookup order. The WhatsApp CDN url is
// last since it points at an encrypted blob.
func mediaCandidates(c MessageContent, m *MediaMessage) []string {
	candidates := []string{c.MediaURL, dataRef(c.Base64, m)}
	if m != nil {
		candidates = append(candidates, m.URL)
	}
	return candidates
}

// dataRef wraps an inline base64 payload as a data: reference
func dataRef(payload string, m *MediaMessage) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}
	mimeType := "application/octet-stream"
	if m != nil && strings.TrimSpace(m.Mimetype) != "" {
		mimeType, _, _ = strings.Cut(m.Mimetype, ";")
		mimeType = strings.TrimSpace(mimeType)
	}
	return "data:" + mimeType + ";base64," + payload
}

// firstNonBlank returns the first candidate that is not blank, unmodified
func firstNonBlank(candidates []string) (string, bool) {
	return lo.Find(candidates, func(s string) bool {
		return strings.TrimSpace(s) != ""
	})
}
