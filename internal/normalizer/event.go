package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventMessagesUpsert is the Evolution API event fired for new messages
const EventMessagesUpsert = "messages.upsert"

// Event is the webhook payload posted by Evolution API. Only the fields the
// pipeline reads are declared; everything else is ignored by the decoder.
type Event struct {
	Event    string    `json:"event"`
	Instance string    `json:"instance"`
	Data     EventData `json:"data"`
}

// Envelope is the outer shape shared by every Evolution event. Data stays raw
// because its shape depends on the event: an object for messages, an array
// for contacts and chats, a string for qrcode updates.
type Envelope struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// IsMessagesUpsert reports whether env announces new messages
func (env Envelope) IsMessagesUpsert() bool {
	return isMessagesUpsert(env.Event)
}

// Decode parses the message payload of a messages.upsert envelope
func (env Envelope) Decode() (Event, error) {
	ev := Event{Event: env.Event, Instance: env.Instance}
	if len(env.Data) == 0 {
		return Event{}, fmt.Errorf("%w: missing data", ErrNormalization)
	}
	if err := json.Unmarshal(env.Data, &ev.Data); err != nil {
		return Event{}, fmt.Errorf("%w: invalid data: %w", ErrNormalization, err)
	}
	return ev, nil
}

// EventData carries a single WhatsApp message
type EventData struct {
	Key         MessageKey     `json:"key"`
	PushName    string         `json:"pushName"`
	MessageType string         `json:"messageType"`
	Message     MessageContent `json:"message"`
}

// MessageKey identifies the chat and the message
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// MessageContent holds the per-modality content fields
type MessageContent struct {
	Conversation        string        `json:"conversation,omitempty"`
	ExtendedTextMessage *TextMessage  `json:"extendedTextMessage,omitempty"`
	ImageMessage        *MediaMessage `json:"imageMessage,omitempty"`
	AudioMessage        *MediaMessage `json:"audioMessage,omitempty"`
	// MediaURL is set by Evolution when media is mirrored to its object storage
	MediaURL string `json:"mediaUrl,omitempty"`
	// Base64 is the decrypted media, sent when webhook base64 is enabled
	Base64 string `json:"base64,omitempty"`
}

type TextMessage struct {
	Text string `json:"text"`
}

type MediaMessage struct {
	URL      string `json:"url,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// IsNewMessage reports whether ev should enter the pipeline. Anything else is
// acknowledged and ignored, including echoes of messages the bot sent itself
// and status or broadcast list posts.
func IsNewMessage(ev Event) bool {
	if !isMessagesUpsert(ev.Event) || ev.Data.Key.FromMe {
		return false
	}
	return !strings.HasSuffix(strings.TrimSpace(ev.Data.Key.RemoteJid), "@broadcast")
}

func isMessagesUpsert(event string) bool {
	return strings.ToLower(strings.ReplaceAll(event, "_", ".")) == EventMessagesUpsert
}
