package models

// Modality is the content type of an inbound message
type Modality string

const (
	ModalityText        Modality = "text"
	ModalityImage       Modality = "image"
	ModalityAudio       Modality = "audio"
	ModalityUnsupported Modality = "unsupported"
)

// IsMedia reports whether the modality needs a media resolve before classification
func (m Modality) IsMedia() bool {
	return m == ModalityImage || m == ModalityAudio
}

// InboundMessage is a normalized webhook message. It is built once by the
// normalizer and passed by value afterwards.
type InboundMessage struct {
	SenderID    string // phone part of the JID, e.g. "5511999"
	ReplyTo     string // full JID the reply is addressed to
	DisplayName string // WhatsApp push name
	MessageID   string // upstream message key id, may be empty
	Modality    Modality
	Text        string // message text, or the caption for media
	MediaRef    string // empty when no media reference was found
}

// HasMediaRef reports whether a media reference was extracted
func (m InboundMessage) HasMediaRef() bool {
	return m.MediaRef != ""
}
