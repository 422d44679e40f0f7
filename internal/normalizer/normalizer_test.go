package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{
	"event": "messages.upsert",
	"instance": "meuguardiao",
	"data": {
		"messageType": "conversation",
		"key": {"remoteJid": "5511999@s.whatsapp.net", "fromMe": false, "id": "ABC123"},
		"pushName": "Ana",
		"message": {"conversation": "clique aqui para ganhar um prêmio"}
	}
}`

func decode(t *testing.T, raw string) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	return ev
}

func TestNormalize_ConversationText(t *testing.T) {
	msg, err := Normalize(decode(t, scenarioA))
	require.NoError(t, err)

	assert.Equal(t, models.InboundMessage{
		SenderID:    "5511999",
		ReplyTo:     "5511999@s.whatsapp.net",
		DisplayName: "Ana",
		MessageID:   "ABC123",
		Modality:    models.ModalityText,
		Text:        "clique aqui para ganhar um prêmio",
	}, msg)
}

func TestNormalize_TextCandidates(t *testing.T) {
	tests := []struct {
		description string
		messageType string
		content     MessageContent
		want        string
		wantErr     error
	}{
		{
			description: "conversation field",
			messageType: "conversation",
			content:     MessageContent{Conversation: "oi"},
			want:        "oi",
		},
		{
			description: "extended text when conversation is empty",
			messageType: "extendedTextMessage",
			content:     MessageContent{ExtendedTextMessage: &TextMessage{Text: "https://bit.ly/x"}},
			want:        "https://bit.ly/x",
		},
		{
			description: "conversation wins over extended text",
			messageType: "extendedTextMessage",
			content: MessageContent{
				Conversation:        "primeiro",
				ExtendedTextMessage: &TextMessage{Text: "segundo"},
			},
			want: "primeiro",
		},
		{
			description: "blank conversation falls through",
			messageType: "conversation",
			content: MessageContent{
				Conversation:        "   ",
				ExtendedTextMessage: &TextMessage{Text: "pix agora"},
			},
			want: "pix agora",
		},
		{
			description: "text kept verbatim",
			messageType: "conversation",
			content:     MessageContent{Conversation: "  espaços  \n"},
			want:        "  espaços  \n",
		},
		{
			description: "no text at all",
			messageType: "conversation",
			content:     MessageContent{},
			wantErr:     ErrEmptyTextContent,
		},
		{
			description: "extended text message without text",
			messageType: "extendedTextMessage",
			content:     MessageContent{ExtendedTextMessage: &TextMessage{}},
			wantErr:     ErrEmptyTextContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			ev := Event{
				Event: EventMessagesUpsert,
				Data: EventData{
					Key:         MessageKey{RemoteJid: "5521988@s.whatsapp.net"},
					MessageType: tt.messageType,
					Message:     tt.content,
				},
			}
			msg, err := Normalize(ev)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrNormalization)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ModalityText, msg.Modality)
			assert.Equal(t, tt.want, msg.Text)
		})
	}
}

func TestNormalize_MissingSender(t *testing.T) {
	for _, jid := range []string{"", "   ", "@s.whatsapp.net"} {
		ev := decode(t, scenarioA)
		ev.Data.Key.RemoteJid = jid

		_, err := Normalize(ev)
		require.ErrorIs(t, err, ErrMissingSenderIdentity, "jid %q", jid)
	}
}

func TestNormalize_Media(t *testing.T) {
	t.Run("image with url and caption", func(t *testing.T) {
		ev := Event{Data: EventData{
			Key:         MessageKey{RemoteJid: "5511999@s.whatsapp.net"},
			MessageType: "imageMessage",
			Message: MessageContent{ImageMessage: &MediaMessage{
				URL:     "https://mmg.whatsapp.net/img.enc",
				Caption: "veja o comprovante",
			}},
		}}
		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, models.ModalityImage, msg.Modality)
		assert.Equal(t, "https://mmg.whatsapp.net/img.enc", msg.MediaRef)
		assert.Equal(t, "veja o comprovante", msg.Text)
	})

	t.Run("mirrored media url preferred", func(t *testing.T) {
		ev := Event{Data: EventData{
			Key:         MessageKey{RemoteJid: "5511999@s.whatsapp.net"},
			MessageType: "audioMessage",
			Message: MessageContent{
				MediaURL:     "https://s3.local/audio.ogg",
				AudioMessage: &MediaMessage{URL: "https://mmg.whatsapp.net/a.enc"},
			},
		}}
		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, models.ModalityAudio, msg.Modality)
		assert.Equal(t, "https://s3.local/audio.ogg", msg.MediaRef)
	})

	t.Run("inline base64 preferred over encrypted cdn url", func(t *testing.T) {
		ev := Event{Data: EventData{
			Key:         MessageKey{RemoteJid: "5511999@s.whatsapp.net"},
			MessageType: "audioMessage",
			Message: MessageContent{
				Base64:       "T2dnUwACAAAA",
				AudioMessage: &MediaMessage{URL: "https://mmg.whatsapp.net/a.enc", Mimetype: "audio/ogg; codecs=opus"},
			},
		}}
		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, "data:audio/ogg;base64,T2dnUwACAAAA", msg.MediaRef)
	})

	t.Run("inline base64 without mimetype", func(t *testing.T) {
		ev := Event{Data: EventData{
			Key:         MessageKey{RemoteJid: "5511999@s.whatsapp.net"},
			MessageType: "imageMessage",
			Message:     MessageContent{Base64: "iVBORw0KGgo="},
		}}
		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, "data:application/octet-stream;base64,iVBORw0KGgo=", msg.MediaRef)
	})

	t.Run("image without reference is not an error", func(t *testing.T) {
		ev := Event{Data: EventData{
			Key:         MessageKey{RemoteJid: "5511999@s.whatsapp.net"},
			MessageType: "imageMessage",
		}}
		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, models.ModalityImage, msg.Modality)
		assert.False(t, msg.HasMediaRef())
	})
}

func TestNormalize_Unsupported(t *testing.T) {
	for _, tag := range []string{"stickerMessage", "videoMessage", "", "reactionMessage"} {
		ev := decode(t, scenarioA)
		ev.Data.MessageType = tag

		msg, err := Normalize(ev)
		require.NoError(t, err)
		assert.Equal(t, models.ModalityUnsupported, msg.Modality, tag)
	}
}

func TestNormalize_DefaultDisplayName(t *testing.T) {
	ev := decode(t, scenarioA)
	ev.Data.PushName = ""

	msg, err := Normalize(ev)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", msg.DisplayName)
}

func TestNormalize_Idempotent(t *testing.T) {
	ev := decode(t, scenarioA)

	first, err1 := Normalize(ev)
	second, err2 := Normalize(ev)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestIsNewMessage(t *testing.T) {
	const chat = "5511999@s.whatsapp.net"
	tests := []struct {
		event  string
		jid    string
		fromMe bool
		want   bool
	}{
		{"messages.upsert", chat, false, true},
		{"MESSAGES_UPSERT", chat, false, true},
		{"messages.upsert", chat, true, false},
		{"messages.upsert", "status@broadcast", false, false},
		{"messages.upsert", "1234567890@broadcast", false, false},
		{"messages.update", chat, false, false},
		{"connection.update", chat, false, false},
		{"", chat, false, false},
	}

	for _, tt := range tests {
		ev := Event{Event: tt.event, Data: EventData{Key: MessageKey{RemoteJid: tt.jid, FromMe: tt.fromMe}}}
		assert.Equal(t, tt.want, IsNewMessage(ev), "%s jid=%s fromMe=%v", tt.event, tt.jid, tt.fromMe)
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("non object data of other events", func(t *testing.T) {
		for _, raw := range []string{
			`{"event": "contacts.upsert", "data": [{"id": "5511999@s.whatsapp.net", "pushName": "Ana"}]}`,
			`{"event": "chats.update", "data": [{"remoteJid": "5511999@s.whatsapp.net"}]}`,
			`{"event": "qrcode.updated", "data": "iVBORw0KGgo="}`,
		} {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(raw), &env), raw)
			assert.False(t, env.IsMessagesUpsert(), raw)
		}
	})

	t.Run("decode upsert", func(t *testing.T) {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(scenarioA), &env))
		require.True(t, env.IsMessagesUpsert())

		ev, err := env.Decode()
		require.NoError(t, err)
		assert.Equal(t, decode(t, scenarioA), ev)
	})

	t.Run("malformed upsert data", func(t *testing.T) {
		for _, raw := range []string{
			`{"event": "messages.upsert", "data": [1, 2]}`,
			`{"event": "messages.upsert", "data": "text"}`,
			`{"event": "messages.upsert"}`,
		} {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(raw), &env), raw)
			_, err := env.Decode()
			require.ErrorIs(t, err, ErrNormalization, raw)
		}
	})
}
