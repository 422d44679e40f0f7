package gemini

import (
	"context"
	"testing"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResponseText(t *testing.T) {
	t.Run("first text part", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"risco": 8}`)}},
			}},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, `{"risco": 8}`, text)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		require.Error(t, err)
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := responseText(nil)
		require.Error(t, err)
	})

	t.Run("candidate without content", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
		require.Error(t, err)
	})

	t.Run("non text part", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
			}},
		}
		_, err := responseText(resp)
		require.Error(t, err)
	})
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestGenerateMedia_RejectsNonMedia(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	_, err := c.GenerateMedia(context.Background(), "prompt", media.Content{MIMEType: "application/pdf"})
	require.ErrorIs(t, err, media.ErrUnsupported)
}
