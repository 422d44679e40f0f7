package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBackend_OpenAICompatiblePresets(t *testing.T) {
	tests := []struct {
		provider ProviderType
		model    string
		media    bool
	}{
		{ProviderOpenAI, "gpt-4o", true},
		{ProviderGroq, "llama-3.3-70b-versatile", true},
		{ProviderOpenRouter, "meta-llama/llama-3.2-3b-instruct:free", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			backend, err := NewBackend(ProviderConfig{Type: tt.provider, APIKey: "key"}, zap.NewNop())
			require.NoError(t, err)
			defer backend.Close()

			assert.Equal(t, string(tt.provider), backend.Name())
			assert.Equal(t, tt.model, backend.Model())
			_, ok := backend.(MediaBackend)
			assert.Equal(t, tt.media, ok)
		})
	}
}

func TestNewBackend_Overrides(t *testing.T) {
	backend, err := NewBackend(ProviderConfig{
		Type:      ProviderGroq,
		APIKey:    "key",
		ModelName: "mixtral-8x7b",
		BaseURL:   "http://localhost:9999/v1",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mixtral-8x7b", backend.Model())
}

func TestNewBackend_Errors(t *testing.T) {
	_, err := NewBackend(ProviderConfig{Type: "claude", APIKey: "key"}, zap.NewNop())
	require.Error(t, err)

	_, err = NewBackend(ProviderConfig{Type: ProviderOpenAI}, zap.NewNop())
	require.Error(t, err)
}
