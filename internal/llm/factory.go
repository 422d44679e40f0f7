package llm

import (
	"fmt"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/gemini"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/openai"

	"go.uber.org/zap"
)

// ProviderConfig selects and configures the classifier backend
type ProviderConfig struct {
	Type               ProviderType  `yaml:"provider" envconfig:"PROVIDER" validate:"required,oneof=gemini openai groq openrouter"`
	APIKey             string        `yaml:"api_key" envconfig:"API_KEY" validate:"required"`
	ModelName          string        `yaml:"model" envconfig:"MODEL"`
	BaseURL            string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	TranscriptionModel string        `yaml:"transcription_model" envconfig:"TRANSCRIPTION_MODEL"`
	JSONMode           bool          `yaml:"json_mode" envconfig:"JSON_MODE"`
	Timeout            time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	// Rate limiting for the provider
	RequestsPerMinute int `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE" validate:"gte=0"`
}

// openAICompatible holds the defaults of providers speaking the chat completions API
var openAICompatible = map[ProviderType]openai.Config{
	ProviderOpenAI: {
		BaseURL:            "https://api.openai.com/v1",
		ModelName:          "gpt-4o",
		TranscriptionModel: "whisper-1",
	},
	ProviderGroq: {
		BaseURL:   "https://api.groq.com/openai/v1",
		ModelName: "llama-3.3-70b-versatile",
	},
	ProviderOpenRouter: {
		BaseURL:   "https://openrouter.ai/api/v1",
		ModelName: "meta-llama/llama-3.2-3b-instruct:free",
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/eucesarrodrigues/chatbot-meuguardiao",
			"X-Title":      "Meu Guardiao",
		},
	},
}

// NewBackend creates the backend named by cfg.Type
func NewBackend(cfg ProviderConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Type {
	case ProviderGemini:
		client, err := gemini.NewClient(gemini.Config{
			APIKey:            cfg.APIKey,
			ModelName:         cfg.ModelName,
			SystemInstruction: SystemInstruction,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderOpenAI, ProviderGroq, ProviderOpenRouter:
		preset := openAICompatible[cfg.Type]
		preset.Provider = string(cfg.Type)
		preset.APIKey = cfg.APIKey
		preset.SystemInstruction = SystemInstruction
		preset.JSONMode = cfg.JSONMode
		preset.Timeout = cfg.Timeout
		if cfg.BaseURL != "" {
			preset.BaseURL = cfg.BaseURL
		}
		if cfg.ModelName != "" {
			preset.ModelName = cfg.ModelName
		}
		if cfg.TranscriptionModel != "" {
			preset.TranscriptionModel = cfg.TranscriptionModel
		}
		client, err := openai.NewClient(preset, logger)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
