package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/alert"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/dispatcher"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/evolution"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/llm"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. GUARDIAN_CLASSIFIER_API_KEY
const EnvPrefix = "GUARDIAN"

// Config holds application configuration
type Config struct {
	AppName string `yaml:"app_name" envconfig:"APP_NAME" validate:"required"`

	Log LogConfig `yaml:"log" envconfig:"LOG"`

	Server struct {
		Port string `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
	} `yaml:"server" envconfig:"SERVER"`

	Database   repository.Config     `yaml:"database" envconfig:"DATABASE"`
	Classifier llm.ProviderConfig    `yaml:"classifier" envconfig:"CLASSIFIER"`
	Evolution  evolution.Config      `yaml:"evolution" envconfig:"EVOLUTION"`
	Media      media.ResolverConfig  `yaml:"media" envconfig:"MEDIA"`
	Dispatch   dispatcher.PoolConfig `yaml:"dispatch" envconfig:"DISPATCH"`
	Timeouts   dispatcher.Timeouts   `yaml:"timeouts" envconfig:"TIMEOUTS"`
	Alerts     alert.Config          `yaml:"alerts" envconfig:"ALERTS"`
}

// LogConfig selects the zap logger
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// LoadConfig loads configuration from a .env file, the YAML file at
// configPath and GUARDIAN_* environment variables, in that order of
// increasing precedence. An empty configPath skips the YAML file.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := defaults()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}

		// ${VAR} references in the file are expanded before decoding
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyDerivedDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks config against its struct tags
func Validate(config *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaults() *Config {
	config := &Config{AppName: "Meu Guardião"}
	config.Log.Level = "info"
	config.Server.Port = "8000"

	config.Database.Driver = repository.DriverSQLite
	config.Database.URL = "./data/guardian.db"

	config.Classifier.Type = llm.ProviderGemini
	config.Classifier.Timeout = 30 * time.Second
	config.Classifier.JSONMode = true
	config.Classifier.RequestsPerMinute = 15

	config.Evolution.URL = "http://evolution:8080"
	config.Evolution.Instance = "meuguardiao"
	config.Evolution.Timeout = 15 * time.Second

	config.Media.MaxBytes = media.DefaultMaxBytes
	config.Media.Timeout = 30 * time.Second

	config.Dispatch.Workers = 4
	config.Dispatch.QueueSize = 100
	config.Dispatch.ShutdownTimeout = 30 * time.Second

	config.Timeouts = dispatcher.Timeouts{
		Classify: 45 * time.Second,
		Media:    30 * time.Second,
		Store:    5 * time.Second,
		Notify:   15 * time.Second,
	}
	return config
}

// applyDerivedDefaults fills settings derived from other sections
func applyDerivedDefaults(config *Config) {
	// Evolution media URLs need the same apikey as the send endpoint
	if config.Evolution.APIKey != "" {
		if config.Media.Headers == nil {
			config.Media.Headers = map[string]string{}
		}
		if _, ok := config.Media.Headers["apikey"]; !ok {
			config.Media.Headers["apikey"] = config.Evolution.APIKey
		}
	}
}

// NewLogger builds the zap logger described by c
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapConfig := zap.NewProductionConfig()
	if c.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = level

	return zapConfig.Build()
}
