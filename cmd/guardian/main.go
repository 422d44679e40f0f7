package main

import (
	"fmt"
	"os"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "guardian",
		Short: "Meu Guardião: WhatsApp scam message classifier",
		Long: `Meu Guardião receives WhatsApp messages from an Evolution API webhook,
scores their scam risk with an AI backend, stores the analysis and replies
to the sender.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yml", "path to config.yml (empty to use environment only)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(classifyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime loads the configuration and builds the logger
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
