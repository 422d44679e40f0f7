package main

import (
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := repository.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(db, logger); err != nil {
				return err
			}
			logger.Info("Schema is up to date", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
