package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/llm"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var mediaRef string

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify one message with the configured backend and print the verdict",
		Long: `Runs a single classification outside the webhook pipeline. Text is taken
from the arguments; with --media the referenced image or audio is downloaded
and the arguments are sent as its caption.`,
		Example: `  guardian classify "Seu CPF será bloqueado, clique no link"
  guardian classify --media https://example.com/boleto.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" && mediaRef == "" {
				return errors.New("nothing to classify: pass a text or --media")
			}

			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			backend, err := llm.NewBackend(cfg.Classifier, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize classifier backend: %w", err)
			}
			classifier := llm.NewClassifier(backend, 0, logger)
			defer classifier.Close()

			ctx := cmd.Context()
			var verdict models.RiskVerdict
			if mediaRef != "" {
				content, err := media.NewHTTPResolver(cfg.Media, logger).Resolve(ctx, mediaRef)
				if err != nil {
					return err
				}
				verdict, err = classifier.ClassifyMedia(ctx, content, text)
				if err != nil {
					return fmt.Errorf("%s cannot analyze %s: %w", classifier.Provider(), content.MIMEType, err)
				}
			} else {
				verdict = classifier.ClassifyText(ctx, text)
			}

			out, err := json.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&mediaRef, "media", "", "URL of an image or audio file to classify")
	return cmd
}
