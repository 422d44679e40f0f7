package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/alert"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/config"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/dispatcher"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/evolution"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/handler"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/llm"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and the dispatch workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Meu Guardião...", zap.String("app", cfg.AppName))

	db, err := repository.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(db, logger); err != nil {
		return err
	}

	senders := repository.NewSenderRepository(db, logger)
	analyses := repository.NewAnalysisRepository(db, logger)

	backend, err := llm.NewBackend(cfg.Classifier, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier backend: %w", err)
	}
	classifier := llm.NewClassifier(backend, cfg.Classifier.RequestsPerMinute, logger)
	defer classifier.Close()

	notifier, err := evolution.NewClient(cfg.Evolution, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize evolution client: %w", err)
	}

	deps := dispatcher.Dependencies{
		Classifier: classifier,
		Resolver:   media.NewHTTPResolver(cfg.Media, logger),
		Senders:    senders,
		Analyses:   analyses,
		Notifier:   notifier,
	}

	if cfg.Alerts.Enabled() {
		alerter, err := alert.NewTelegramAlerter(cfg.Alerts, logger)
		if err != nil {
			logger.Warn("Operator alerts disabled", zap.Error(err))
		} else {
			deps.Alerter = alerter
		}
	}

	d := dispatcher.New(deps, dispatcher.Options{
		Timeouts:      cfg.Timeouts,
		AlertMinScore: cfg.Alerts.MinScore,
	}, logger)

	pool := dispatcher.NewPool(d, cfg.Dispatch, logger)
	// workers outlive the signal context so the queue can drain
	pool.Start(context.WithoutCancel(ctx))

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))
	handler.NewHandler(cfg.AppName, pool, d, senders, analyses, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("address", srv.Addr),
			zap.String("provider", classifier.Provider()),
			zap.String("model", classifier.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownTimeout := cfg.Dispatch.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// stop intake first, then drain what was accepted
		srvErr := srv.Shutdown(shutdownCtx)
		poolErr := pool.Shutdown(shutdownCtx)

		stats := d.Stats()
		logger.Info("Server exited",
			zap.Int64("received", stats.Received),
			zap.Int64("done", stats.Done),
			zap.Int64("aborted", stats.Aborted),
			zap.Int64("rejected", pool.Rejected()))
		return errors.Join(srvErr, poolErr)
	})

	return g.Wait()
}
