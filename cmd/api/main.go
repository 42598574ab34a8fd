// Package main is the entry point for the API server.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/config"
	"github.com/capitalize-ai/promptcraft/internal/handler"
	"github.com/capitalize-ai/promptcraft/internal/llm"
	natsclient "github.com/capitalize-ai/promptcraft/internal/nats"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
	"github.com/capitalize-ai/promptcraft/pkg/tracing"
)

const serviceName = "promptcraft-api"

func main() {
	rootCmd := &cobra.Command{
		Use:          "promptcraft-api",
		Short:        "Chat history and prompt library API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables and exit",
		RunE:  runMigrate,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	var (
		log *logger.Logger
		err error
	)
	if cfg.Development {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	for _, key := range cfg.InvalidKeys {
		log.Warn("ignoring unparseable environment variable, using default", zap.String("key", key))
	}

	return cfg, log, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, error) {
	st, err := store.Open(store.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, log)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info("database migrated", zap.String("driver", cfg.DBDriver))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting API server")

	ctx := context.Background()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := handler.Deps{
		DB:                 st,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Event publishing is optional; without NATS_URL the services get a nil publisher.
	var publisher service.EventPublisher
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			return err
		}

		publisher = streamManager
		deps.NATS = natsClient
		deps.Events = streamManager
	} else {
		log.Info("NATS_URL not set, event publishing disabled")
	}

	clients := llm.NewFactory(llm.Config{
		Provider: llm.Provider(cfg.LLMProvider),
		APIKey:   cfg.LLMAPIKey,
	})
	log.Info("text generation configured", zap.String("provider", string(clients.Provider())))

	deps.Prompts = service.NewPromptService(st, log)
	deps.Conversations = service.NewConversationService(st, publisher, log)
	deps.Chat = service.NewChatService(st, clients, service.ChatConfig{
		Model:             cfg.LLMModel,
		MaxTokens:         cfg.LLMMaxTokens,
		Temperature:       cfg.LLMTemperature,
		GenerationTimeout: cfg.GenerationTimeout,
		PersistTimeout:    cfg.PersistTimeout,
		DefaultAPIKey:     cfg.LLMAPIKey,
	}, publisher, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps, log),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	}

	log.Info("shutting down server")

	// In-flight streams may still be generating and persisting.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+cfg.PersistTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
