// Package main is the entry point for the memory engine daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/config"
	"github.com/hearthbot/memorycore/internal/handler"
	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/memory"
	"github.com/hearthbot/memorycore/internal/middleware"
	natsclient "github.com/hearthbot/memorycore/internal/nats"
	"github.com/hearthbot/memorycore/internal/staging"
	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting memory engine daemon")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "memorycore", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Connect to NATS and ensure the backing stream exists.
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	store := natsclient.NewStore(natsClient, log)
	if err := store.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Build the credential pool across providers.
	pool, err := buildPool(cfg, log)
	if err != nil {
		log.Error("failed to build credential pool", zap.Error(err))
		os.Exit(1)
	}

	gateway := llm.NewGateway(pool, cfg.RetryBackoff, log)
	gateway.StartStatsLogger(ctx, cfg.StatsInterval)

	area, err := staging.New(cfg.StagingDir)
	if err != nil {
		log.Error("failed to create staging area", zap.Error(err))
		os.Exit(1)
	}

	system := memory.NewSystem(store, gateway, area, memory.Params{
		MaxFullMessages:      cfg.MaxFullMessages,
		CompressionThreshold: cfg.CompressionThreshold,
		IndexBatchSize:       cfg.IndexBatchSize,
		RetrievalTopK:        cfg.RetrievalTopK,
		RelevanceFloor:       cfg.RelevanceFloor,
		EmbeddingCacheSize:   cfg.EmbeddingCacheSize,
		InlineTranscriptMax:  cfg.InlineTranscriptMax,
		EmbeddingModel:       cfg.EmbeddingModel,
	}, log)

	healthHandler := handler.NewHealthHandler(natsClient)
	memoryHandler := handler.NewMemoryHandler(system, log)
	credentialsHandler := handler.NewCredentialsHandler(gateway)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/memory", func(r chi.Router) {
			r.Get("/status", memoryHandler.Status)
			r.Delete("/entries", memoryHandler.DeleteOldEntries)
			r.Post("/{historyID}/reindex", memoryHandler.Reindex)
			r.Get("/{historyID}/entries", memoryHandler.Entries)
		})

		r.Get("/llm/credentials", credentialsHandler.Stats)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight background indexing drain, then emit the final
	// credential usage snapshot.
	system.Close()
	cancel()
	gateway.LogStats()

	log.Info("stopped")
}

// buildPool assembles the gateway credential pool from configured keys.
func buildPool(cfg *config.Config, log *logger.Logger) (*llm.Pool, error) {
	var entries []llm.PoolEntry

	for i, key := range cfg.OpenAIAPIKeys {
		p, err := llm.NewOpenAIProvider(key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, llm.PoolEntry{
			Name:     fmt.Sprintf("openai-%d", i+1),
			Provider: p,
		})
	}

	for i, key := range cfg.AnthropicAPIKeys {
		p, err := llm.NewAnthropicProvider(key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, llm.PoolEntry{
			Name:     fmt.Sprintf("anthropic-%d", i+1),
			Provider: p,
		})
	}

	log.Info("credential pool assembled",
		zap.Int("openai_keys", len(cfg.OpenAIAPIKeys)),
		zap.Int("anthropic_keys", len(cfg.AnthropicAPIKeys)),
	)

	return llm.NewPool(entries)
}
