package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"continuum/backend/internal/adapter"
	"continuum/backend/internal/api"
	"continuum/backend/internal/archive"
	"continuum/backend/internal/constants"
	"continuum/backend/internal/ingest"
	"continuum/backend/internal/session"
	"continuum/backend/pkg/config"
	"continuum/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph server...", zap.String("env", cfg.Env))

	ctx := context.Background()
	opts := buildOptions(ctx, cfg, log)
	if closer, ok := opts.Archiver.(*archive.Neo4jArchiver); ok {
		defer closer.Close(context.Background())
	}

	store := session.NewStore()
	server := api.NewServer(store, opts)

	// Expire idle sessions the same way an explicit end does
	janitor, err := session.NewJanitor(store, cfg.SweepSchedule, cfg.SessionIdleTimeout, func(sess *session.Session) {
		sctx, cancel := context.WithTimeout(context.Background(), constants.FinalizeTimeout)
		defer cancel()
		server.Finalize(sctx, sess)
	})
	if err != nil {
		log.Fatal("Failed to create session janitor", zap.Error(err))
	}
	janitor.Start()
	defer janitor.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited", zap.Int("live_sessions", store.Len()))
}

// buildOptions wires the optional LLM and archive collaborators from config
func buildOptions(ctx context.Context, cfg *config.Config, log *zap.Logger) api.Options {
	opts := api.Options{
		Fetcher: ingest.NewFetcher(ingest.FetcherConfig{
			Timeout:     cfg.FetchTimeout,
			UserAgent:   cfg.UserAgent,
			MaxBytes:    cfg.MaxPageBytes,
			Concurrency: cfg.FetchConcurrency,
		}),
	}

	if cfg.LLMEnabled() {
		llm := adapter.NewLLMAdapter(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ModelID)
		opts.Summarizer = llm
		opts.Companion = llm
		opts.Concepts = llm
		opts.Pipeline = ingest.NewPipeline(ingest.NewLLMExtractor(llm))
		log.Info("LLM enabled", zap.String("model", llm.Model()))
	} else {
		log.Info("LLM disabled, using heuristic extraction, canned companion prompts and fallback summaries")
	}

	if cfg.ArchiveEnabled {
		driver, err := archive.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect session archive", zap.Error(err))
		}
		opts.Archiver = archive.NewNeo4jArchiver(driver)
		log.Info("Session archive enabled", zap.String("uri", cfg.Neo4jURI))
	}

	return opts
}
