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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/salesforce-ai-backend/internal/answer"
	"github.com/wolfman30/salesforce-ai-backend/internal/api/router"
	"github.com/wolfman30/salesforce-ai-backend/internal/app/bootstrap"
	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/leads"
	"github.com/wolfman30/salesforce-ai-backend/internal/observability/metrics"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting salesforce-ai-backend API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"vector_store", cfg.VectorStore,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	llmClient, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize llm client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = llmClient.Close() }()

	vectors, err := bootstrap.BuildVectorStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize vector store", "error", err)
		os.Exit(1)
	}
	defer vectors.Close()

	metricsHandler, apiMetrics := setupMetrics(cfg.MetricsEnabled)

	// Initialize services and handlers
	answerService := answer.NewService(llmClient, vectors.Store, llmClient,
		answer.WithTopK(cfg.QueryTopK),
		answer.WithLogger(logger.WithComponent("answer")),
		answer.WithMetrics(apiMetrics),
	)
	scorer := leads.NewScorer(llmClient, logger.WithComponent("leads"), apiMetrics)

	r := router.New(&router.Config{
		Logger:         logger,
		AnswerHandler:  answer.NewHandler(answerService, logger),
		LeadsHandler:   leads.NewHandler(scorer, logger),
		Metrics:        apiMetrics,
		MetricsHandler: metricsHandler,
	})

	srv := newServer(cfg, r)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// setupMetrics returns the /metrics handler and the API collectors backed by
// a dedicated registry. Both are nil when metrics are disabled.
func setupMetrics(enabled bool) (http.Handler, *metrics.APIMetrics) {
	if !enabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewAPIMetrics(reg)
}
