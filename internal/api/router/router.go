package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salesforce-ai-backend/internal/answer"
	httpmiddleware "github.com/wolfman30/salesforce-ai-backend/internal/http/middleware"
	"github.com/wolfman30/salesforce-ai-backend/internal/http/payload"
	"github.com/wolfman30/salesforce-ai-backend/internal/leads"
	"github.com/wolfman30/salesforce-ai-backend/internal/observability/metrics"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	AnswerHandler  *answer.Handler
	LeadsHandler   *leads.Handler
	Metrics        *metrics.APIMetrics
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(httpmiddleware.Metrics(cfg.Metrics))
	r.Use(httpmiddleware.Recoverer(cfg.Logger))

	r.Get("/", healthCheck)
	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AnswerHandler != nil {
		r.Post("/query", cfg.AnswerHandler.Query)
	}
	if cfg.LeadsHandler != nil {
		r.Post("/predict", cfg.LeadsHandler.Predict)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	payload.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
