package leads

import (
	"context"
	"errors"
	"net/http"

	"github.com/wolfman30/salesforce-ai-backend/internal/http/payload"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// LeadScorer is satisfied by *Scorer.
type LeadScorer interface {
	Score(ctx context.Context, req *PredictRequest) ([]LeadRecord, error)
}

// Handler serves POST /predict.
type Handler struct {
	scorer LeadScorer
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(scorer LeadScorer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{scorer: scorer, logger: logger}
}

// Predict handles POST /predict requests
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := payload.Decode(r, predictSchema, &req); err != nil {
		h.logger.Warn("rejected predict payload", "error", err)
		payload.WriteError(w, http.StatusBadRequest, msgMissingCandidates)
		return
	}

	records, err := h.scorer.Score(r.Context(), &req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Info("predict request canceled", "error", err)
		} else {
			h.logger.Error("failed to score leads", "error", err)
		}
		payload.WriteError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	if records == nil {
		records = []LeadRecord{}
	}

	h.logger.Info("leads scored", "candidates", len(req.Candidates), "records", len(records))
	payload.WriteJSON(w, http.StatusOK, records)
}
