package answer

import (
	"context"
	"net/http"

	"github.com/wolfman30/salesforce-ai-backend/internal/http/payload"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

var querySchema = payload.MustCompile(`{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question": {"type": "string", "pattern": "\\S"}
  }
}`)

// Answerer is satisfied by *Service.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

// Handler serves POST /query.
type Handler struct {
	answerer Answerer
	logger   *logging.Logger
}

func NewHandler(answerer Answerer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{answerer: answerer, logger: logger}
}

// Query handles POST /query requests
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := payload.Decode(r, querySchema, &req); err != nil {
		h.logger.Warn("rejected query payload", "error", err)
		payload.WriteError(w, http.StatusBadRequest, msgMissingQuestion)
		return
	}

	text, err := h.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("failed to answer question", "error", err)
		payload.WriteError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	payload.WriteJSON(w, http.StatusOK, QueryResponse{Answer: text})
}
