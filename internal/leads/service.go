package leads

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/internal/observability/metrics"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

var scoringTracer = otel.Tracer("sfai.internal.leads")

// Scorer asks the generation model to score candidate leads and parses the reply.
type Scorer struct {
	generator llm.Generator
	logger    *logging.Logger
	metrics   *metrics.APIMetrics
}

// NewScorer constructs a Scorer. metrics may be nil.
func NewScorer(generator llm.Generator, logger *logging.Logger, m *metrics.APIMetrics) *Scorer {
	if generator == nil {
		panic("leads: generator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scorer{generator: generator, logger: logger, metrics: m}
}

// Score returns the records parsed from the model reply. No candidates means
// nothing to score, so the model is not called.
func (s *Scorer) Score(ctx context.Context, req *PredictRequest) ([]LeadRecord, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	ctx, span := scoringTracer.Start(ctx, "leads.score")
	defer span.End()
	span.SetAttributes(
		attribute.Int("sfai.leads.candidates", len(req.Candidates)),
		attribute.Int("sfai.leads.winners", len(req.Winners)),
		attribute.Int("sfai.leads.losers", len(req.Losers)),
	)

	if len(req.Candidates) == 0 {
		return []LeadRecord{}, nil
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prompt")
		return nil, err
	}

	start := time.Now()
	resp, err := s.generator.Complete(ctx, llm.Request{Prompt: prompt, Temperature: -1})
	s.metrics.ObserveUpstream("generate", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	records := ParseScores(resp.Text)
	s.metrics.ObserveLeadsParsed(len(records))
	span.SetAttributes(attribute.Int("sfai.leads.parsed", len(records)))
	if len(records) == 0 {
		s.logger.Warn("no lead records parsed from model output", "candidates", len(req.Candidates), "output_len", len(resp.Text))
	}
	return records, nil
}
