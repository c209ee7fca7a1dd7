// Package answer answers questions about Salesforce metadata from chunks
// retrieved out of the vector store.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/internal/observability/metrics"
	"github.com/wolfman30/salesforce-ai-backend/internal/vectorstore"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

var answerTracer = otel.Tracer("sfai.internal.answer")

type Service struct {
	embedder  llm.Embedder
	searcher  vectorstore.Searcher
	generator llm.Generator
	topK      int
	logger    *logging.Logger
	metrics   *metrics.APIMetrics
}

// Option configures a Service.
type Option func(*Service)

func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.APIMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the embed, search and generate collaborators.
func NewService(embedder llm.Embedder, searcher vectorstore.Searcher, generator llm.Generator, opts ...Option) *Service {
	if embedder == nil || searcher == nil || generator == nil {
		panic("answer: embedder, searcher and generator are required")
	}
	s := &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		topK:      DefaultTopK,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer returns the model's reply verbatim. Any collaborator failure is
// returned wrapped; there are no retries.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	ctx, span := answerTracer.Start(ctx, "answer.query")
	defer span.End()
	span.SetAttributes(attribute.Int("sfai.answer.top_k", s.topK))

	start := time.Now()
	vector, err := llm.EmbedOne(ctx, s.embedder, question, llm.TaskRetrievalQuery)
	s.metrics.ObserveUpstream("embed", err, time.Since(start).Seconds())
	if err != nil {
		return "", failSpan(span, ErrEmbedFailed, err)
	}

	start = time.Now()
	matches, err := s.searcher.Query(ctx, vector, s.topK)
	s.metrics.ObserveUpstream("search", err, time.Since(start).Seconds())
	if err != nil {
		return "", failSpan(span, ErrSearchFailed, err)
	}
	span.SetAttributes(attribute.Int("sfai.answer.matches", len(matches)))

	prompt, err := BuildPrompt(question, matches)
	if err != nil {
		return "", failSpan(span, ErrGenerateFailed, err)
	}

	start = time.Now()
	resp, err := s.generator.Complete(ctx, llm.Request{Prompt: prompt, Temperature: -1})
	s.metrics.ObserveUpstream("generate", err, time.Since(start).Seconds())
	if err != nil {
		return "", failSpan(span, ErrGenerateFailed, err)
	}

	s.logger.Debug("question answered", "matches", len(matches), "answer_len", len(resp.Text))
	return resp.Text, nil
}

func failSpan(span trace.Span, stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage.Error())
	return fmt.Errorf("%w: %w", stage, err)
}
