package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/internal/vectorstore"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// DefaultBatchSize is the number of chunks embedded per upsert call.
const DefaultBatchSize = 100

var indexerTracer = otel.Tracer("sfai.internal.indexer")

// Report summarises one indexing run.
type Report struct {
	Chunks   int `json:"chunks"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Upserted int `json:"upserted"`
	Batches  int `json:"batches"`
}

// Options tune an Indexer. Zero values use defaults.
type Options struct {
	BatchSize int
	// EmbedRPS caps embedding calls per second. Zero or less disables the cap.
	EmbedRPS float64
	Logger   *logging.Logger
}

// Indexer embeds chunks and upserts them in batches.
type Indexer struct {
	embedder  llm.Embedder
	store     vectorstore.Upserter
	limiter   *rate.Limiter
	batchSize int
	logger    *logging.Logger
}

func New(embedder llm.Embedder, store vectorstore.Upserter, opts Options) *Indexer {
	if embedder == nil || store == nil {
		panic("indexer: embedder and store are required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.EmbedRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.EmbedRPS), 1)
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		limiter:   limiter,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
}

// Run embeds every chunk and upserts the results batch by batch. A chunk
// whose embedding fails is skipped. An upsert failure stops the run and
// returns the report so far.
func (ix *Indexer) Run(ctx context.Context, chunks []Chunk) (Report, error) {
	ctx, span := indexerTracer.Start(ctx, "indexer.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("sfai.indexer.chunks", len(chunks)),
		attribute.Int("sfai.indexer.batch_size", ix.batchSize),
	)

	report := Report{Chunks: len(chunks)}
	ix.logger.Info("indexing chunks", "chunks", len(chunks), "batch_size", ix.batchSize)

	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batchNo := start/ix.batchSize + 1

		vectors, err := ix.embedBatch(ctx, chunks[start:end], &report)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "embed")
			return report, err
		}
		if len(vectors) == 0 {
			ix.logger.Warn("batch produced no vectors; nothing to upsert", "batch", batchNo)
			continue
		}

		n, err := ix.store.Upsert(ctx, vectors)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upsert")
			return report, fmt.Errorf("indexer: upsert batch %d: %w", batchNo, err)
		}
		report.Batches++
		report.Upserted += n
		ix.logger.Info("upserted batch", "batch", batchNo, "vectors", n)
	}

	span.SetAttributes(
		attribute.Int("sfai.indexer.upserted", report.Upserted),
		attribute.Int("sfai.indexer.skipped", report.Skipped),
	)
	return report, nil
}

// embedBatch returns vectors for the chunks that embedded successfully. Only
// context cancellation is returned as an error.
func (ix *Indexer) embedBatch(ctx context.Context, batch []Chunk, report *Report) ([]vectorstore.Vector, error) {
	vectors := make([]vectorstore.Vector, 0, len(batch))
	for _, chunk := range batch {
		if err := ix.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("indexer: embed throttle: %w", err)
		}
		values, err := llm.EmbedOne(ctx, ix.embedder, chunk.Text, llm.TaskRetrievalDocument)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			report.Skipped++
			ix.logger.Warn("could not embed chunk; skipping", "id", chunk.ID, "text", preview(chunk.Text), "error", err)
			continue
		}
		report.Embedded++
		vectors = append(vectors, vectorstore.Vector{ID: chunk.ID, Values: values, Text: chunk.Text})
	}
	return vectors, nil
}

func preview(text string) string {
	const n = 50
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
