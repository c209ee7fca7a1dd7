package llm

import (
	"context"
	"errors"
)

// TaskType tells the embedding model how the vector will be used.
type TaskType int

const (
	TaskUnspecified TaskType = iota
	// TaskRetrievalQuery is used for questions embedded at request time.
	TaskRetrievalQuery
	// TaskRetrievalDocument is used for chunks written to the vector store.
	TaskRetrievalDocument
)

func (t TaskType) String() string {
	switch t {
	case TaskRetrievalQuery:
		return "retrieval_query"
	case TaskRetrievalDocument:
		return "retrieval_document"
	default:
		return "unspecified"
	}
}

var (
	// ErrEmptyPrompt is returned when a completion is requested without a prompt.
	ErrEmptyPrompt = errors.New("llm: prompt is required")
	// ErrEmptyCompletion is returned when the model produced no text.
	ErrEmptyCompletion = errors.New("llm: model returned no text")
	// ErrEmptyEmbedding is returned when the model produced no vector.
	ErrEmptyEmbedding = errors.New("llm: embedding response was empty")
)

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is a single-turn generation request.
type Request struct {
	System      []string
	Prompt      string
	MaxTokens   int32
	Temperature float32 // negative leaves the provider default
	TopP        float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Generator produces free text from a prompt.
type Generator interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Embedder turns texts into fixed-dimension vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string, task TaskType) ([][]float32, error)
}

// Client is a provider that can both generate and embed.
type Client interface {
	Generator
	Embedder
	Close() error
}

// EmbedOne embeds a single text and returns its vector.
func EmbedOne(ctx context.Context, e Embedder, text string, task TaskType) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return vectors[0], nil
}
