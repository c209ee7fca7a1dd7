package answer

import "errors"

const (
	msgMissingQuestion = "Invalid JSON: payload must contain a 'question' key."
	msgInternalError   = "An internal error occurred."
)

var (
	ErrEmptyQuestion  = errors.New("answer: question is required")
	ErrEmbedFailed    = errors.New("answer: embedding the question failed")
	ErrSearchFailed   = errors.New("answer: vector search failed")
	ErrGenerateFailed = errors.New("answer: generation failed")
)
