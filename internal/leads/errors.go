package leads

import "errors"

// Response messages. Downstream causes are logged, never returned.
const (
	msgMissingCandidates = "Invalid JSON: payload must contain a 'candidates' key."
	msgInternalError     = "An internal error occurred."
)

var (
	// ErrGenerationFailed wraps any failure of the generation collaborator
	ErrGenerationFailed = errors.New("leads: lead scoring generation failed")

	// ErrNilRequest is returned when Score is called without a request
	ErrNilRequest = errors.New("leads: predict request is required")
)
