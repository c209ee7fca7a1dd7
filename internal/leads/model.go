package leads

import "encoding/json"

const (
	MinScore = 1
	MaxScore = 10
)

// LeadRecord is one scored lead extracted from generated text.
type LeadRecord struct {
	Name          string `json:"name"`
	Company       string `json:"company"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// PredictRequest is the body of POST /predict. Candidates, winners and losers
// are forwarded to the model as-is, so any JSON value is accepted per entry.
type PredictRequest struct {
	Candidates []json.RawMessage `json:"candidates"`
	Winners    []json.RawMessage `json:"winners,omitempty"`
	Losers     []json.RawMessage `json:"losers,omitempty"`
}
