package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

type fakeScorer struct {
	records []LeadRecord
	err     error
	got     *PredictRequest
}

func (f *fakeScorer) Score(_ context.Context, req *PredictRequest) ([]LeadRecord, error) {
	f.got = req
	return f.records, f.err
}

func postPredict(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Predict(rec, req)
	return rec
}

func TestPredict_ReturnsRecords(t *testing.T) {
	scorer := &fakeScorer{records: []LeadRecord{{Name: "Jane Doe", Company: "Acme Corp", Score: 8, Justification: "Strong engagement history."}}}
	h := NewHandler(scorer, logging.Default())

	rec := postPredict(t, h, `{"candidates":[{"Name":"Jane Doe"}],"winners":[],"losers":[{"Name":"Old"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"name":"Jane Doe","company":"Acme Corp","score":8,"justification":"Strong engagement history."}]`, rec.Body.String())
	require.NotNil(t, scorer.got)
	assert.Len(t, scorer.got.Candidates, 1)
	assert.Len(t, scorer.got.Losers, 1)
}

func TestPredict_EmptyResultIsArray(t *testing.T) {
	h := NewHandler(&fakeScorer{}, nil)

	rec := postPredict(t, h, `{"candidates":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPredict_BadRequests(t *testing.T) {
	bodies := map[string]string{
		"missing candidates": `{"winners":[]}`,
		"malformed json":     `{"candidates":`,
		"not an object":      `[1,2,3]`,
		"candidates string":  `{"candidates":"Jane"}`,
		"winners object":     `{"candidates":[],"winners":{}}`,
		"empty body":         ``,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			scorer := &fakeScorer{}
			rec := postPredict(t, NewHandler(scorer, nil), body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid JSON: payload must contain a 'candidates' key."}`, rec.Body.String())
			assert.Nil(t, scorer.got)
		})
	}
}

func TestPredict_ScorerFailureHidesCause(t *testing.T) {
	h := NewHandler(&fakeScorer{err: errors.New("gemini: api key invalid")}, nil)

	rec := postPredict(t, h, `{"candidates":[{"Name":"x"}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An internal error occurred."}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "api key")
}

func TestPredict_EndToEndWithScorer(t *testing.T) {
	gen := &stubGenerator{text: "Sure!\n\n• Jane Doe (Acme Corp) (Score: 8/10): Strong engagement history.\n• Bob Lee (Globex) (Score: 11/10): Over the top.\n\nThanks."}
	h := NewHandler(NewScorer(gen, nil, nil), nil)

	rec := postPredict(t, h, `{"candidates":[{"Name":"Jane Doe"},{"Name":"Bob Lee"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []LeadRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []LeadRecord{{Name: "Jane Doe", Company: "Acme Corp", Score: 8, Justification: "Strong engagement history."}}, got)
}
