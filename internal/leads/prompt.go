package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

var scoringPrompt = template.Must(template.New("scoring").Parse(`You are a sales analyst scoring Salesforce leads by their likelihood to convert.
{{- if .Winners}}

Historical leads that converted:
{{range .Winners}}- {{.}}
{{end}}
{{- end}}
{{- if .Losers}}

Historical leads that did not convert:
{{range .Losers}}- {{.}}
{{end}}
{{- end}}

Score each candidate lead from 1 (very unlikely) to 10 (very likely).
Reply with exactly one line per candidate in this format and nothing else:
• <Name> (<Company>) (Score: <N>/10): <one sentence justification>

CANDIDATES:
{{range .Candidates}}- {{.}}
{{end}}`))

type promptData struct {
	Candidates []string
	Winners    []string
	Losers     []string
}

// BuildPrompt renders the scoring prompt. Each lead is embedded as compact
// JSON on its own line.
func BuildPrompt(req *PredictRequest) (string, error) {
	data := promptData{}
	var err error
	if data.Candidates, err = compactAll(req.Candidates); err != nil {
		return "", fmt.Errorf("leads: encode candidates: %w", err)
	}
	if data.Winners, err = compactAll(req.Winners); err != nil {
		return "", fmt.Errorf("leads: encode winners: %w", err)
	}
	if data.Losers, err = compactAll(req.Losers); err != nil {
		return "", fmt.Errorf("leads: encode losers: %w", err)
	}

	var buf bytes.Buffer
	if err := scoringPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("leads: render prompt: %w", err)
	}
	return buf.String(), nil
}

func compactAll(items []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var buf bytes.Buffer
		if err := json.Compact(&buf, item); err != nil {
			return nil, err
		}
		out = append(out, buf.String())
	}
	return out, nil
}
