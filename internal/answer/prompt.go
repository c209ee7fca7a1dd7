package answer

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/wolfman30/salesforce-ai-backend/internal/vectorstore"
)

var answerPrompt = template.Must(template.New("answer").Parse(`
You are a factual database engine for Salesforce metadata.
Your task is to answer the user's question based ONLY on the provided context.
- Answer only what is asked.
- Do NOT add any greetings, explanations, or sales insights.
- If the question asks for a list, provide a simple bulleted list.
- Be as brief and direct as possible.

CONTEXT:
{{.Context}}

QUESTION:
{{.Question}}

ANSWER:
`))

// BuildContext joins match texts in rank order, each followed by a blank line.
func BuildContext(matches []vectorstore.Match) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// BuildPrompt renders the retrieval-augmented prompt for a question.
func BuildPrompt(question string, matches []vectorstore.Match) (string, error) {
	var buf bytes.Buffer
	err := answerPrompt.Execute(&buf, struct {
		Context  string
		Question string
	}{BuildContext(matches), question})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
