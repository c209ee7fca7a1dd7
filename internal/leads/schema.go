package leads

import "github.com/wolfman30/salesforce-ai-backend/internal/http/payload"

var predictSchema = payload.MustCompile(`{
  "type": "object",
  "required": ["candidates"],
  "properties": {
    "candidates": {"type": "array"},
    "winners": {"type": "array"},
    "losers": {"type": "array"}
  }
}`)
