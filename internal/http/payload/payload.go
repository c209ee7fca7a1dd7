// Package payload decodes schema-checked JSON request bodies and writes JSON
// responses for the HTTP handlers.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultMaxBodyBytes caps request bodies read by Decode.
const DefaultMaxBodyBytes = 1 << 20

// ErrInvalidPayload wraps every request-shape failure: unreadable body,
// malformed JSON or a schema violation.
var ErrInvalidPayload = errors.New("payload: invalid request body")

// Schema is a compiled JSON schema for a request body.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a JSON schema document and panics when it is invalid.
func MustCompile(document string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("payload: invalid schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks a raw JSON document against the schema.
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(errs, "; "))
	}
	return nil
}

// Decode reads the request body, validates it against schema and unmarshals
// it into dst.
func Decode(r *http.Request, schema *Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(body) > DefaultMaxBodyBytes {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidPayload, DefaultMaxBodyBytes)
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	if schema != nil {
		if err := schema.Validate(body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}
