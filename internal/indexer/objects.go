package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// objectDescribe is the subset of an sObject describe result the indexer reads.
type objectDescribe struct {
	Name   string        `json:"name"`
	Fields []objectField `json:"fields"`
}

type objectField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// loadObjectFile returns the summary and per-field chunks for one describe
// file. A missing file yields no chunks and fs.ErrNotExist.
func loadObjectFile(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var describe objectDescribe
	if err := json.Unmarshal(data, &describe); err != nil {
		return nil, fmt.Errorf("indexer: decode %s: %w", path, err)
	}
	if strings.TrimSpace(describe.Name) == "" {
		return nil, fmt.Errorf("indexer: %s has no object name", path)
	}

	chunks := make([]Chunk, 0, len(describe.Fields)+1)
	chunks = append(chunks, objectSummaryChunk(describe.Name, len(describe.Fields)))
	for _, f := range describe.Fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		chunks = append(chunks, fieldChunk(describe.Name, f))
	}
	return chunks, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
