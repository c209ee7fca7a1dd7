package indexer

import (
	"path/filepath"

	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// Source locates the metadata to index.
type Source struct {
	// BasePath is the sfdx source root, e.g. force-app/main/default/.
	BasePath string
	// ObjectFiles are sObject describe JSON files.
	ObjectFiles []string
}

// Collect gathers chunks in a fixed order: object describes, validation
// rules, flows, then triggers. Missing files and directories are skipped.
func Collect(src Source, logger *logging.Logger) ([]Chunk, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var chunks []Chunk
	for _, path := range src.ObjectFiles {
		objectChunks, err := loadObjectFile(path)
		if isNotExist(err) {
			logger.Warn("object describe file not found; skipping", "path", path)
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Info("processed object describe", "path", path, "chunks", len(objectChunks))
		chunks = append(chunks, objectChunks...)
	}

	sections := []struct {
		name    string
		dir     string
		collect func(string) ([]Chunk, error)
	}{
		{"validation rules", filepath.Join(src.BasePath, "objects"), validationRuleChunks},
		{"flows", filepath.Join(src.BasePath, "flows"), flowChunks},
		{"apex triggers", filepath.Join(src.BasePath, "triggers"), triggerChunks},
	}
	for _, section := range sections {
		found, err := section.collect(section.dir)
		if isNotExist(err) {
			logger.Warn("metadata directory not found; skipping", "section", section.name, "dir", section.dir)
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Info("processed metadata", "section", section.name, "chunks", len(found))
		chunks = append(chunks, found...)
	}
	return chunks, nil
}
