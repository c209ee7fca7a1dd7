package indexer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	objectMetaSuffix  = ".object-meta.xml"
	flowMetaSuffix    = ".flow-meta.xml"
	triggerMetaSuffix = ".trigger-meta.xml"
)

type validationRule struct {
	FullName              string `xml:"fullName"`
	ErrorConditionFormula string `xml:"errorConditionFormula"`
}

type flowTrigger struct {
	Object string `xml:"object"`
}

// errStop ends an element walk early.
var errStop = errors.New("stop")

// walkElements calls fn for every start element named local, at any depth.
// fn may consume the element with DecodeElement.
func walkElements(r io.Reader, local string, fn func(*xml.Decoder, xml.StartElement) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != local {
			continue
		}
		if err := fn(dec, start); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
}

// validationRuleChunks reads objects/<Obj>/<Obj>.object-meta.xml for every
// object directory under objectsDir.
func validationRuleChunks(objectsDir string) ([]Chunk, error) {
	entries, err := os.ReadDir(objectsDir)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		object := entry.Name()
		path := filepath.Join(objectsDir, object, object+objectMetaSuffix)
		rules, err := readValidationRules(path)
		if isNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			chunks = append(chunks, validationRuleChunk(object, rule))
		}
	}
	return chunks, nil
}

func readValidationRules(path string) ([]validationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rules []validationRule
	err = walkElements(f, "validationRules", func(dec *xml.Decoder, start xml.StartElement) error {
		var rule validationRule
		if err := dec.DecodeElement(&rule, &start); err != nil {
			return err
		}
		rule.FullName = strings.TrimSpace(rule.FullName)
		if rule.FullName != "" {
			rules = append(rules, rule)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexer: parse %s: %w", path, err)
	}
	return rules, nil
}

// flowChunks emits one chunk per flow whose metadata names a triggering object.
func flowChunks(flowsDir string) ([]Chunk, error) {
	entries, err := os.ReadDir(flowsDir)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, flowMetaSuffix) {
			continue
		}
		object, err := readFlowTriggerObject(filepath.Join(flowsDir, name))
		if err != nil {
			return nil, err
		}
		if object == "" {
			continue
		}
		chunks = append(chunks, flowChunk(strings.TrimSuffix(name, flowMetaSuffix), object))
	}
	return chunks, nil
}

// readFlowTriggerObject returns the object of the first <trigger> element
// that has one, or "".
func readFlowTriggerObject(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var object string
	err = walkElements(f, "trigger", func(dec *xml.Decoder, start xml.StartElement) error {
		var trigger flowTrigger
		if err := dec.DecodeElement(&trigger, &start); err != nil {
			return err
		}
		object = strings.TrimSpace(trigger.Object)
		if object != "" {
			return errStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("indexer: parse %s: %w", path, err)
	}
	return object, nil
}

// triggerChunks emits one chunk per Apex trigger metadata file.
func triggerChunks(triggersDir string) ([]Chunk, error) {
	entries, err := os.ReadDir(triggersDir)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, triggerMetaSuffix) {
			continue
		}
		chunks = append(chunks, triggerChunk(strings.TrimSuffix(name, triggerMetaSuffix)))
	}
	return chunks, nil
}
