// Package indexer turns Salesforce metadata into text chunks and writes their
// embeddings to the vector store.
package indexer

import "fmt"

// Chunk is one retrievable piece of metadata text.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func objectSummaryChunk(object string, fieldCount int) Chunk {
	return Chunk{
		ID:   object + "-summary",
		Text: fmt.Sprintf("The Salesforce object '%s' has a total of %d fields.", object, fieldCount),
	}
}

func fieldChunk(object string, f objectField) Chunk {
	return Chunk{
		ID: object + "-" + f.Name,
		Text: fmt.Sprintf("In Salesforce, the object '%s' has a field with the API name '%s'. Its label is '%s' and its data type is '%s'.",
			object, f.Name, f.Label, f.Type),
	}
}

func validationRuleChunk(object string, rule validationRule) Chunk {
	return Chunk{
		ID: object + "-vr-" + rule.FullName,
		Text: fmt.Sprintf("On the '%s' object, there is a validation rule named '%s' with the formula: %s",
			object, rule.FullName, rule.ErrorConditionFormula),
	}
}

func flowChunk(flow, object string) Chunk {
	return Chunk{
		ID:   "flow-" + flow,
		Text: fmt.Sprintf("In Salesforce, there is a Flow named '%s' that is triggered to run on the '%s' object.", flow, object),
	}
}

func triggerChunk(trigger string) Chunk {
	return Chunk{
		ID:   "trigger-" + trigger,
		Text: fmt.Sprintf("In Salesforce, there is an Apex Trigger named '%s'.", trigger),
	}
}
