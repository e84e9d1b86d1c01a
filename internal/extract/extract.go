package extract

import "strings"

// Result bundles everything the extractor derives from one chunk.
type Result struct {
	Entities []Entity
	Topics   []Topic
	Passages []string
}

// All runs entity, topic and passage extraction over chunk text.
func All(text string) Result {
	entities := Entities(text)
	topics := Topics(text)
	return Result{
		Entities: entities,
		Topics:   topics,
		Passages: Passages(text, entities, topics),
	}
}

// EnrichedText serialises an extraction result into the text appended to a
// chunk's FTS row. The output is deterministic for a given input: entities
// and topics are emitted in their sorted order, passages in document order.
func EnrichedText(r Result) string {
	var parts []string
	for _, e := range r.Entities {
		parts = append(parts, e.Text)
	}
	for _, t := range r.Topics {
		parts = append(parts, t.Term)
	}
	parts = append(parts, r.Passages...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
