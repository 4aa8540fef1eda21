package generation

import (
	"encoding/json"
	"fmt"

	"drafthub/internal/content"
)

// Reason is why a model reply was rejected as a section list.
type Reason string

const (
	ReasonMalformedJSON Reason = "malformed JSON"
	ReasonNotArray      Reason = "not an array"
	ReasonEmpty         Reason = "empty array"
	ReasonTitleNotText  Reason = "title is not text"
)

// RejectionError reports the first problem found in a model reply.
// Index is the offending element, or -1 for whole-payload problems.
type RejectionError struct {
	Reason Reason
	Index  int
}

func (e *RejectionError) Error() string {
	if e.Index < 0 {
		return string(e.Reason)
	}
	return fmt.Sprintf("section %d: %s", e.Index, e.Reason)
}

// ParseSections validates a model reply and converts it to sections.
// Missing or null content becomes the empty string; any other non-string
// content is kept as its text form.
func ParseSections(raw string) ([]content.Section, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &RejectionError{Reason: ReasonMalformedJSON, Index: -1}
	}

	items, ok := v.([]any)
	if !ok {
		return nil, &RejectionError{Reason: ReasonNotArray, Index: -1}
	}
	if len(items) == 0 {
		return nil, &RejectionError{Reason: ReasonEmpty, Index: -1}
	}

	sections := make([]content.Section, 0, len(items))
	for i, item := range items {
		obj, _ := item.(map[string]any)
		title, ok := obj["title"].(string)
		if !ok {
			return nil, &RejectionError{Reason: ReasonTitleNotText, Index: i}
		}

		sections = append(sections, content.Section{Title: title, Body: bodyText(obj["content"])})
	}
	return sections, nil
}

func bodyText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case map[string]any, []any:
		b, _ := json.Marshal(c)
		return string(b)
	default:
		return fmt.Sprint(c)
	}
}
