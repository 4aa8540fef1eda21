// Package content converts between an article's persisted content blob and
// the editor's working form, an ordered list of titled sections.
//
// The blob is a JSON array of sections. The theme used to generate the
// structure rides on the first section so the editor can offer regeneration
// later. Blobs that are not a non-empty array are treated as a single
// section holding the raw text, which keeps articles written as plain
// markdown readable.
//
// Encoding an empty list yields "[]", and decoding "[]" yields the fallback
// section rather than an empty list. The two are not inverse for that case.
// Nor are they for text that is not valid UTF-8: Encode replaces invalid
// bytes in titles, bodies and themes with U+FFFD.
package content

import (
	"encoding/json"
	"strings"
)

// FallbackTitle names the synthetic section produced when a blob is not a
// well-formed section list.
const FallbackTitle = "Content"

type Section struct {
	Title string `json:"title"`
	Body  string `json:"content"`
	Theme string `json:"theme,omitempty"`
}

// Encode serializes sections with theme attached to the first element only.
// The input slice is not modified.
func Encode(sections []Section, theme string) (string, error) {
	out := make([]Section, len(sections))
	copy(out, sections)
	for i := range out {
		out[i].Theme = ""
	}
	if len(out) > 0 {
		out[0].Theme = theme
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a persisted blob. It never fails: anything that is not a
// non-empty JSON array of sections comes back as one FallbackTitle section
// whose body is the blob itself, with no theme.
func Decode(blob string) ([]Section, string) {
	var sections []Section
	if err := json.Unmarshal([]byte(blob), &sections); err != nil || len(sections) == 0 {
		return []Section{{Title: FallbackTitle, Body: blob}}, ""
	}
	return sections, sections[0].Theme
}

// Snippet returns up to max characters of plain text drawn from the section
// bodies, with newlines folded to spaces. A trailing "..." marks truncation.
func Snippet(blob string, max int) string {
	sections, _ := Decode(blob)

	var sb strings.Builder
	for _, s := range sections {
		body := strings.TrimSpace(s.Body)
		if body == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(body)
		if sb.Len() > max {
			break
		}
	}

	res := strings.Join(strings.Fields(sb.String()), " ")
	runes := []rune(res)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return res
}

// Markdown renders a titled article as one markdown document, one level-two
// heading per section.
func Markdown(title string, sections []Section) string {
	var sb strings.Builder
	if title == "" {
		title = "Untitled Article"
	}
	sb.WriteString("# " + title + "\n")
	for _, s := range sections {
		sb.WriteString("\n## " + s.Title + "\n\n")
		if strings.TrimSpace(s.Body) == "" {
			sb.WriteString("*No content yet*\n")
			continue
		}
		sb.WriteString(strings.TrimRight(s.Body, "\n") + "\n")
	}
	return sb.String()
}
