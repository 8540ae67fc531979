package splitter

import (
	"regexp"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Phrases that end the numbered body of a circular.
var circularTerminals = []string{"This is issued", "Yours faithfully"}

var subjectAnchor = regexp.MustCompile(`(?s)\*\*(?:Sub(?:ject)?:.*?\*\*\n\n)`)

// CircularBody returns the text after the subject line, and false when the
// subject anchor is missing and the whole text is used instead.
func CircularBody(text string) (string, bool) {
	loc := subjectAnchor.FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	return text[loc[1]:], true
}

// Circular splits an IBBI circular into an optional CONTEXT section, one
// DIRECTIVE section per numbered paragraph and an optional CLOSING section.
func Circular(text string) []types.RawSection {
	body, _ := CircularBody(text)

	end := len(body)
	terminal := firstIndex(body, circularTerminals...)
	if terminal != -1 {
		end = terminal
	}
	main := body[:end]

	var sections []types.RawSection
	markers := Markers(main, true)

	lead := main
	if len(markers) > 0 {
		lead = main[:markers[0].Start]
	}
	if s := strings.TrimSpace(lead); s != "" {
		sections = append(sections, types.RawSection{Type: types.SectionContext, Text: s})
	}

	for i, m := range markers {
		stop := len(main)
		if i+1 < len(markers) {
			stop = markers[i+1].Start
		}
		if s := strings.TrimSpace(main[m.Start:stop]); s != "" {
			sections = append(sections, types.RawSection{Type: types.SectionDirective, Text: s})
		}
	}

	if terminal != -1 {
		if s := strings.TrimSpace(body[terminal:]); s != "" {
			sections = append(sections, types.RawSection{Type: types.SectionClosing, Text: s})
		}
	}
	return sections
}
