package splitter

import (
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

const (
	// EnactmentAnchor closes the preamble of a notification.
	EnactmentAnchor = "namely:—"
	closingAnchor   = "[F. No."
	gsrAnchor       = "G.S.R."
)

// Notification splits the collapsed English text of a gazette notification
// into a PREAMBLE, one RULE section per numbered rule and a CLOSING section.
// It fails when the enactment phrase is missing.
func Notification(text string) ([]types.RawSection, error) {
	anchor := strings.Index(text, EnactmentAnchor)
	if anchor == -1 {
		return nil, types.ErrMissingEnactmentAnchor
	}
	afterAnchor := anchor + len(EnactmentAnchor)

	var sections []types.RawSection

	start := strings.Index(text[:anchor], gsrAnchor)
	if start == -1 {
		start = 0
	}
	if s := strings.TrimSpace(text[start:afterAnchor]); s != "" {
		sections = append(sections, types.RawSection{Type: types.SectionPreamble, Text: s})
	}

	end := len(text)
	if i := strings.Index(text[afterAnchor:], closingAnchor); i != -1 {
		end = afterAnchor + i
	}
	rules := text[afterAnchor:end]

	markers := Markers(rules, false)
	lead := rules
	if len(markers) > 0 {
		lead = rules[:markers[0].Start]
	}
	// Text between the anchor and the first rule has no number; the rule
	// processor skips it.
	if s := strings.TrimSpace(lead); s != "" {
		sections = append(sections, types.RawSection{Type: types.SectionRule, Text: s})
	}
	for i, m := range markers {
		stop := len(rules)
		if i+1 < len(markers) {
			stop = markers[i+1].Start
		}
		if s := strings.TrimSpace(rules[m.Start:stop]); s != "" {
			sections = append(sections, types.RawSection{Type: types.SectionRule, Text: s})
		}
	}

	if end < len(text) {
		if s := strings.TrimSpace(text[end:]); s != "" {
			sections = append(sections, types.RawSection{Type: types.SectionClosing, Text: s})
		}
	}
	return sections, nil
}
