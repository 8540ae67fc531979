// Package splitter partitions normalized document text into typed raw
// sections in reading order.
//
// Boundaries are found by scanning for anchors (numbered paragraph
// openers, enactment and closing phrases) and slicing between them, so
// adjacent sections never overlap and every section ends where the next
// anchor begins.
package splitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker is a numbered paragraph opener such as "3." found in text.
type Marker struct {
	Start  int // byte offset of the first digit
	End    int // byte offset just past the dot
	Number string
}

var (
	markerCandidate = regexp.MustCompile(`\d+\.`)
	leadingNumber   = regexp.MustCompile(`^\s*(\d{1,3})\.`)
)

// MaxMarkerDigits bounds paragraph numbers so that years are not taken as
// paragraph openers.
const MaxMarkerDigits = 3

// Markers returns the paragraph openers in text. A marker is one to three
// digits and a dot, preceded by the start of text or whitespace and
// followed by whitespace or the end of text. The next visible character
// must not be a lowercase letter, which rejects sentence-internal numbers
// such as "section 5. the". With lineAnchored set, a marker must also be
// the first token on its line.
func Markers(text string, lineAnchored bool) []Marker {
	var markers []Marker
	for _, loc := range markerCandidate.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		digits := end - start - 1
		if digits > MaxMarkerDigits {
			continue
		}
		if !precededByBoundary(text, start, lineAnchored) {
			continue
		}
		if !followedByBoundary(text, end) {
			continue
		}
		markers = append(markers, Marker{Start: start, End: end, Number: text[start : end-1]})
	}
	return markers
}

func precededByBoundary(text string, pos int, lineAnchored bool) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	if !unicode.IsSpace(r) {
		return false
	}
	if !lineAnchored {
		return true
	}
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	return strings.TrimSpace(text[lineStart:pos]) == ""
}

func followedByBoundary(text string, pos int) bool {
	if pos == len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	if !unicode.IsSpace(r) {
		return false
	}
	rest := strings.TrimLeftFunc(text[pos:], unicode.IsSpace)
	if rest == "" {
		return true
	}
	next, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLower(next)
}

// ParagraphNumber returns the number of the paragraph opener that starts
// text, if any.
func ParagraphNumber(text string) (string, bool) {
	m := leadingNumber.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// firstIndex returns the earliest position of any of the phrases in text,
// or -1.
func firstIndex(text string, phrases ...string) int {
	best := -1
	for _, p := range phrases {
		if i := strings.Index(text, p); i != -1 && (best == -1 || i < best) {
			best = i
		}
	}
	return best
}
