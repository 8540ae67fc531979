package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// subPoint is one "(1)" or "(a)" item inside a numbered section.
type subPoint struct {
	id    string
	start int // offset of the opening parenthesis
	body  int // offset just past the closing parenthesis
}

var (
	numericSubPoint = regexp.MustCompile(`\((\d{1,2})\)`)
	letterSubPoint  = regexp.MustCompile(`\(([a-z])\)`)
)

// referenceWords precede a parenthesized number that cites another
// provision rather than opening a sub-point, as in "sub-rule (2)".
var referenceWords = []string{
	"rule", "sub-rule", "regulation", "sub-regulation", "section", "sub-section",
	"clause", "sub-clause", "paragraph", "sub-paragraph", "item", "para",
}

// findSubPoints returns the sub-points of text. Numbered sub-points are
// preferred over lettered ones. Items must appear in sequence starting
// from (1) or (a), open at a word boundary, and not follow a citation word.
// Fewer than two items means the section has no sub-points.
func findSubPoints(text string) []subPoint {
	if pts := scanSequence(text, numericSubPoint, nextNumber, "1"); len(pts) >= 2 {
		return pts
	}
	if pts := scanSequence(text, letterSubPoint, nextLetter, "a"); len(pts) >= 2 {
		return pts
	}
	return nil
}

func scanSequence(text string, re *regexp.Regexp, next func(string) string, first string) []subPoint {
	var pts []subPoint
	want := first
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		id := text[m[2]:m[3]]
		if id != want || !opensSubPoint(text, m[0]) {
			continue
		}
		pts = append(pts, subPoint{id: id, start: m[0], body: m[1]})
		want = next(id)
	}
	return pts
}

func opensSubPoint(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	if !unicode.IsSpace(r) && r != '—' && r != ':' && r != '-' {
		return false
	}

	before := strings.Fields(strings.ToLower(text[:pos]))
	if len(before) == 0 {
		return true
	}
	prev := strings.TrimRight(before[len(before)-1], ",")
	for _, w := range referenceWords {
		if prev == w || strings.HasSuffix(prev, "—"+w) {
			return false
		}
	}
	return true
}

func nextNumber(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return ""
	}
	return strconv.Itoa(n + 1)
}

func nextLetter(id string) string {
	if id == "" || id[0] >= 'z' {
		return ""
	}
	return string(id[0] + 1)
}
