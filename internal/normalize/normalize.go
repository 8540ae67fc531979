// Package normalize cleans raw document text before segmentation.
//
// Cleaning happens in layers. Text applies the light normalization every
// family gets (line endings, NFC, non-breaking spaces). CleanOCR applies
// the fixed OCR replacement table. StripDevanagari and EnglishSection
// handle bilingual gazette notifications, and Collapse produces the single
// line form the notification splitter works on.
package normalize

import (
	"regexp"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ocrReplacer maps stray glyphs produced by PDF-to-text conversion.
var ocrReplacer = strings.NewReplacer(
	"›", "",
	"‹", "",
	"»", "",
	"«", "",
	"¶", "",
	"§", "",
	"†", "",
	"‡", "",
	"•", "",
	"°", "degrees",
	"±", "plus-minus",
	"×", "x",
	"÷", "/",
)

// EnglishMarkers open the English half of a bilingual notification.
var EnglishMarkers = []string{
	"MINISTRY OF CORPORATE AFFAIRS",
	"MINISTRY OF",
	"NOTIFICATION",
	"G.S.R.",
	"In exercise of the powers",
}

var (
	emptyBrackets   = regexp.MustCompile(`\[\s*\]`)
	emptyParens     = regexp.MustCompile(`\(\s*\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	spaceBeforePunc = regexp.MustCompile(`\s+([.,;:)])`)
	spaceAfterParen = regexp.MustCompile(`\(\s+`)
	underscores     = regexp.MustCompile(`_+`)
	doubleHyphen    = regexp.MustCompile(`-{2,}`)
	ellipsis        = regexp.MustCompile(`\.{2,}`)
	namelyPhrase    = regexp.MustCompile(`namely\s*:\s*(?:—|–|-+)`)
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
)

// Text applies the normalization shared by all families: CRLF line endings
// become LF, non-breaking spaces become spaces and the result is NFC.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return norm.NFC.String(s)
}

// CleanOCR applies the OCR replacement table and removes empty bracket
// pairs left behind by it.
func CleanOCR(s string) string {
	s = ocrReplacer.Replace(s)
	s = emptyBrackets.ReplaceAllString(s, "")
	return emptyParens.ReplaceAllString(s, "")
}

// IsDevanagari reports whether r is in the Devanagari block U+0900..U+097F.
func IsDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

// IsBilingual reports whether s contains any Devanagari text.
func IsBilingual(s string) bool {
	return strings.IndexFunc(s, IsDevanagari) >= 0
}

// StripDevanagari removes every Devanagari rune from s.
func StripDevanagari(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(IsDevanagari)), s)
	if err != nil {
		// runes.Remove never fails on valid input; fall back to a rune scan.
		return strings.Map(func(r rune) rune {
			if IsDevanagari(r) {
				return -1
			}
			return r
		}, s)
	}
	return out
}

// EnglishSection returns the text from the earliest English marker
// onwards. Text without Devanagari is returned unchanged.
func EnglishSection(s string) (string, error) {
	if !IsBilingual(s) {
		return s, nil
	}

	start := -1
	for _, marker := range EnglishMarkers {
		if pos := strings.Index(s, marker); pos != -1 && (start == -1 || pos < start) {
			start = pos
		}
	}
	if start == -1 {
		return "", types.ErrMissingEnglishSection
	}
	return s[start:], nil
}

// Dashes rewrites dash variants of the enactment phrase and runs of
// hyphens to an em dash.
func Dashes(s string) string {
	s = doubleHyphen.ReplaceAllString(s, "—")
	return namelyPhrase.ReplaceAllString(s, "namely:—")
}

// TidyLines collapses horizontal whitespace and trims each line while
// keeping line structure.
func TidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

// Collapse flattens s to a single line: whitespace runs become one space,
// stray spaces around punctuation are dropped and underscores removed.
func Collapse(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = spaceBeforePunc.ReplaceAllString(s, "$1")
	s = spaceAfterParen.ReplaceAllString(s, "(")
	s = underscores.ReplaceAllString(s, "")
	s = Dashes(s)
	s = ellipsis.ReplaceAllString(s, "...")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Notification prepares a gazette notification. It returns the cleaned
// full text with line structure, used for metadata, and the collapsed
// English body, used for segmentation.
func Notification(s string) (full, english string, err error) {
	cleaned := CleanOCR(Text(s))

	body, err := EnglishSection(cleaned)
	if err != nil {
		return "", "", err
	}

	full = TidyLines(Dashes(StripDevanagari(cleaned)))
	english = Collapse(StripDevanagari(body))
	return full, english, nil
}
