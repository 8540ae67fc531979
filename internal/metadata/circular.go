package metadata

import (
	"strconv"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

const months = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`

// CircularDateRules find the issue date. Circulars render ordinals as
// bracketed superscripts, e.g. "1[st] April, 2020".
var CircularDateRules = Chain{
	rule("bracketed_ordinal", `(\d{1,2}\[(?:st|nd|rd|th)\]\s+`+months+`,?\s+\d{4})`),
	rule("bracketed_ordinal_spaced", `(\d{1,2}\[(?:st|nd|rd|th)\s*\]\s+`+months+`,?\s+\d{4})`),
	rule("after_number", `(?s)No.*?\s+(\d{1,2}\[(?:st|nd|rd|th)\s*\]\s*`+months+`,?\s+\d{4})`),
	rule("bracketed_ordinal_emphasis", `(\d{1,2}\[(?:st|nd|rd|th)\s*\][\s*]*`+months+`,?[\s*]+\d{4})`),
	rule("bracketed_ordinal_any_month", `(\d{1,2}\[(?:st|nd|rd|th)\]\s+\w+,?\s+\d{4})`),
	rule("plain", `(\d{1,2}(?:st|nd|rd|th)?\s+`+months+`,?\s+\d{4})`),
}

// CircularNumberRules find the circular number, most specific first.
var CircularNumberRules = Chain{
	rule("basic", `No[.:]\s*((?:IP|IBBI|IBC|LA|RVO)/\d{3}/\d{4})`),
	rule("department", `No[.:]\s*((?:IBBI|IP|IBC|LA|RVO)/[A-Z]+/\d+/\d{4})`),
	rule("extended", `No[.:]\s*((?:IBBI|IP|IBC|LA|RVO)/[A-Z]+/[A-Z0-9]+/\d{4})`),
	rule("dashed", `No[.:]\s*((?:IBBI|IP|IBC|LA|RVO)[-_][A-Z]+/\d+/\d{4})`),
	rule("parenthesized", `No[.:]\s*((?:IP|IBBI|IBC|LA|RVO)\([A-Z]+\)/\d{3}/\d{4})`),
	rule("parenthesized_flexible", `No[.:]\s*((?:IP|IBBI|IBC|LA|RVO)\([A-Za-z]+\)/[\w-]+/\d{4})`),
	rule("any", `No[.:]\s*([A-Z]+/[\w/()]+)`),
}

var (
	circularAuthority = Chain{rule("board", `\*\*([^*\n]*?Board of India)\*\*`)}
	circularSubject   = Chain{rule("subject", `(?s)\*\*(?:Sub(?:ject)?:)(.*?)\*\*\n`)}
	circularEffective = Chain{
		rule("bracketed", `(?:come into force|effect)\s+from\s+(\d{1,2}\[(?:st|nd|rd|th)\]\s+\w+,?\s+\d{4})`),
		rule("plain", `(?:come into force|effect)\s+from\s+(\d{1,2}(?:st|nd|rd|th)?\s+`+months+`,?\s+\d{4})`),
	}
	circularPower = Chain{rule("power", `(?:exercise of|under)[^\n]*?(?:section|Section)\s+(\d+(?:\s+read\s+with\s+section\s+\d+)?)`)}
	circularPages = Chain{rule("pages", `Page\s+\d+\s+of\s+(\d+)`)}

	// CircularReferenceRule collects circulars cited by the document.
	CircularReferenceRule = rule("reference_circulars", `Circular\s+No\.\s+(IBBI/[\w/]+)`)
)

// Circular extracts metadata from an IBBI circular.
func Circular(text string) types.DocumentMetadata {
	md := types.DocumentMetadata{
		Family:             types.FamilyCircular,
		Authority:          circularAuthority.Value(text),
		DocumentNumber:     CircularNumberRules.Value(text),
		Date:               CircularDateRules.Value(text),
		Subject:            strings.TrimSpace(circularSubject.Value(text)),
		EffectiveDate:      circularEffective.Value(text),
		PowerReference:     circularPower.Value(text),
		ReferenceDocuments: CircularReferenceRule.All(text),
	}

	if v := circularPages.Value(text); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			md.TotalPages = &n
		}
	}
	return md
}
