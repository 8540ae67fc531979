// Package extractor finds cross-references and qualitative context tags in
// chunk text.
//
// Each reference kind is scanned by its own pattern. Results keep the order
// in which citations occur in the text and duplicates are retained. The
// extractor never fails: a kind with no match is an empty list and a
// context tag with no evidence is simply absent.
package extractor

import (
	"regexp"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Context tag names
const (
	TagDirectiveType = "directive_type"
	TagDeadlines     = "deadlines"
	TagHasConditions = "has_conditions"
	TagHasExamples   = "has_examples"
	TagType          = "type"
	TagDates         = "dates"
	TagIsDefinition  = "is_definition"
	TagPart          = "part"
	TagChapter       = "chapter"
	TagSectionTitle  = "section_title"
)

// Directive types
const (
	DirectiveMandatory = "mandatory"
	DirectiveOptional  = "optional"
)

type refPattern struct {
	kind  string
	re    *regexp.Regexp
	group int // 0 keeps the whole match
}

func (p refPattern) find(text string) []string {
	out := []string{}
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[p.group]))
	}
	return out
}

var (
	circularPattern     = regexp.MustCompile(`Circular\s+No\.\s+(IBBI/[\w/]+)`)
	sectionPattern      = regexp.MustCompile(`[Ss]ection\s+(\d+[A-Z]?(?:\s+read\s+with\s+[Ss]ection\s+\d+[A-Z]?)?)`)
	sectionListPattern  = regexp.MustCompile(`[Ss]ections?\s+(\d+[A-Z]?)`)
	regulationPattern   = regexp.MustCompile(`[Rr]egulation\s+(\d+[A-Z]?(?:\s*\(\d+\))?)`)
	urlPattern          = regexp.MustCompile(`https?://[^\s\])]+`)
	actPattern          = regexp.MustCompile(`([A-Z][a-z]+(?:\s+(?:[A-Z][a-z]+|\([A-Z][a-z]+\)|and|of))*\s+(?:Act|Code),\s+\d{4})`)
	rulePattern         = regexp.MustCompile(`[Rr]ule\s+(\d+[A-Z]?(?:\s*\(\d+\))?)`)
	notificationPattern = regexp.MustCompile(`G\.S\.R\.\s*\d+\s*\([A-Z]\)`)
	amendmentPattern    = regexp.MustCompile(`dated\s+the\s+\d+(?:st|nd|rd|th)?\s+\w+,\s+\d{4}`)
	chapterPattern      = regexp.MustCompile(`Chapter\s+([IVXLC]+[A-Z]?)`)

	shallWord      = regexp.MustCompile(`(?i)\bshall\b`)
	mayWord        = regexp.MustCompile(`(?i)\bmay\b`)
	deadlineDate   = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	conditionWords = regexp.MustCompile(`(?i)\bsubject\s+to\b|\bprovided\s+that\b`)
	exampleWord    = regexp.MustCompile(`(?i)example`)
	writtenDate    = regexp.MustCompile(`\d{1,2}(?:st|nd|rd|th)?\s+\w+,\s+\d{4}`)
	definitionWord = regexp.MustCompile(`(?i)\bmeans\b|\bshall\s+mean\b|\bdefined\s+as\b`)
)

var familyPatterns = map[types.DocumentFamily][]refPattern{
	types.FamilyCircular: {
		{types.RefCirculars, circularPattern, 1},
		{types.RefSections, sectionPattern, 1},
		{types.RefRegulations, regulationPattern, 1},
		{types.RefExternalLinks, urlPattern, 0},
	},
	types.FamilyNotification: {
		{types.RefActs, actPattern, 1},
		{types.RefSections, sectionPattern, 1},
		{types.RefRules, rulePattern, 1},
		{types.RefNotifications, notificationPattern, 0},
		{types.RefAmendments, amendmentPattern, 0},
	},
	types.FamilyStatute: {
		{types.RefActs, actPattern, 1},
		{types.RefSections, sectionListPattern, 1},
		{types.RefChapters, chapterPattern, 1},
	},
}

// notificationTypes classify what an amending rule does. First match wins.
var notificationTypes = []struct {
	phrase, tag string
}{
	{"Short title", "title_and_commencement"},
	{"shall be substituted", "amendment_substitution"},
	{"shall be omitted", "amendment_omission"},
	{"shall be inserted", "amendment_insertion"},
}

// Extractor extracts references and context for one document family.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	family   types.DocumentFamily
	patterns []refPattern
}

// New creates an extractor for the given family.
func New(f types.DocumentFamily) *Extractor {
	return &Extractor{family: f, patterns: familyPatterns[f]}
}

// Family returns the document family the extractor serves.
func (e *Extractor) Family() types.DocumentFamily {
	return e.family
}

// References returns every citation in text grouped by kind. All kinds of
// the family vocabulary are present.
func (e *Extractor) References(text string) types.References {
	refs := types.NewReferences(e.family)
	for _, p := range e.patterns {
		refs[p.kind] = p.find(text)
	}
	return refs
}

// Context derives qualitative tags from text.
func (e *Extractor) Context(text string) types.Context {
	ctx := types.Context{}

	switch {
	case shallWord.MatchString(text):
		ctx[TagDirectiveType] = DirectiveMandatory
	case mayWord.MatchString(text):
		ctx[TagDirectiveType] = DirectiveOptional
	}

	if deadlines := deadlineDate.FindAllString(text, -1); len(deadlines) > 0 {
		ctx[TagDeadlines] = deadlines
	}
	if conditionWords.MatchString(text) {
		ctx[TagHasConditions] = true
	}
	if exampleWord.MatchString(text) {
		ctx[TagHasExamples] = true
	}

	if e.family == types.FamilyNotification {
		for _, nt := range notificationTypes {
			if strings.Contains(text, nt.phrase) {
				ctx[TagType] = nt.tag
				break
			}
		}
		if dates := writtenDate.FindAllString(text, -1); len(dates) > 0 {
			ctx[TagDates] = dates
		}
	}

	if e.family != types.FamilyCircular && definitionWord.MatchString(text) {
		ctx[TagIsDefinition] = true
	}

	return ctx
}

// Extract returns both the references and the context of text.
func (e *Extractor) Extract(text string) (types.References, types.Context) {
	return e.References(text), e.Context(text)
}
