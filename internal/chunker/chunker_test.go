package chunker

import (
	"strings"
	"testing"

	"github.com/kanak8278/IBC-RAG/internal/extractor"
	"github.com/kanak8278/IBC-RAG/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longClause = strings.Repeat("the insolvency professional shall maintain records ", 3)

func TestNew(t *testing.T) {
	c := New(types.FamilyCircular, Config{})
	assert.NotNil(t, c)
	assert.Equal(t, DefaultMinSubPointChars, c.config.MinSubPointChars)
}

func TestChunkSection_Context(t *testing.T) {
	c := New(types.FamilyCircular, DefaultConfig())
	chunks, err := c.ChunkSection(types.RawSection{Type: types.SectionContext, Text: "Background. Section 5 applies."}, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, "context_1", ch.ChunkID)
	assert.Equal(t, types.ChunkContext, ch.ChunkType)
	assert.Equal(t, "Background. Section 5 applies.", ch.Content)
	assert.True(t, ch.Paragraph.IsZero())
	assert.Equal(t, []string{"5"}, ch.References[types.RefSections])
	assert.Len(t, ch.References, 4)
}

func TestChunkSection_DirectiveWithoutSubPoints(t *testing.T) {
	c := New(types.FamilyCircular, DefaultConfig())
	chunks, err := c.ChunkSection(types.RawSection{Type: types.SectionDirective, Text: "3. Filing shall be done within 30 days."}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, "directive_3", ch.ChunkID)
	assert.Equal(t, types.ChunkDirective, ch.ChunkType)
	n, ok := ch.Paragraph.Scalar()
	assert.True(t, ok)
	assert.Equal(t, "3", n)
	assert.Equal(t, extractor.DirectiveMandatory, ch.Context[extractor.TagDirectiveType])
}

func TestChunkSection_DirectiveSubPoints(t *testing.T) {
	text := "4. The Board directs that:— (a) " + longClause + "(b) too short; (c) " + longClause
	c := New(types.FamilyCircular, DefaultConfig())

	chunks, err := c.ChunkSection(types.RawSection{Type: types.SectionDirective, Text: text}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "directive_4_a", chunks[0].ChunkID)
	assert.Equal(t, "a", chunks[0].SubIdentifier)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "4. The Board directs that:— (a) the insolvency"))

	assert.Equal(t, "directive_4_c", chunks[1].ChunkID)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "(c) "))
	for _, ch := range chunks {
		n, _ := ch.Paragraph.Scalar()
		assert.Equal(t, "4", n)
		assert.Equal(t, types.ChunkDirective, ch.ChunkType)
	}
}

func TestChunkSection_RuleSubRules(t *testing.T) {
	text := "2. Amendment of rule 5.—(1) In rule 5, for sub-rule (2), " + longClause + "(2) In rule 6, " + longClause
	c := New(types.FamilyNotification, DefaultConfig())

	chunks, err := c.ChunkSection(types.RawSection{Type: types.SectionRule, Text: text}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "rule_2_subrule_1", chunks[0].ChunkID)
	assert.Equal(t, types.ChunkSubRule, chunks[0].ChunkType)
	assert.Equal(t, "2", chunks[0].RuleNumber)
	assert.Equal(t, "1", chunks[0].SubRuleNumber)
	// "sub-rule (2)" is a citation, not the second sub-rule
	assert.Contains(t, chunks[0].Content, "for sub-rule (2),")
	assert.True(t, strings.HasPrefix(chunks[0].Content, "2. Amendment of rule 5.— (1) In rule 5"))

	assert.Equal(t, "rule_2_subrule_2", chunks[1].ChunkID)
	assert.Equal(t, "2", chunks[1].SubRuleNumber)
	assert.Len(t, chunks[1].References, 5)
}

func TestChunkSection_AllSubPointsShortFallsBack(t *testing.T) {
	text := "1. Short title.—(1) These rules may be called the X Rules. (2) They come into force today."
	c := New(types.FamilyNotification, DefaultConfig())

	chunks, err := c.ChunkSection(types.RawSection{Type: types.SectionRule, Text: text}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "rule_1", chunks[0].ChunkID)
	assert.Equal(t, types.ChunkRule, chunks[0].ChunkType)
	assert.Equal(t, "1", chunks[0].RuleNumber)
	assert.Equal(t, text, chunks[0].Content)
}

func TestChunkSection_NoNumberIsError(t *testing.T) {
	c := New(types.FamilyNotification, DefaultConfig())
	_, err := c.ChunkSection(types.RawSection{Type: types.SectionRule, Text: "In the said rules,"}, 0)
	assert.ErrorIs(t, err, types.ErrNoParagraphNumber)
}

func TestChunkSection_ClosingTypeByFamily(t *testing.T) {
	closing := types.RawSection{Type: types.SectionClosing, Text: "This is issued under section 196."}

	circ, err := New(types.FamilyCircular, DefaultConfig()).ChunkSection(closing, 0)
	require.NoError(t, err)
	assert.Equal(t, types.ChunkPowerCitation, circ[0].ChunkType)
	assert.Equal(t, "closing", circ[0].ChunkID)

	notif, err := New(types.FamilyNotification, DefaultConfig()).ChunkSection(closing, 0)
	require.NoError(t, err)
	assert.Equal(t, types.ChunkClosing, notif[0].ChunkType)
}

func TestChunkSections_SkipsUnnumberedAndKeepsOrder(t *testing.T) {
	sections := []types.RawSection{
		{Type: types.SectionPreamble, Text: "G.S.R. 1(E).—rules, namely:—"},
		{Type: types.SectionRule, Text: "In the said rules,"},
		{Type: types.SectionRule, Text: "1. Short title."},
		{Type: types.SectionRule, Text: "2. Commencement."},
		{Type: types.SectionClosing, Text: "[F. No. 1/2/2020]"},
	}

	chunks := New(types.FamilyNotification, DefaultConfig()).ChunkSections(sections)

	var ids []string
	for _, ch := range chunks {
		ids = append(ids, ch.ChunkID)
	}
	assert.Equal(t, []string{"preamble", "rule_1", "rule_2", "closing"}, ids)
}

func TestChunkSections_UniqueIDs(t *testing.T) {
	sections := []types.RawSection{
		{Type: types.SectionDirective, Text: "1. First."},
		{Type: types.SectionDirective, Text: "1. Repeated number."},
		{Type: types.SectionDirective, Text: "1. Again."},
	}
	chunks := New(types.FamilyCircular, DefaultConfig()).ChunkSections(sections)

	require.Len(t, chunks, 3)
	assert.Equal(t, "directive_1", chunks[0].ChunkID)
	assert.Equal(t, "directive_1_2", chunks[1].ChunkID)
	assert.Equal(t, "directive_1_3", chunks[2].ChunkID)
}

func TestChunkSections_RenamedIDsAvoidSubPointIDs(t *testing.T) {
	sections := []types.RawSection{
		{Type: types.SectionDirective, Text: "1. Returns:— (1) " + longClause + "(2) " + longClause},
		{Type: types.SectionDirective, Text: "1. Annexure item one."},
		{Type: types.SectionDirective, Text: "1. Annexure item two."},
	}
	chunks := New(types.FamilyCircular, DefaultConfig()).ChunkSections(sections)

	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ChunkID
	}
	assert.Equal(t, []string{"directive_1_1", "directive_1_2", "directive_1", "directive_1_3"}, ids)

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate chunk id %q", id)
		seen[id] = true
	}
}

func TestChunkSections_Deterministic(t *testing.T) {
	sections := []types.RawSection{
		{Type: types.SectionChapter, Part: "PART II", Chapter: "CHAPTER I PRELIMINARY", Text: "CHAPTER I PRELIMINARY\nSections: 5. Definitions"},
		{Type: types.SectionStatute, Part: "PART II", Chapter: "CHAPTER I PRELIMINARY", Title: "Definitions", Text: "5. Definitions.—In this Part \"debt\" means a liability."},
		{Type: types.SectionStatute, Part: "PART II", Chapter: "CHAPTER I PRELIMINARY", Title: "Application", Text: "6. Application.—This Part applies."},
	}

	c := New(types.FamilyStatute, DefaultConfig())
	first := c.ChunkSections(sections)
	second := c.ChunkSections(sections)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, types.ChunkChapter, first[0].ChunkType)
	assert.Regexp(t, `^chapter_[0-9a-f]{12}$`, first[0].ChunkID)
	assert.Equal(t, "CHAPTER I PRELIMINARY", first[0].Context[extractor.TagChapter])

	assert.Equal(t, types.ChunkDefinition, first[1].ChunkType)
	assert.Regexp(t, `^definition_[0-9a-f]{12}$`, first[1].ChunkID)
	assert.Equal(t, "Definitions", first[1].Context[extractor.TagSectionTitle])
	assert.Equal(t, "PART II", first[1].Context[extractor.TagPart])
	assert.True(t, first[1].Context.Flag(extractor.TagIsDefinition))

	assert.Equal(t, types.ChunkRegulation, first[2].ChunkType)
	n, _ := first[2].Paragraph.Scalar()
	assert.Equal(t, "6", n)
}

func TestFindSubPoints(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"numbered", "1. X.—(1) a (2) b (3) c", []string{"1", "2", "3"}},
		{"numbered preferred", "1. X (1) a (a) x (b) y (2) b", []string{"1", "2"}},
		{"lettered", "1. X: (a) one; (b) two; and (c) three", []string{"a", "b", "c"}},
		{"out of sequence ignored", "1. X (2) a (3) b", nil},
		{"single item ignored", "1. X (1) only", nil},
		{"citation skipped", "1. In rule 5 (1) a, for clause (2) x (2) b", []string{"1", "2"}},
		{"glued parenthesis ignored", "1. rule5(1) a rule5(2) b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, p := range findSubPoints(tt.text) {
				ids = append(ids, p.id)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestComputeChunkHash(t *testing.T) {
	assert.Equal(t, ComputeChunkHash("a"), ComputeChunkHash("a"))
	assert.NotEqual(t, ComputeChunkHash("a"), ComputeChunkHash("b"))
}
