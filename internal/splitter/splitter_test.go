package splitter

import (
	"testing"

	"github.com/kanak8278/IBC-RAG/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(ms []Marker) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Number)
	}
	return out
}

func TestMarkers(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		lineAnchored bool
		want         []string
	}{
		{"simple", "1. First. 2. Second.", false, []string{"1", "2"}},
		{"rejects dates", "filed on 01.04.2020 and 3. Next", false, []string{"3"}},
		{"rejects years", "Regulations, 2016. 4. Next", false, []string{"4"}},
		{"rejects decimals", "rate of 12.5 percent", false, nil},
		{"rejects lowercase continuation", "under section 5. the board", false, nil},
		{"accepts sub-rule opener", "2. (1) In rule 3", false, []string{"2"}},
		{"accepts marker at end", "see 7.", false, []string{"7"}},
		{"line anchored", "1. First line mentions section 5. The rest\n2. Second", true, []string{"1", "2"}},
		{"line anchored allows indentation", "  3. Indented", true, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numbers(Markers(tt.text, tt.lineAnchored)))
		})
	}
}

func TestParagraphNumber(t *testing.T) {
	n, ok := ParagraphNumber("12. The Board")
	assert.True(t, ok)
	assert.Equal(t, "12", n)

	_, ok = ParagraphNumber("The Board")
	assert.False(t, ok)
}

const circularText = `**Insolvency and Bankruptcy Board of India**

Circular No. IBBI/IP/013/2018

**Sub: Filing of returns**

The Board has observed delays in filing.

1. Every insolvency professional shall file returns within 30 days.

2. Returns filed after 01.04.2020 shall include Form A under section 5. The Board may seek details.

3. Filing shall be done within 30 days.
4. 2016.

This is issued under section 196 of the Code.

Yours faithfully,
(Name)
`

func TestCircular(t *testing.T) {
	sections := Circular(circularText)
	require.Len(t, sections, 6)

	assert.Equal(t, types.SectionContext, sections[0].Type)
	assert.Equal(t, "The Board has observed delays in filing.", sections[0].Text)

	assert.Equal(t, types.SectionDirective, sections[1].Type)
	assert.Equal(t, "1. Every insolvency professional shall file returns within 30 days.", sections[1].Text)
	assert.Equal(t, "2. Returns filed after 01.04.2020 shall include Form A under section 5. The Board may seek details.", sections[2].Text)
	assert.Equal(t, "3. Filing shall be done within 30 days.", sections[3].Text)
	assert.Equal(t, "4. 2016.", sections[4].Text)

	assert.Equal(t, types.SectionClosing, sections[5].Type)
	assert.Contains(t, sections[5].Text, "This is issued under section 196")
	assert.Contains(t, sections[5].Text, "Yours faithfully")
}

func TestCircular_HeaderRemoved(t *testing.T) {
	for _, s := range Circular(circularText) {
		assert.NotContains(t, s.Text, "Circular No. IBBI/IP/013/2018")
	}
}

func TestCircular_DegradedWithoutSubject(t *testing.T) {
	text := "Intro text.\n1. Only directive.\nYours faithfully,"
	body, ok := CircularBody(text)
	assert.False(t, ok)
	assert.Equal(t, text, body)

	sections := Circular(text)
	require.Len(t, sections, 3)
	assert.Equal(t, types.SectionContext, sections[0].Type)
	assert.Equal(t, types.SectionDirective, sections[1].Type)
	assert.Equal(t, types.SectionClosing, sections[2].Type)
	assert.Equal(t, "Yours faithfully,", sections[2].Text)
}

func TestCircular_NoOverlap(t *testing.T) {
	sections := Circular(circularText)
	body, _ := CircularBody(circularText)

	// Sections appear in reading order and never share text
	pos := 0
	for _, s := range sections {
		i := indexFrom(body, s.Text, pos)
		require.GreaterOrEqual(t, i, pos, s.Text)
		pos = i + len(s.Text)
	}
}

func indexFrom(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

const notificationText = "MINISTRY OF CORPORATE AFFAIRS NOTIFICATION New Delhi, the 1st April, 2020 " +
	"G.S.R. 123(E).—In exercise of the powers conferred by section 469 of the Companies Act, 2013, " +
	"the Central Government hereby makes the following rules, namely:— " +
	"1. Short title and commencement.—(1) These rules may be called the Companies Amendment Rules, 2020. " +
	"(2) They shall come into force on the date of their publication. " +
	"2. In the Companies Rules, 2014, in rule 5, for the words \"thirty days\", the words \"sixty days\" shall be substituted. " +
	"[F. No. 1/13/2013-CL-V] K. V. R. MURTY, Jt. Secy."

func TestNotification(t *testing.T) {
	sections, err := Notification(notificationText)
	require.NoError(t, err)
	require.Len(t, sections, 4)

	assert.Equal(t, types.SectionPreamble, sections[0].Type)
	assert.True(t, len(sections[0].Text) > 0)
	assert.Equal(t, "G.S.R.", sections[0].Text[:6])
	assert.Equal(t, "namely:—", sections[0].Text[len(sections[0].Text)-len("namely:—"):])

	assert.Equal(t, types.SectionRule, sections[1].Type)
	n, _ := ParagraphNumber(sections[1].Text)
	assert.Equal(t, "1", n)
	assert.Contains(t, sections[1].Text, "(2) They shall come into force")

	assert.Equal(t, types.SectionRule, sections[2].Type)
	n, _ = ParagraphNumber(sections[2].Text)
	assert.Equal(t, "2", n)
	assert.NotContains(t, sections[2].Text, "[F. No.")

	assert.Equal(t, types.SectionClosing, sections[3].Type)
	assert.Equal(t, "[F. No. 1/13/2013-CL-V] K. V. R. MURTY, Jt. Secy.", sections[3].Text)
}

func TestNotification_MissingAnchor(t *testing.T) {
	_, err := Notification("G.S.R. 1(E).—rules follow 1. Short title.")
	assert.ErrorIs(t, err, types.ErrMissingEnactmentAnchor)
}

func TestNotification_UnnumberedLeadKept(t *testing.T) {
	sections, err := Notification("G.S.R. 9(E).— namely:— In the said rules, 1. Rule one.")
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "In the said rules,", sections[1].Text)
	_, ok := ParagraphNumber(sections[1].Text)
	assert.False(t, ok)
}

const statuteText = `THE INSOLVENCY AND BANKRUPTCY CODE, 2016
ACT NO. 31 OF 2016
[28th May, 2016.]
PART I
PRELIMINARY
1. Short title, extent and commencement.—(1) This Code may be called the Insolvency and Bankruptcy Code, 2016.
(2) It extends to the whole of India.
2. Application.—The provisions of this Code shall apply to companies.
PART II
INSOLVENCY RESOLUTION AND LIQUIDATION FOR CORPORATE PERSONS
CHAPTER I
PRELIMINARY
5. Definitions.—In this Part, unless the context otherwise requires,—
(1) "Adjudicating Authority" means the National Company Law Tribunal;
CHAPTER II
CORPORATE INSOLVENCY RESOLUTION PROCESS
6. Persons who may initiate corporate insolvency resolution process.—Where any corporate debtor commits a default, a financial creditor may initiate the process.
`

func TestStatute(t *testing.T) {
	sections := Statute(statuteText)
	require.Len(t, sections, 7)

	assert.Equal(t, types.SectionPreamble, sections[0].Type)
	assert.Contains(t, sections[0].Text, "ACT NO. 31 OF 2016")

	s1 := sections[1]
	assert.Equal(t, types.SectionStatute, s1.Type)
	assert.Equal(t, "PART I PRELIMINARY", s1.Part)
	assert.Equal(t, "", s1.Chapter)
	assert.Equal(t, "Short title, extent and commencement", s1.Title)
	assert.Equal(t, "1. Short title, extent and commencement.—(1) This Code may be called the Insolvency and Bankruptcy Code, 2016. (2) It extends to the whole of India.", s1.Text)

	assert.Equal(t, "Application", sections[2].Title)

	ch1 := sections[3]
	assert.Equal(t, types.SectionChapter, ch1.Type)
	assert.Equal(t, "PART II INSOLVENCY RESOLUTION AND LIQUIDATION FOR CORPORATE PERSONS", ch1.Part)
	assert.Equal(t, "CHAPTER I PRELIMINARY", ch1.Chapter)
	assert.Equal(t, "CHAPTER I PRELIMINARY\nSections: 5. Definitions", ch1.Text)

	def := sections[4]
	assert.Equal(t, "Definitions", def.Title)
	assert.Equal(t, "CHAPTER I PRELIMINARY", def.Chapter)
	assert.Contains(t, def.Text, "\"Adjudicating Authority\" means")

	assert.Equal(t, types.SectionChapter, sections[5].Type)
	assert.Equal(t, "CHAPTER II CORPORATE INSOLVENCY RESOLUTION PROCESS", sections[5].Chapter)
	assert.Equal(t, "CHAPTER II CORPORATE INSOLVENCY RESOLUTION PROCESS", sections[6].Chapter)

	n, ok := StatuteSectionNumber(sections[6].Text)
	assert.True(t, ok)
	assert.Equal(t, "6", n)
}
