package splitter

import (
	"regexp"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var (
	partLine    = regexp.MustCompile(`^PART\s+[IVXLC]+[A-Z]?\b`)
	chapterLine = regexp.MustCompile(`^CHAPTER\s+[IVXLC]+[A-Z]?\b`)
	sectionLine = regexp.MustCompile(`^(\d+[A-Z]?)\.\s*([A-Z].*)$`)
	sectionHead = regexp.MustCompile(`^(.*?)(?:\.—|\.-|—|\.\s*-)\s*(.*)$`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

type statuteBuilder struct {
	sections []types.RawSection

	part    string
	chapter string

	preamble []string

	// open chapter heading
	chapterIdx   int
	chapterLines []string
	inHeading    bool

	// open section
	cur     *types.RawSection
	curBody []string
}

// Statute splits an act line by line into a PREAMBLE, CHAPTER headings and
// numbered SECTIONs. Each section records the part and chapter it falls
// under. A chapter heading is followed by the index of its section titles.
func Statute(text string) []types.RawSection {
	b := &statuteBuilder{chapterIdx: -1}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case partLine.MatchString(line):
			b.flush()
			b.part = line
			b.chapter = ""
			b.inHeading = false
		case chapterLine.MatchString(line):
			b.flush()
			b.openChapter(line)
		case sectionLine.MatchString(line):
			b.flush()
			b.openSection(line)
		case b.inHeading:
			b.chapterLines = append(b.chapterLines, line)
		case b.cur != nil:
			b.curBody = append(b.curBody, line)
		case b.part != "" && b.chapter == "":
			// Title line following a PART heading
			b.part += " " + line
		default:
			b.preamble = append(b.preamble, line)
		}
	}
	b.flush()

	if len(b.preamble) > 0 {
		pre := types.RawSection{Type: types.SectionPreamble, Text: strings.Join(b.preamble, "\n")}
		b.sections = append([]types.RawSection{pre}, b.sections...)
	}
	b.indexChapters()
	return b.sections
}

func (b *statuteBuilder) openChapter(line string) {
	b.chapter = line
	b.inHeading = true
	b.chapterLines = []string{line}
	b.sections = append(b.sections, types.RawSection{
		Type:    types.SectionChapter,
		Part:    b.part,
		Chapter: line,
	})
	b.chapterIdx = len(b.sections) - 1
}

func (b *statuteBuilder) openSection(line string) {
	m := sectionLine.FindStringSubmatch(line)
	number, rest := m[1], m[2]

	title, body := strings.TrimSuffix(rest, "."), ""
	if h := sectionHead.FindStringSubmatch(rest); h != nil {
		title, body = h[1], h[2]
	}

	b.cur = &types.RawSection{
		Type:    types.SectionStatute,
		Part:    b.part,
		Chapter: b.chapter,
		Title:   strings.TrimSpace(title),
	}
	b.curBody = []string{number + ". " + strings.TrimSpace(title) + "."}
	if body = strings.TrimSpace(body); body != "" {
		b.curBody[0] += "—" + body
	}
}

// flush closes the open chapter heading or section.
func (b *statuteBuilder) flush() {
	if b.inHeading && b.chapterIdx >= 0 {
		heading := strings.Join(b.chapterLines, " ")
		b.sections[b.chapterIdx].Text = heading
		b.sections[b.chapterIdx].Chapter = heading
		b.chapter = heading
		b.inHeading = false
	}
	if b.cur != nil {
		b.cur.Chapter = b.chapter
		b.cur.Text = spaceRun.ReplaceAllString(strings.Join(b.curBody, " "), " ")
		b.sections = append(b.sections, *b.cur)
		b.cur = nil
		b.curBody = nil
	}
}

// indexChapters appends the titles of each chapter's sections to its
// heading text.
func (b *statuteBuilder) indexChapters() {
	for i := range b.sections {
		if b.sections[i].Type != types.SectionChapter {
			continue
		}
		var titles []string
		for j := i + 1; j < len(b.sections) && b.sections[j].Type == types.SectionStatute; j++ {
			num, _ := StatuteSectionNumber(b.sections[j].Text)
			titles = append(titles, num+". "+b.sections[j].Title)
		}
		if len(titles) > 0 {
			b.sections[i].Text += "\nSections: " + strings.Join(titles, "; ")
		}
	}
}

var statuteNumber = regexp.MustCompile(`^(\d+[A-Z]?)\.`)

// StatuteSectionNumber returns the number opening a statute section, which
// may carry a letter suffix such as "29A".
func StatuteSectionNumber(text string) (string, bool) {
	m := statuteNumber.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
