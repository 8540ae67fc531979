package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kanak8278/IBC-RAG/internal/extractor"
	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/internal/splitter"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

const (
	// DefaultMinSubPointChars is the shortest sub-point body emitted as its
	// own chunk. Shorter sub-points are skipped.
	DefaultMinSubPointChars = 100

	// hashIDLength is the number of hex digits in content-hash identifiers
	hashIDLength = 12
)

var definitionTitle = regexp.MustCompile(`(?i)\bdefinitions?\b`)

// Config controls chunk construction
type Config struct {
	MinSubPointChars int
}

// DefaultConfig returns the default chunking configuration
func DefaultConfig() Config {
	return Config{MinSubPointChars: DefaultMinSubPointChars}
}

// Chunker turns raw sections of one document family into typed chunks
type Chunker struct {
	family    types.DocumentFamily
	extractor *extractor.Extractor
	config    Config
}

// New creates a Chunker for the given family
func New(family types.DocumentFamily, config Config) *Chunker {
	if config.MinSubPointChars <= 0 {
		config.MinSubPointChars = DefaultMinSubPointChars
	}
	return &Chunker{
		family:    family,
		extractor: extractor.New(family),
		config:    config,
	}
}

// ChunkSections converts sections in order. Sections that cannot be
// converted are skipped and processing continues. Chunk identifiers are
// made unique within the document by suffixing repeats with _2, _3, ...
func (c *Chunker) ChunkSections(sections []types.RawSection) []types.Chunk {
	chunks := make([]types.Chunk, 0, len(sections))
	contexts := 0

	for i, s := range sections {
		if s.Type == types.SectionContext {
			contexts++
		}
		sc, err := c.ChunkSection(s, contexts)
		if err != nil {
			logger.Debug("skipping %s section %d: %v", s.Type, i+1, err)
			continue
		}
		chunks = append(chunks, sc...)
	}

	assignUniqueIDs(chunks)
	return chunks
}

// ChunkSection converts one raw section. ordinal numbers CONTEXT sections.
func (c *Chunker) ChunkSection(s types.RawSection, ordinal int) ([]types.Chunk, error) {
	if strings.TrimSpace(s.Text) == "" {
		return nil, types.ErrEmptyContent
	}

	switch s.Type {
	case types.SectionContext:
		return []types.Chunk{c.newChunk(fmt.Sprintf("context_%d", max(ordinal, 1)), types.ChunkContext, s.Text)}, nil
	case types.SectionPreamble:
		return []types.Chunk{c.newChunk("preamble", types.ChunkPreamble, s.Text)}, nil
	case types.SectionDirective:
		return c.numbered(s.Text, types.ChunkDirective, types.ChunkDirective)
	case types.SectionRule:
		return c.numbered(s.Text, types.ChunkRule, types.ChunkSubRule)
	case types.SectionClosing:
		ct := types.ChunkClosing
		if c.family == types.FamilyCircular {
			ct = types.ChunkPowerCitation
		}
		return []types.Chunk{c.newChunk("closing", ct, s.Text)}, nil
	case types.SectionChapter:
		return []types.Chunk{c.chapter(s)}, nil
	case types.SectionStatute:
		return c.statuteSection(s)
	default:
		return nil, fmt.Errorf("unknown section type %q", s.Type)
	}
}

// numbered converts a DIRECTIVE or RULE section. Each sub-point long
// enough becomes its own chunk; otherwise the whole section is one chunk.
func (c *Chunker) numbered(text string, whole, sub types.ChunkType) ([]types.Chunk, error) {
	num, ok := splitter.ParagraphNumber(text)
	if !ok {
		return nil, types.ErrNoParagraphNumber
	}

	prefix := "directive"
	if whole == types.ChunkRule {
		prefix = "rule"
	}

	var chunks []types.Chunk
	points := findSubPoints(text)
	lead := ""
	if len(points) > 0 {
		lead = strings.TrimSpace(text[:points[0].start])
	}

	for i, p := range points {
		end := len(text)
		if i+1 < len(points) {
			end = points[i+1].start
		}
		body := strings.TrimSpace(text[p.body:end])
		if utf8.RuneCountInString(body) < c.config.MinSubPointChars {
			logger.Debug("%s %s: sub-point (%s) below %d chars, skipped", prefix, num, p.id, c.config.MinSubPointChars)
			continue
		}

		content := strings.TrimSpace(text[p.start:end])
		if lead != "" {
			content = lead + " " + content
			lead = ""
		}

		var ch types.Chunk
		if whole == types.ChunkRule {
			ch = c.newChunk(fmt.Sprintf("rule_%s_subrule_%s", num, p.id), sub, content)
			ch.RuleNumber = num
			ch.SubRuleNumber = p.id
		} else {
			ch = c.newChunk(fmt.Sprintf("directive_%s_%s", num, p.id), sub, content)
			ch.SubIdentifier = p.id
		}
		ch.Paragraph = types.SingleParagraph(num)
		chunks = append(chunks, ch)
	}

	if len(chunks) > 0 {
		return chunks, nil
	}

	// every sub-point was too short; keep the paragraph whole
	ch := c.newChunk(fmt.Sprintf("%s_%s", prefix, num), whole, text)
	ch.Paragraph = types.SingleParagraph(num)
	if whole == types.ChunkRule {
		ch.RuleNumber = num
	}
	return []types.Chunk{ch}, nil
}

func (c *Chunker) chapter(s types.RawSection) types.Chunk {
	ch := c.newChunk(hashID(types.ChunkChapter, s.Text), types.ChunkChapter, s.Text)
	if s.Part != "" {
		ch.Context[extractor.TagPart] = s.Part
	}
	ch.Context[extractor.TagChapter] = s.Chapter
	return ch
}

func (c *Chunker) statuteSection(s types.RawSection) ([]types.Chunk, error) {
	num, ok := splitter.StatuteSectionNumber(s.Text)
	if !ok {
		return nil, types.ErrNoParagraphNumber
	}

	ct := types.ChunkRegulation
	if definitionTitle.MatchString(s.Title) {
		ct = types.ChunkDefinition
	}

	ch := c.newChunk(hashID(ct, s.Text), ct, s.Text)
	ch.Paragraph = types.SingleParagraph(num)
	if s.Part != "" {
		ch.Context[extractor.TagPart] = s.Part
	}
	if s.Chapter != "" {
		ch.Context[extractor.TagChapter] = s.Chapter
	}
	if s.Title != "" {
		ch.Context[extractor.TagSectionTitle] = s.Title
	}
	return []types.Chunk{ch}, nil
}

func (c *Chunker) newChunk(id string, ct types.ChunkType, content string) types.Chunk {
	refs, ctx := c.extractor.Extract(content)
	return types.Chunk{
		ChunkID:    id,
		ChunkType:  ct,
		Content:    content,
		References: refs,
		Context:    ctx,
	}
}

// hashID derives an identifier from the chunk type and a short content hash
func hashID(ct types.ChunkType, content string) string {
	sum := ComputeChunkHash(content)
	return string(ct) + "_" + hex.EncodeToString(sum[:])[:hashIDLength]
}

// assignUniqueIDs suffixes repeated identifiers in document order. A suffix
// is never one that another chunk of the document already uses, so a second
// "directive_1" cannot become sub-point "directive_1_2".
func assignUniqueIDs(chunks []types.Chunk) {
	taken := make(map[string]bool, len(chunks))
	for _, ch := range chunks {
		taken[ch.ChunkID] = true
	}

	seen := make(map[string]int, len(chunks))
	for i := range chunks {
		id := chunks[i].ChunkID
		n, repeated := seen[id]
		if !repeated {
			seen[id] = 1
			continue
		}
		candidate := ""
		for {
			n++
			candidate = fmt.Sprintf("%s_%d", id, n)
			if !taken[candidate] {
				break
			}
		}
		seen[id] = n
		taken[candidate] = true
		chunks[i].ChunkID = candidate
	}
}

// ComputeChunkHash computes SHA-256 hash of chunk content
func ComputeChunkHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}
