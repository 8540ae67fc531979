package types

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
)

// ChunkType tags a chunk with the structural role of its text
type ChunkType string

const (
	ChunkPreamble      ChunkType = "PREAMBLE"
	ChunkRule          ChunkType = "RULE"
	ChunkSubRule       ChunkType = "SUB_RULE"
	ChunkDirective     ChunkType = "DIRECTIVE"
	ChunkContext       ChunkType = "CONTEXT"
	ChunkClosing       ChunkType = "CLOSING"
	ChunkPowerCitation ChunkType = "POWER_CITATION"

	// Statute family
	ChunkChapter    ChunkType = "chapter"
	ChunkDefinition ChunkType = "definition"
	ChunkRegulation ChunkType = "regulation"
)

// Valid reports whether t is one of the known chunk types
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkPreamble, ChunkRule, ChunkSubRule, ChunkDirective, ChunkContext,
		ChunkClosing, ChunkPowerCitation, ChunkChapter, ChunkDefinition, ChunkRegulation:
		return true
	default:
		return false
	}
}

// Chunk is the atomic retrievable unit of a legal document
type Chunk struct {
	// Identification
	ChunkID   string    `json:"chunk_id"`
	ChunkType ChunkType `json:"chunk_type"`

	// Numbering. Paragraph is serialized as paragraph_number or
	// paragraph_numbers depending on whether it has been pluralized.
	Paragraph     ParagraphRef `json:"-"`
	RuleNumber    string       `json:"rule_number,omitempty"`
	SubRuleNumber string       `json:"sub_rule_number,omitempty"`
	SubIdentifier string       `json:"sub_identifier,omitempty"`

	// Content
	Content    string     `json:"content"`
	References References `json:"references"`
	Context    Context    `json:"context"`
	TokenCount int        `json:"token_count,omitempty"`

	// Provenance, attached by the merge pass
	Metadata *Provenance `json:"metadata,omitempty"`
}

type chunkAlias Chunk

// MarshalJSON writes paragraph_number for scalar numbering and
// paragraph_numbers once the chunk has been pluralized.
func (c Chunk) MarshalJSON() ([]byte, error) {
	if c.Paragraph.IsPlural() {
		return json.Marshal(struct {
			chunkAlias
			ParagraphNumbers []string `json:"paragraph_numbers"`
		}{chunkAlias(c), c.Paragraph.Numbers()})
	}

	var num *string
	if n, ok := c.Paragraph.Scalar(); ok {
		num = &n
	}
	return json.Marshal(struct {
		chunkAlias
		ParagraphNumber *string `json:"paragraph_number"`
	}{chunkAlias(c), num})
}

// UnmarshalJSON restores the paragraph numbering from either form.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var aux struct {
		chunkAlias
		ParagraphNumber  *string  `json:"paragraph_number"`
		ParagraphNumbers []string `json:"paragraph_numbers"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = Chunk(aux.chunkAlias)
	switch {
	case aux.ParagraphNumbers != nil:
		c.Paragraph = ParagraphList(aux.ParagraphNumbers...)
	case aux.ParagraphNumber != nil:
		c.Paragraph = SingleParagraph(*aux.ParagraphNumber)
	default:
		c.Paragraph = ParagraphRef{}
	}
	return nil
}

// ContentHash returns the SHA-256 hash of the chunk content
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// Validate checks that the chunk is well formed
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return ErrInvalidChunkID
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if !c.ChunkType.Valid() {
		return ErrInvalidChunkType
	}
	if c.References == nil {
		return errors.New("references map is required")
	}
	return nil
}

// Clone returns a deep copy of the chunk
func (c Chunk) Clone() Chunk {
	out := c
	out.Paragraph = c.Paragraph.clone()
	out.References = c.References.Clone()
	out.Context = c.Context.Clone()
	if c.Metadata != nil {
		md := *c.Metadata
		out.Metadata = &md
	}
	return out
}
