package types

import (
	"fmt"
	"regexp"
)

// DocumentFamily identifies the boilerplate family a document belongs to
type DocumentFamily string

const (
	FamilyCircular     DocumentFamily = "circular"
	FamilyNotification DocumentFamily = "notification"
	FamilyStatute      DocumentFamily = "statute"
)

// ParseFamily converts a user supplied family name
func ParseFamily(s string) (DocumentFamily, error) {
	switch f := DocumentFamily(s); f {
	case FamilyCircular, FamilyNotification, FamilyStatute:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
	}
}

// Amendment links a notification to the instrument it amends
type Amendment struct {
	AmendedInstrument string `json:"amended_instrument"`
	Year              string `json:"year"`
}

// DocumentMetadata is extracted once per processed document. Fields that
// do not apply to a family, or that no pattern matched, are left empty.
type DocumentMetadata struct {
	Family         DocumentFamily `json:"family"`
	Authority      string         `json:"authority"`
	DocumentNumber string         `json:"document_number"`
	Date           string         `json:"date"`
	Subject        string         `json:"subject"`

	// Circular extras
	EffectiveDate      string   `json:"effective_date,omitempty"`
	PowerReference     string   `json:"power_reference,omitempty"`
	TotalPages         *int     `json:"total_pages,omitempty"`
	ReferenceDocuments []string `json:"reference_documents,omitempty"`

	// Gazette extras
	RegistryNumber  string     `json:"registry_number,omitempty"`
	GazetteNumber   string     `json:"gazette_number,omitempty"`
	PublicationDate string     `json:"publication_date,omitempty"`
	IndianDate      string     `json:"indian_date,omitempty"`
	Ministry        string     `json:"ministry,omitempty"`
	Amendment       *Amendment `json:"amendment_details,omitempty"`

	// Source
	FileName     string `json:"file_name"`
	ProcessedAt  string `json:"processing_timestamp"`
	DocumentHash string `json:"document_hash"`
}

var yearPattern = regexp.MustCompile(`(?:19|20)\d{2}`)

// Year returns the last four digit year found in the document date, or in
// the publication date when the document date has none. It returns
// "unknown" when neither carries a year.
func (m *DocumentMetadata) Year() string {
	for _, s := range []string{m.Date, m.PublicationDate} {
		if ys := yearPattern.FindAllString(s, -1); len(ys) > 0 {
			return ys[len(ys)-1]
		}
	}
	return "unknown"
}

// IsAmendment reports whether the document amends another instrument
func (m *DocumentMetadata) IsAmendment() bool {
	return m.Amendment != nil
}

// Provenance returns the document identity threaded into merged chunks
func (m *DocumentMetadata) Provenance() *Provenance {
	return &Provenance{
		Family:         m.Family,
		DocumentNumber: m.DocumentNumber,
		Date:           m.Date,
		Subject:        m.Subject,
		DocumentHash:   m.DocumentHash,
	}
}

// Provenance identifies the document a merged chunk came from
type Provenance struct {
	Family         DocumentFamily `json:"family"`
	DocumentNumber string         `json:"document_number"`
	Date           string         `json:"date"`
	Subject        string         `json:"subject"`
	DocumentHash   string         `json:"document_hash"`
}

// SectionType labels a raw section produced by a splitter
type SectionType string

const (
	SectionPreamble  SectionType = "PREAMBLE"
	SectionContext   SectionType = "CONTEXT"
	SectionRule      SectionType = "RULE"
	SectionDirective SectionType = "DIRECTIVE"
	SectionClosing   SectionType = "CLOSING"
	SectionChapter   SectionType = "CHAPTER"
	SectionStatute   SectionType = "SECTION"
)

// RawSection is a contiguous, typed span of document text in reading order.
// Part, Chapter and Title are only set for statute sections.
type RawSection struct {
	Type    SectionType
	Text    string
	Part    string
	Chapter string
	Title   string
}

// ProcessedDocument is the per-document output of segmentation
type ProcessedDocument struct {
	Metadata DocumentMetadata `json:"metadata"`
	Chunks   []Chunk          `json:"chunks"`
	Warnings []string         `json:"warnings,omitempty"`
}

// ProcessingInfo summarizes a merge pass
type ProcessingInfo struct {
	OriginalChunkCount int    `json:"original_chunk_count"`
	MergedChunkCount   int    `json:"merged_chunk_count"`
	ProcessedAt        string `json:"processed_at"`
}

// MergedDocument is the per-document output of the merge pass
type MergedDocument struct {
	Metadata       DocumentMetadata `json:"metadata"`
	MergedChunks   []Chunk          `json:"merged_chunks"`
	ProcessingInfo ProcessingInfo   `json:"processing_info"`
}
