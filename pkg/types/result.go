package types

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	ChunkID  int64
	ChunkKey string // Deterministic chunk identifier within its document
	Rank     int    // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 // Combined score from vector + BM25 + RRF

	// Metadata
	ChunkType  ChunkType
	Paragraphs []string
	Document   *DocumentInfo
	Content    string
}

// DocumentInfo contains document metadata for a search result
type DocumentInfo struct {
	Path           string // Relative to corpus root
	Family         DocumentFamily
	DocumentNumber string
	Date           string
	Subject        string
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Document == nil {
		return ErrMissingDocumentInfo
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
