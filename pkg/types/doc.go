// Package types provides shared type definitions for the IBC-RAG pipeline.
//
// This package defines the domain types passed between the segmentation,
// merge, storage and search components: document metadata, raw sections,
// chunks and search results.
//
// # Document Families
//
// Every document belongs to one DocumentFamily. The family selects the
// metadata rules, the section splitter and the reference vocabulary:
//
//	types.FamilyCircular     // IBBI circulars
//	types.FamilyNotification // MCA gazette notifications
//	types.FamilyStatute      // Acts and codes
//
// # Chunks
//
// Chunk is the atomic retrievable unit. ChunkType discriminates the
// structural role of the text and decides which numbering fields are set:
//
//	chunk := types.Chunk{
//	    ChunkID:    "directive_3",
//	    ChunkType:  types.ChunkDirective,
//	    Paragraph:  types.SingleParagraph("3"),
//	    Content:    "3. The insolvency professional shall ...",
//	    References: types.NewReferences(types.FamilyCircular),
//	}
//
// Paragraph numbering is a small sum type. It starts as a scalar and is
// pluralized when the merge pass joins chunks with different numbers:
//
//	p := types.SingleParagraph("3").Merge(types.SingleParagraph("4"))
//	p.IsPlural() // true
//	p.Numbers()  // ["3", "4"]
//
// In JSON a scalar is written as "paragraph_number" and a list as
// "paragraph_numbers"; a chunk never carries both.
//
// # References
//
// References always hold every key of the family vocabulary, with empty
// lists for categories that were not cited:
//
//	refs := types.NewReferences(types.FamilyNotification)
//	// {"acts": [], "sections": [], "rules": [], "notifications": [], "amendments": []}
//
// # Search Results
//
// SearchResult combines chunk content with document identity and a
// relevance score normalized to the [0, 1] range.
package types
