// Package chunker converts raw document sections into typed chunks.
//
// One processor exists per section type:
//   - CONTEXT and PREAMBLE: one chunk holding the section verbatim
//   - DIRECTIVE and RULE: one chunk per sub-point, or one for the whole section
//   - CLOSING: one chunk (POWER_CITATION for circulars)
//   - CHAPTER and statute SECTION: one chunk keyed by a content hash
//
// # Basic Usage
//
//	c := chunker.New(types.FamilyNotification, chunker.DefaultConfig())
//	chunks := c.ChunkSections(sections)
//
// # Sub-points
//
// A numbered section is split when it holds at least two sub-points in
// sequence, "(1)", "(2)", ... or "(a)", "(b)", .... Numbered sub-points win
// over lettered ones. Text before the first sub-point is prepended to the
// first emitted sub-point. Sub-points whose body is shorter than
// MinSubPointChars are skipped; if every sub-point is skipped the whole
// section becomes one chunk.
//
// # Identifiers
//
// Identifiers are derived from the section type and numbering, so the same
// input always yields the same identifiers:
//
//	context_1, preamble, closing
//	directive_3, directive_3_b
//	rule_2, rule_2_subrule_1
//
// Statute chunks have no natural key and use a short content hash, e.g.
// "regulation_1f3a9c0b7d2e". Repeated identifiers within a document get a
// numeric suffix.
package chunker
