// Package searcher implements hybrid search over indexed legal document
// chunks, combining vector similarity and keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: vector + BM25 keyword search fused with Reciprocal Rank Fusion (default)
//   - Vector: semantic search using embeddings
//   - Keyword: BM25 full-text search only, no embedding provider needed
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    CorpusID: corpus.ID,
//	    Query:    "claims received during the moratorium",
//	    Limit:    10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s %s (score: %.2f)\n",
//	        r.Rank, r.Document.DocumentNumber, r.ChunkKey, r.RelevanceScore)
//	}
//
// # Scoring
//
// Vector scores are cosine similarities clamped to [0, 1]. Keyword scores
// are FTS5 bm25 values normalized as 1/(1+|score|/50). Hybrid scores are
// RRF sums with k=60, divided by 2/(k+1) so a chunk ranked first by both
// searches scores 1.
//
// Each side of a hybrid search fetches twice the requested limit before
// fusion. If one side fails the other is used alone; a searcher built
// without an embedder runs hybrid requests as keyword searches.
//
// # Filters
//
// storage.SearchFilters narrows results by document family, chunk type,
// document number and document path glob:
//
//	filters := &storage.SearchFilters{
//	    Families:   []types.DocumentFamily{types.FamilyNotification},
//	    ChunkTypes: []types.ChunkType{types.ChunkRule, types.ChunkSubRule},
//	}
//
// # Caching
//
// Responses for requests with UseCache set are kept in an expiring LRU
// keyed by a SHA-256 of the query, mode, corpus, limit and filters.
// Defaults are 1000 entries for one hour; see WithCache. Call
// InvalidateCache after re-indexing.
package searcher
