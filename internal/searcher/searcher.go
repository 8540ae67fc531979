package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kanak8278/IBC-RAG/internal/embedder"
	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + BM25 with RRF
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // BM25 text search only
)

// Defaults
const (
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultRRFConstant = 60
	DefaultCacheSize   = 1000
	DefaultCacheTTL    = time.Hour
)

// Errors
var (
	ErrEmptyQuery         = errors.New("query cannot be empty")
	ErrUnsupportedMode    = errors.New("unsupported search mode")
	ErrNoEmbedder         = errors.New("vector search needs an embedding provider")
	ErrBothSearchesFailed = errors.New("both searches failed")
)

// ParseMode converts a user supplied mode. Empty means hybrid.
func ParseMode(s string) (SearchMode, error) {
	switch m := SearchMode(strings.ToLower(s)); m {
	case "":
		return SearchModeHybrid, nil
	case SearchModeHybrid, SearchModeVector, SearchModeKeyword:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, s)
	}
}

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query       string
	Limit       int
	Mode        SearchMode
	Filters     *storage.SearchFilters
	CorpusID    int64
	UseCache    bool    // Whether to use query cache
	RRFConstant float64 // k value for Reciprocal Rank Fusion (default 60)
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results       []types.SearchResult
	TotalResults  int
	SearchMode    SearchMode
	Duration      time.Duration
	CacheHit      bool
	VectorResults int
	TextResults   int
}

// Searcher coordinates search operations across vector and text search
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	cache    *expirable.LRU[[32]byte, *SearchResponse]
}

// Option configures a Searcher
type Option func(*searcherOptions)

type searcherOptions struct {
	cacheSize int
	cacheTTL  time.Duration
}

// WithCache sets the query cache size and entry lifetime
func WithCache(size int, ttl time.Duration) Option {
	return func(o *searcherOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// NewSearcher creates a new Searcher instance. A nil embedder limits
// search to keyword mode; hybrid requests fall back to it.
func NewSearcher(store storage.Storage, emb embedder.Embedder, opts ...Option) *Searcher {
	o := searcherOptions{cacheSize: DefaultCacheSize, cacheTTL: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}

	return &Searcher{
		storage:  store,
		embedder: emb,
		cache:    expirable.NewLRU[[32]byte, *SearchResponse](o.cacheSize, nil, o.cacheTTL),
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	hash := computeQueryHash(req)
	if req.UseCache {
		if cached, ok := s.cache.Get(hash); ok {
			response := copySearchResponse(cached)
			response.CacheHit = true
			response.Duration = time.Since(startTime)
			return response, nil
		}
	}

	var response *SearchResponse
	var err error

	switch req.Mode {
	case SearchModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case SearchModeVector:
		response, err = s.vectorSearch(ctx, req)
	case SearchModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.SearchMode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		s.cache.Add(hash, copySearchResponse(response))
	}

	return response, nil
}

// searchResult holds results from concurrent search operations
type searchResult struct {
	vectorResults []storage.VectorResult
	textResults   []storage.TextResult
	err           error
}

// runVectorSearch executes vector search in a goroutine
func (s *Searcher) runVectorSearch(ctx context.Context, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	res.vectorResults, res.err = s.searchVector(ctx, req, req.Limit*2)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// runTextSearch executes text search in a goroutine
func (s *Searcher) runTextSearch(ctx context.Context, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	res.textResults, res.err = s.storage.SearchText(ctx, req.CorpusID, req.Query, req.Limit*2, req.Filters)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) searchVector(ctx context.Context, req SearchRequest, limit int) ([]storage.VectorResult, error) {
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}
	embedding, err := embedder.EmbedOne(ctx, s.embedder, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	return s.storage.SearchVector(ctx, req.CorpusID, embedding.Vector, limit, req.Filters)
}

// hybridSearch combines vector and BM25 search using Reciprocal Rank Fusion
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if s.embedder == nil {
		logger.Debug("no embedder configured, hybrid search falls back to keyword")
		return s.keywordSearch(ctx, req)
	}

	vectorChan := make(chan searchResult, 1)
	textChan := make(chan searchResult, 1)

	go s.runVectorSearch(ctx, req, vectorChan)
	go s.runTextSearch(ctx, req, textChan)

	// Wait for both searches
	var vectorRes, textRes searchResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Allow one side to fail
	if vectorRes.err != nil && textRes.err != nil {
		return nil, fmt.Errorf("%w: vector=%w, text=%v", ErrBothSearchesFailed, vectorRes.err, textRes.err)
	}
	if vectorRes.err != nil {
		logger.Warn("vector search failed: %v", vectorRes.err)
	}
	if textRes.err != nil {
		logger.Warn("text search failed: %v", textRes.err)
	}

	rrf := applyRRF(vectorRes.vectorResults, textRes.textResults, req.RRFConstant)
	results, err := s.fetchResults(ctx, rrf, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: len(vectorRes.vectorResults),
		TextResults:   len(textRes.textResults),
	}, nil
}

// vectorSearch performs only vector similarity search
func (s *Searcher) vectorSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	vectorResults, err := s.searchVector(ctx, req, req.Limit)
	if err != nil {
		return nil, err
	}

	rankedResults := make([]rankedResult, len(vectorResults))
	for i, vr := range vectorResults {
		rankedResults[i] = rankedResult{
			chunkID: vr.ChunkID,
			score:   clamp01(vr.SimilarityScore),
			rank:    i + 1,
		}
	}

	results, err := s.fetchResults(ctx, rankedResults, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: len(vectorResults),
	}, nil
}

// keywordSearch performs only BM25 text search
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	textResults, err := s.storage.SearchText(ctx, req.CorpusID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	rankedResults := make([]rankedResult, len(textResults))
	for i, tr := range textResults {
		rankedResults[i] = rankedResult{
			chunkID: tr.ChunkID,
			score:   clamp01(tr.BM25Score),
			rank:    i + 1,
		}
	}

	results, err := s.fetchResults(ctx, rankedResults, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		TextResults:  len(textResults),
	}, nil
}

// rankedResult represents a chunk with its relevance score and rank
type rankedResult struct {
	chunkID int64
	score   float64
	rank    int
}

// applyRRF applies Reciprocal Rank Fusion to combine vector and text results.
// RRF(d) = sum of 1/(k + rank(d)), divided by 2/(k+1) so a chunk ranked first
// by both searches scores 1.
func applyRRF(vectorResults []storage.VectorResult, textResults []storage.TextResult, k float64) []rankedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, tr := range textResults {
		scores[tr.ChunkID] += 1.0 / (k + float64(rank+1))
	}

	maxScore := 2.0 / (k + 1)
	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{
			chunkID: chunkID,
			score:   score / maxScore,
		})
	}

	sortRankedResults(results)
	for i := range results {
		results[i].rank = i + 1
	}

	return results
}

// fetchResults retrieves chunk content and document metadata for ranked results
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult, limit int) ([]types.SearchResult, error) {
	limit = min(limit, len(ranked))
	results := make([]types.SearchResult, 0, limit)

	for _, rr := range ranked[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := s.storage.GetChunk(ctx, rr.chunkID)
		if err != nil {
			continue // Deleted since the search ran
		}

		doc, err := s.storage.GetDocumentByID(ctx, chunk.DocumentID)
		if err != nil {
			continue
		}

		results = append(results, types.SearchResult{
			ChunkID:        rr.chunkID,
			ChunkKey:       chunk.ChunkKey,
			Rank:           len(results) + 1,
			RelevanceScore: rr.score,
			ChunkType:      chunk.ChunkType,
			Paragraphs:     chunk.Paragraphs,
			Document:       doc.ToSearchDocument(),
			Content:        chunk.Content,
		})
	}

	return results, nil
}

// validateRequest ensures search request is valid and fills defaults
func (s *Searcher) validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}
	if req.Mode == SearchModeVector && s.embedder == nil {
		return ErrNoEmbedder
	}

	if req.RRFConstant <= 0 {
		req.RRFConstant = DefaultRRFConstant
	}

	return nil
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	for i, result := range src.Results {
		dst.Results[i] = result
		dst.Results[i].Paragraphs = slices.Clone(result.Paragraphs)
		if result.Document != nil {
			docCopy := *result.Document
			dst.Results[i].Document = &docCopy
		}
	}

	return &dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	fmt.Fprintf(&data, "%s|%s|%d|%d|%.0f", req.Query, req.Mode, req.CorpusID, req.Limit, req.RRFConstant)

	if f := req.Filters; f != nil {
		families := make([]string, len(f.Families))
		for i, fam := range f.Families {
			families[i] = string(fam)
		}
		chunkTypes := make([]string, len(f.ChunkTypes))
		for i, ct := range f.ChunkTypes {
			chunkTypes[i] = string(ct)
		}
		slices.Sort(families)
		slices.Sort(chunkTypes)

		fmt.Fprintf(&data, "|filters:%s|%s|%s|%s|%.2f",
			strings.Join(families, ","),
			strings.Join(chunkTypes, ","),
			f.DocumentNumber,
			f.PathPattern,
			f.MinRelevance)
	}

	return sha256.Sum256([]byte(data.String()))
}

// sortRankedResults sorts results by score in descending order, ties by chunk id
func sortRankedResults(results []rankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunkID < results[j].chunkID
	})
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// InvalidateCache drops every cached response. Called after re-indexing.
func (s *Searcher) InvalidateCache() {
	s.cache.Purge()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	return s.cache.Len()
}
