package searcher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanak8278/IBC-RAG/internal/embedder"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// mockEmbedder maps query topics to fixed three-dimensional vectors
type mockEmbedder struct {
	err error
}

func topicVector(text string) []float32 {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "moratorium"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "rules"):
		return []float32{0, 0, 1}
	default:
		return []float32{0, 1, 0}
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]*embedder.Embedding, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*embedder.Embedding, len(texts))
	for i, text := range texts {
		out[i] = &embedder.Embedding{
			Vector:    topicVector(text),
			Dimension: 3,
			Provider:  "mock",
			Model:     "mock-model",
			Hash:      embedder.ComputeHash(text),
		}
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int   { return 3 }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "mock-model" }
func (m *mockEmbedder) Close() error     { return nil }

type fixture struct {
	searcher *Searcher
	store    storage.Storage
	corpusID int64
	chunks   map[string]int64 // chunk key -> chunk id
}

// setupTestSearcher indexes one circular and one notification into
// in-memory storage
func setupTestSearcher(t *testing.T, emb embedder.Embedder, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	corpus := &storage.Corpus{RootPath: "/corpus/ibbi", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	f := &fixture{
		searcher: NewSearcher(store, emb, opts...),
		store:    store,
		corpusID: corpus.ID,
		chunks:   map[string]int64{},
	}

	circular := createTestDocument(t, store, corpus.ID, "circulars/cirp-61.txt", types.FamilyCircular, "IBBI/CIRP/61/2023")
	gazette := createTestDocument(t, store, corpus.ID, "gazette/gsr-123.txt", types.FamilyNotification, "G.S.R. 123(E)")

	createTestChunk(t, f, circular.ID, "directive_1", types.ChunkDirective, "1",
		"Resolution professionals shall file claims received during the moratorium within seven days.")
	createTestChunk(t, f, circular.ID, "context_1", types.ChunkContext, "",
		"The Board has received representations regarding delays in the process.")
	createTestChunk(t, f, gazette.ID, "rule_1", types.ChunkRule, "",
		"These rules may be called the Companies (Incorporation) Amendment Rules, 2020.")

	return f
}

func createTestDocument(t *testing.T, store storage.Storage, corpusID int64, path string, family types.DocumentFamily, number string) *storage.Document {
	t.Helper()
	doc := &storage.Document{
		CorpusID:       corpusID,
		Path:           path,
		Family:         family,
		DocumentNumber: number,
		Date:           "18th March, 2024",
		Subject:        "Filing of claims",
		ContentHash:    [32]byte{byte(len(path))},
		ModTime:        time.Now(),
	}
	require.NoError(t, store.UpsertDocument(context.Background(), doc))
	return doc
}

func createTestChunk(t *testing.T, f *fixture, documentID int64, key string, typ types.ChunkType, paragraph, content string) {
	t.Helper()
	ctx := context.Background()

	c := types.Chunk{ChunkID: key, ChunkType: typ, Content: content}
	if paragraph != "" {
		c.Paragraph = types.SingleParagraph(paragraph)
	}
	chunk := storage.FromTypesChunk(c, documentID)
	require.NoError(t, f.store.UpsertChunk(ctx, chunk))
	f.chunks[key] = chunk.ID

	vector := topicVector(content)
	require.NoError(t, f.store.UpsertEmbedding(ctx, &storage.Embedding{
		ChunkID:   chunk.ID,
		Vector:    storage.SerializeVector(vector),
		Dimension: len(vector),
		Provider:  "mock",
		Model:     "mock-model",
	}))
}

func chunkKeys(results []types.SearchResult) []string {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.ChunkKey
	}
	return keys
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchMode
		wantErr bool
	}{
		{"", SearchModeHybrid, false},
		{"hybrid", SearchModeHybrid, false},
		{"VECTOR", SearchModeVector, false},
		{"keyword", SearchModeKeyword, false},
		{"fuzzy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedMode, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidateRequest(t *testing.T) {
	s := NewSearcher(nil, &mockEmbedder{})

	tests := []struct {
		name    string
		req     SearchRequest
		want    SearchRequest
		wantErr error
	}{
		{
			name: "defaults",
			req:  SearchRequest{Query: "  moratorium "},
			want: SearchRequest{Query: "moratorium", Limit: DefaultLimit, Mode: SearchModeHybrid, RRFConstant: DefaultRRFConstant},
		},
		{
			name: "limit capped",
			req:  SearchRequest{Query: "claims", Limit: 500, Mode: SearchModeKeyword, RRFConstant: 10},
			want: SearchRequest{Query: "claims", Limit: MaxLimit, Mode: SearchModeKeyword, RRFConstant: 10},
		},
		{
			name:    "empty query",
			req:     SearchRequest{Query: " \t"},
			wantErr: ErrEmptyQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := s.validateRequest(&req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestValidateRequest_VectorWithoutEmbedder(t *testing.T) {
	s := NewSearcher(nil, nil)
	req := SearchRequest{Query: "claims", Mode: SearchModeVector}
	assert.ErrorIs(t, s.validateRequest(&req), ErrNoEmbedder)
}

func TestApplyRRF(t *testing.T) {
	vector := []storage.VectorResult{{ChunkID: 1, SimilarityScore: 0.9}, {ChunkID: 2, SimilarityScore: 0.5}}
	text := []storage.TextResult{{ChunkID: 1, BM25Score: 0.7}, {ChunkID: 3, BM25Score: 0.4}}

	results := applyRRF(vector, text, 60)
	require.Len(t, results, 3)

	// Ranked first by both searches
	assert.Equal(t, int64(1), results[0].chunkID)
	assert.InDelta(t, 1.0, results[0].score, 1e-9)
	assert.Equal(t, 1, results[0].rank)

	// Chunks 2 and 3 are both second in one list, so the tie breaks on id
	assert.Equal(t, int64(2), results[1].chunkID)
	assert.Equal(t, int64(3), results[2].chunkID)
	assert.InDelta(t, results[1].score, results[2].score, 1e-12)
	assert.InDelta(t, (1.0/62)/(2.0/61), results[1].score, 1e-9)
	assert.Equal(t, 3, results[2].rank)
}

func TestApplyRRF_Empty(t *testing.T) {
	assert.Empty(t, applyRRF(nil, nil, 60))

	results := applyRRF(nil, []storage.TextResult{{ChunkID: 7}}, 0)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].score, 1e-9)
}

func TestSortRankedResults(t *testing.T) {
	results := []rankedResult{
		{chunkID: 4, score: 0.2},
		{chunkID: 3, score: 0.9},
		{chunkID: 2, score: 0.2},
		{chunkID: 1, score: 0.5},
	}
	sortRankedResults(results)

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.chunkID
	}
	assert.Equal(t, []int64{3, 1, 2, 4}, ids)
}

func TestComputeQueryHash(t *testing.T) {
	base := SearchRequest{Query: "moratorium", Mode: SearchModeHybrid, CorpusID: 1, Limit: 10}

	assert.Equal(t, computeQueryHash(base), computeQueryHash(base))

	other := base
	other.CorpusID = 2
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(other))

	other = base
	other.Mode = SearchModeKeyword
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(other))

	a := base
	a.Filters = &storage.SearchFilters{Families: []types.DocumentFamily{types.FamilyCircular, types.FamilyNotification}}
	b := base
	b.Filters = &storage.SearchFilters{Families: []types.DocumentFamily{types.FamilyNotification, types.FamilyCircular}}
	assert.Equal(t, computeQueryHash(a), computeQueryHash(b), "family order must not matter")
	assert.NotEqual(t, computeQueryHash(base), computeQueryHash(a))

	c := base
	c.Filters = &storage.SearchFilters{PathPattern: "gazette/*"}
	assert.NotEqual(t, computeQueryHash(a), computeQueryHash(c))
}

func TestSearchModeKeyword(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "moratorium",
		Mode:     SearchModeKeyword,
		CorpusID: f.corpusID,
	})
	require.NoError(t, err)

	assert.Equal(t, SearchModeKeyword, resp.SearchMode)
	assert.Equal(t, 1, resp.TextResults)
	assert.Zero(t, resp.VectorResults)
	require.Len(t, resp.Results, 1)

	r := resp.Results[0]
	assert.NoError(t, r.Validate())
	assert.Equal(t, "directive_1", r.ChunkKey)
	assert.Equal(t, types.ChunkDirective, r.ChunkType)
	assert.Equal(t, []string{"1"}, r.Paragraphs)
	assert.Equal(t, "circulars/cirp-61.txt", r.Document.Path)
	assert.Equal(t, "IBBI/CIRP/61/2023", r.Document.DocumentNumber)
	assert.Equal(t, types.FamilyCircular, r.Document.Family)
}

func TestSearchModeVector(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "claims during the moratorium",
		Mode:     SearchModeVector,
		CorpusID: f.corpusID,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, "directive_1", resp.Results[0].ChunkKey)
	assert.InDelta(t, 1.0, resp.Results[0].RelevanceScore, 1e-6)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		assert.NoError(t, r.Validate())
	}
}

func TestSearchModeHybrid(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "moratorium claims",
		CorpusID: f.corpusID,
	})
	require.NoError(t, err)

	assert.Equal(t, SearchModeHybrid, resp.SearchMode)
	assert.Equal(t, 3, resp.VectorResults)
	assert.Positive(t, resp.TextResults)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "directive_1", resp.Results[0].ChunkKey)
	assert.InDelta(t, 1.0, resp.Results[0].RelevanceScore, 1e-9)
	for _, r := range resp.Results {
		assert.NoError(t, r.Validate())
	}
}

func TestSearchWithFilters(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "rules",
		CorpusID: f.corpusID,
		Filters:  &storage.SearchFilters{Families: []types.DocumentFamily{types.FamilyNotification}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rule_1"}, chunkKeys(resp.Results))
}

func TestHybridSearch_FallsBackWithoutEmbedder(t *testing.T) {
	f := setupTestSearcher(t, nil)

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "representations delays",
		CorpusID: f.corpusID,
	})
	require.NoError(t, err)
	assert.Zero(t, resp.VectorResults)
	assert.Equal(t, []string{"context_1"}, chunkKeys(resp.Results))
}

func TestHybridSearchWithEmbedderError(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{err: errors.New("provider down")})

	resp, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "moratorium",
		CorpusID: f.corpusID,
	})
	require.NoError(t, err)
	assert.Zero(t, resp.VectorResults)
	assert.Equal(t, []string{"directive_1"}, chunkKeys(resp.Results))
}

func TestHybridSearch_BothFail(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{err: errors.New("provider down")})

	_, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "***",
		CorpusID: f.corpusID,
	})
	assert.ErrorIs(t, err, ErrBothSearchesFailed)
}

func TestSearchWithUnsupportedMode(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	_, err := f.searcher.Search(context.Background(), SearchRequest{
		Query:    "claims",
		Mode:     "semantic",
		CorpusID: f.corpusID,
	})
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestHybridSearchContextCancellation(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.searcher.Search(ctx, SearchRequest{Query: "moratorium", CorpusID: f.corpusID})
	assert.Error(t, err)
}

func TestFetchResultsWithMissingChunks(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	ranked := []rankedResult{
		{chunkID: 99999, score: 0.9, rank: 1},
		{chunkID: f.chunks["rule_1"], score: 0.5, rank: 2},
	}
	results, err := f.searcher.fetchResults(context.Background(), ranked, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rule_1", results[0].ChunkKey)
	assert.Equal(t, 1, results[0].Rank)
}

func TestFetchResultsLimitRespected(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	ranked := make([]rankedResult, 0, len(f.chunks))
	for _, id := range f.chunks {
		ranked = append(ranked, rankedResult{chunkID: id, score: 0.5})
	}
	results, err := f.searcher.fetchResults(context.Background(), ranked, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchWithCache(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})
	ctx := context.Background()
	req := SearchRequest{Query: "moratorium", CorpusID: f.corpusID, UseCache: true}

	first, err := f.searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 1, f.searcher.CacheLen())

	// Mutating a returned response must not leak into the cache
	first.Results[0].Document.Path = "tampered"

	second, err := f.searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, "circulars/cirp-61.txt", second.Results[0].Document.Path)
	assert.Equal(t, chunkKeys(first.Results), chunkKeys(second.Results))

	f.searcher.InvalidateCache()
	assert.Zero(t, f.searcher.CacheLen())

	third, err := f.searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestSearchWithoutCacheFlag(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{})

	_, err := f.searcher.Search(context.Background(), SearchRequest{Query: "moratorium", CorpusID: f.corpusID})
	require.NoError(t, err)
	assert.Zero(t, f.searcher.CacheLen())
}

func TestCacheExpiry(t *testing.T) {
	f := setupTestSearcher(t, &mockEmbedder{}, WithCache(10, 50*time.Millisecond))
	ctx := context.Background()
	req := SearchRequest{Query: "moratorium", CorpusID: f.corpusID, UseCache: true}

	_, err := f.searcher.Search(ctx, req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		resp, err := f.searcher.Search(ctx, req)
		return err == nil && !resp.CacheHit
	}, 2*time.Second, 25*time.Millisecond)
}
