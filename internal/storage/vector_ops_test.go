package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

type searchFixture struct {
	storage  *SQLiteStorage
	corpusID int64
	chunks   map[string]int64 // chunk key -> chunk id
}

// setupSearchData indexes a circular and a notification with hand-picked
// vectors so similarity ordering is known in advance.
func setupSearchData(t *testing.T) *searchFixture {
	t.Helper()
	s := setupTestDB(t)
	ctx := context.Background()
	corpus := createCorpus(t, s)

	circular := createDocument(t, s, corpus.ID, "circulars/claims.txt", types.FamilyCircular, "IBBI/CIRP/61/2023")
	gazette := createDocument(t, s, corpus.ID, "gazette/gsr-123.txt", types.FamilyNotification, "G.S.R. 123(E)")

	fixture := &searchFixture{storage: s, corpusID: corpus.ID, chunks: map[string]int64{}}
	add := func(docID int64, key string, typ types.ChunkType, content string, vector []float32) {
		c := sampleChunk(key, "1")
		c.ChunkType = typ
		c.Content = content
		chunk := FromTypesChunk(c, docID)
		require.NoError(t, s.UpsertChunk(ctx, chunk))
		fixture.chunks[key] = chunk.ID
		if vector != nil {
			require.NoError(t, s.UpsertEmbedding(ctx, &Embedding{
				ChunkID:   chunk.ID,
				Vector:    SerializeVector(vector),
				Dimension: len(vector),
				Provider:  "local",
				Model:     "test",
			}))
		}
	}

	add(circular.ID, "directive_1", types.ChunkDirective,
		"Insolvency professionals shall file claims with the moratorium register.", []float32{1, 0, 0})
	add(circular.ID, "context_2", types.ChunkContext,
		"The Board has received representations regarding delays.", []float32{0.8, 0.6, 0})
	add(circular.ID, "closing", types.ChunkPowerCitation,
		"This circular is issued in exercise of powers under section 196.", []float32{0, 1, 0})
	add(gazette.ID, "rule_1", types.ChunkRule,
		"These rules may be called the Companies Amendment Rules.", []float32{0.9, 0, 0.1})
	add(gazette.ID, "rule_2", types.ChunkSubRule,
		"In rule 5, for the words annual return, substitute the words financial statement.", []float32{1, 0})

	return fixture
}

func resultIDs(results []VectorResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	return ids
}

func TestSearchVector_Ranking(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	results, err := f.storage.SearchVector(ctx, f.corpusID, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)

	// rule_2 has a two-dimensional vector and is skipped
	require.Len(t, results, 4)
	assert.Equal(t, []int64{
		f.chunks["directive_1"], f.chunks["rule_1"], f.chunks["context_2"], f.chunks["closing"],
	}, resultIDs(results))
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)
	assert.InDelta(t, 0.8, results[2].SimilarityScore, 1e-6)
	assert.InDelta(t, 0.0, results[3].SimilarityScore, 1e-6)
}

func TestSearchVector_Limit(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	results, err := f.storage.SearchVector(ctx, f.corpusID, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	all, err := f.storage.SearchVector(ctx, f.corpusID, []float32{1, 0, 0}, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSearchVector_Filters(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()
	query := []float32{1, 0, 0}

	tests := []struct {
		name    string
		filters *SearchFilters
		want    []string
	}{
		{
			name:    "family",
			filters: &SearchFilters{Families: []types.DocumentFamily{types.FamilyNotification}},
			want:    []string{"rule_1"},
		},
		{
			name:    "chunk types",
			filters: &SearchFilters{ChunkTypes: []types.ChunkType{types.ChunkContext, types.ChunkPowerCitation}},
			want:    []string{"context_2", "closing"},
		},
		{
			name:    "document number",
			filters: &SearchFilters{DocumentNumber: "IBBI/CIRP/61/2023"},
			want:    []string{"directive_1", "context_2", "closing"},
		},
		{
			name:    "path pattern",
			filters: &SearchFilters{PathPattern: "gazette/*"},
			want:    []string{"rule_1"},
		},
		{
			name:    "min relevance",
			filters: &SearchFilters{MinRelevance: 0.85},
			want:    []string{"directive_1", "rule_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := f.storage.SearchVector(ctx, f.corpusID, query, 10, tt.filters)
			require.NoError(t, err)

			want := make([]int64, len(tt.want))
			for i, key := range tt.want {
				want[i] = f.chunks[key]
			}
			assert.Equal(t, want, resultIDs(results))
		})
	}
}

func TestSearchVector_EdgeCases(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	results, err := f.storage.SearchVector(ctx, f.corpusID, []float32{}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.storage.SearchVector(ctx, 99999, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchText(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	results, err := f.storage.SearchText(ctx, f.corpusID, "moratorium", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, f.chunks["directive_1"], results[0].ChunkID)
	assert.Greater(t, results[0].BM25Score, 0.0)
	assert.LessOrEqual(t, results[0].BM25Score, 1.0)
}

func TestSearchText_MatchesAnyTerm(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	results, err := f.storage.SearchText(ctx, f.corpusID, "moratorium OR section (196)", 10, nil)
	require.NoError(t, err)

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	assert.ElementsMatch(t, []int64{f.chunks["directive_1"], f.chunks["closing"]}, ids)
}

func TestSearchText_Filters(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	filters := &SearchFilters{Families: []types.DocumentFamily{types.FamilyNotification}}
	results, err := f.storage.SearchText(ctx, f.corpusID, "rules rule words", 10, filters)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Contains(t, []int64{f.chunks["rule_1"], f.chunks["rule_2"]}, r.ChunkID)
	}

	filters = &SearchFilters{Families: []types.DocumentFamily{types.FamilyStatute}}
	results, err = f.storage.SearchText(ctx, f.corpusID, "moratorium", 10, filters)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchText_ReflectsUpdates(t *testing.T) {
	f := setupSearchData(t)
	ctx := context.Background()

	chunk, err := f.storage.GetChunk(ctx, f.chunks["context_2"])
	require.NoError(t, err)
	chunk.Content = "Representations about liquidation timelines."
	require.NoError(t, f.storage.UpsertChunk(ctx, chunk))

	results, err := f.storage.SearchText(ctx, f.corpusID, "delays", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.storage.SearchText(ctx, f.corpusID, "liquidation", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, f.chunks["context_2"], results[0].ChunkID)
}

func TestSearchText_EmptyQuery(t *testing.T) {
	f := setupSearchData(t)

	_, err := f.storage.SearchText(context.Background(), f.corpusID, " -- ** ", 10, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestBuildFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"moratorium", `"moratorium"`},
		{"Section 240A", `"section" OR "240a"`},
		{`claims "NOT" claims`, `"claims" OR "not"`},
		{"IBBI/2023/45", `"ibbi" OR "2023" OR "45"`},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildFTSQuery(tt.in), tt.in)
	}
}

func TestVectorSerialization(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	blob := SerializeVector(v)
	assert.Len(t, blob, 12)
	assert.Equal(t, v, DeserializeVector(blob))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
}
