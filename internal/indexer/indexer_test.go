package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanak8278/IBC-RAG/internal/embedder"
	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/merger"
	"github.com/kanak8278/IBC-RAG/internal/processor"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/internal/tokenizer"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

const circularText = `**Insolvency and Bankruptcy Board of India**

Circular No. IBBI/IP/013/2018

**Sub: Filing of returns**

The Board has observed delays in filing.

1. Every insolvency professional shall file returns within 30 days.

2. Returns filed after 01.04.2020 shall include Form A under section 5. The Board may seek details.

3. Filing shall be done within 30 days.

This is issued under section 196 of the Code.

Yours faithfully,
(Name)
`

const notificationText = `MINISTRY OF CORPORATE AFFAIRS
NOTIFICATION
New Delhi, the 1st April, 2020
G.S.R. 123(E).—In exercise of the powers conferred by section 469 of the Companies Act, 2013, the Central Government hereby makes the following rules further to amend the Companies (Incorporation) Rules, 2014, namely:—
1. Short title and commencement.—(1) These rules may be called the Companies (Incorporation) Amendment Rules, 2020.
(2) They shall come into force on the date of their publication in the Official Gazette.
2. In the Companies (Incorporation) Rules, 2014, in rule 5, for the words "thirty days", the words "sixty days" shall be substituted.
[F. No. 1/13/2013-CL-V]
K. V. R. MURTY, Jt. Secy.
`

// mockEmbedder implements embedder.Embedder for testing
type mockEmbedder struct {
	dimension int
	embedErr  error
	callCount int
	mu        sync.Mutex
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dimension: 8}
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]*embedder.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}

	m.callCount++
	embeddings := make([]*embedder.Embedding, len(texts))
	for i := range texts {
		vector := make([]float32, m.dimension)
		for j := range vector {
			vector[j] = 0.5
		}
		embeddings[i] = &embedder.Embedding{
			Vector:    vector,
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     "test-v1",
		}
	}
	return embeddings, nil
}

func (m *mockEmbedder) Dimension() int   { return m.dimension }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "test-v1" }
func (m *mockEmbedder) Close() error     { return nil }

func (m *mockEmbedder) getCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestIndexer(t testing.TB, opts ...Option) (*Indexer, storage.Storage) {
	t.Helper()
	store := setupTestStorage(t)
	proc := processor.NewService(processor.Options{})
	engine := merger.New(tokenizer.Words{}, merger.DefaultPolicy())
	return New(store, proc, engine, opts...), store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// createTestCorpus lays out two valid documents and one that no family matches
func createTestCorpus(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	createTestFile(t, dir, "circulars/ip-013.txt", circularText)
	createTestFile(t, dir, "gazette/gsr-123.txt", notificationText)
	createTestFile(t, dir, "junk.txt", "minutes of the weekly team lunch")
	return dir
}

func TestNew(t *testing.T) {
	emb := newMockEmbedder()
	idx, _ := newTestIndexer(t, WithEmbedder(emb))

	require.NotNil(t, idx)
	assert.NotNil(t, idx.processor)
	assert.NotNil(t, idx.merger)
	assert.Equal(t, emb, idx.embedder)
	assert.Nil(t, idx.writer)
}

func TestConfigDefaults(t *testing.T) {
	var cfg *Config
	got := cfg.withDefaults()
	assert.Positive(t, got.Workers)
	assert.Equal(t, DefaultExtensions, got.Extensions)

	got = (&Config{Workers: 2, Extensions: []string{".text"}}).withDefaults()
	assert.Equal(t, 2, got.Workers)
	assert.Equal(t, []string{".text"}, got.Extensions)
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "b.txt", "x")
	createTestFile(t, dir, "a/c.MD", "x")
	createTestFile(t, dir, "notes.pdf", "x")
	createTestFile(t, dir, ".git/HEAD.txt", "x")
	createTestFile(t, dir, "out/processed_b.txt", "x")

	files, err := DiscoverFiles(dir, DefaultExtensions)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a/c.MD"),
		filepath.Join(dir, "b.txt"),
	}, files)
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := DiscoverFiles(t.TempDir(), DefaultExtensions)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRelativePath(t *testing.T) {
	root := t.TempDir()

	rel, err := relativePath(root, filepath.Join(root, "gazette", "gsr.txt"))
	require.NoError(t, err)
	assert.Equal(t, "gazette/gsr.txt", rel)

	_, err = relativePath(root, filepath.Join(filepath.Dir(root), "elsewhere.txt"))
	assert.Error(t, err)
}

func TestIndexCorpus_Success(t *testing.T) {
	emb := newMockEmbedder()
	idx, store := newTestIndexer(t, WithEmbedder(emb))
	dir := createTestCorpus(t)
	ctx := context.Background()

	stats, err := idx.IndexCorpus(ctx, dir, &Config{Workers: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3, stats.DocumentsTotal)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsFailed)
	assert.Equal(t, 0, stats.DocumentsSkipped)
	assert.Equal(t, 1, stats.Amendments)
	assert.Equal(t, 0, stats.RegularNotices)
	assert.Positive(t, stats.MergedChunks)
	assert.LessOrEqual(t, stats.MergedChunks, stats.ChunksCreated)
	assert.Equal(t, stats.MergedChunks, stats.EmbeddingsGenerated)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "junk.txt: ")
	assert.Equal(t, 2, emb.getCallCount())

	corpus, err := store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, corpus.TotalDocuments)
	assert.Equal(t, stats.MergedChunks, corpus.TotalChunks)

	status, err := store.GetStatus(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.FailedCount)
	assert.Equal(t, 1, status.AmendmentsCount)
	assert.Equal(t, stats.MergedChunks, status.EmbeddingsCount)
	assert.Equal(t, 1, status.FamilyCounts[types.FamilyCircular])
	assert.Equal(t, 1, status.FamilyCounts[types.FamilyNotification])
	require.NotNil(t, status.LastRun)
	assert.Equal(t, stats.RunID, status.LastRun.ID)
	assert.Equal(t, storage.RunCompleted, status.LastRun.Status)
	assert.Equal(t, 2, status.LastRun.Successful)
	assert.Equal(t, 1, status.LastRun.Failed)

	gazette, err := store.GetDocument(ctx, corpus.ID, "gazette/gsr-123.txt")
	require.NoError(t, err)
	assert.Equal(t, types.FamilyNotification, gazette.Family)
	assert.Equal(t, "123", gazette.DocumentNumber)
	assert.True(t, gazette.IsAmendment)
	assert.Nil(t, gazette.ProcessError)
	assert.Contains(t, string(gazette.Metadata), `"amended_instrument"`)

	junk, err := store.GetDocument(ctx, corpus.ID, "junk.txt")
	require.NoError(t, err)
	require.NotNil(t, junk.ProcessError)
	assert.Contains(t, *junk.ProcessError, types.ErrUnknownFamily.Error())
}

func TestIndexCorpus_WithoutEmbedder(t *testing.T) {
	idx, store := newTestIndexer(t)
	dir := t.TempDir()
	createTestFile(t, dir, "ip-013.txt", circularText)
	ctx := context.Background()

	stats, err := idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.EmbeddingsGenerated)

	corpus, err := store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	doc, err := store.GetDocument(ctx, corpus.ID, "ip-013.txt")
	require.NoError(t, err)
	assert.Equal(t, "IBBI/IP/013/2018", doc.DocumentNumber)

	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, stats.MergedChunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Content, c.ChunkKey)
		_, err := store.GetEmbedding(ctx, c.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func TestIndexCorpus_IncrementalUpdate(t *testing.T) {
	idx, store := newTestIndexer(t)
	dir := createTestCorpus(t)
	ctx := context.Background()

	_, err := idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)

	// Unchanged documents are skipped, failed ones are retried
	stats, err := idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 2, stats.DocumentsSkipped)
	assert.Equal(t, 1, stats.DocumentsFailed)

	createTestFile(t, dir, "circulars/ip-013.txt", circularText+"\n4. Returns shall be signed by the professional.\n")
	stats, err = idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)

	corpus, err := store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	doc, err := store.GetDocument(ctx, corpus.ID, "circulars/ip-013.txt")
	require.NoError(t, err)
	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, stats.MergedChunks)
}

func TestIndexCorpus_Force(t *testing.T) {
	idx, _ := newTestIndexer(t)
	dir := createTestCorpus(t)
	ctx := context.Background()

	_, err := idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)

	stats, err := idx.IndexCorpus(ctx, dir, &Config{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 0, stats.DocumentsSkipped)
}

func TestIndexCorpus_EmptyCorpus(t *testing.T) {
	idx, _ := newTestIndexer(t)

	stats, err := idx.IndexCorpus(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsTotal)
	assert.Empty(t, stats.ErrorMessages)
}

func TestIndexCorpus_ConcurrentCalls(t *testing.T) {
	idx, _ := newTestIndexer(t)
	dir := t.TempDir()

	require.True(t, idx.locks.TryAcquire(dir))
	_, err := idx.IndexCorpus(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrIndexInProgress)

	// Other corpora are not blocked
	_, err = idx.IndexCorpus(context.Background(), t.TempDir(), nil)
	assert.NoError(t, err)

	idx.locks.Release(dir)
	_, err = idx.IndexCorpus(context.Background(), dir, nil)
	assert.NoError(t, err)
}

func TestIndexCorpus_ContextCancellation(t *testing.T) {
	idx, _ := newTestIndexer(t)
	dir := createTestCorpus(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexCorpus(ctx, dir, nil)
	assert.Error(t, err)
	assert.True(t, idx.locks.TryAcquire(dir), "lock must be released")
}

func TestIndexCorpus_EmbeddingErrors(t *testing.T) {
	emb := newMockEmbedder()
	emb.embedErr = errors.New("provider down")
	idx, store := newTestIndexer(t, WithEmbedder(emb))
	dir := createTestCorpus(t)
	ctx := context.Background()

	stats, err := idx.IndexCorpus(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 3, stats.DocumentsFailed)
	embedFailures := 0
	for _, msg := range stats.ErrorMessages {
		if strings.Contains(msg, "provider down") {
			embedFailures++
		}
	}
	assert.Equal(t, 2, embedFailures)

	corpus, err := store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	status, err := store.GetStatus(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, status.ChunksCount)
}

func TestIndexCorpus_WritesRecords(t *testing.T) {
	validator, err := export.NewValidator()
	require.NoError(t, err)
	outDir := t.TempDir()
	idx, _ := newTestIndexer(t, WithWriter(export.NewWriter(outDir, validator)))

	dir := t.TempDir()
	createTestFile(t, dir, "gsr-123.txt", notificationText)

	stats, err := idx.IndexCorpus(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.DocumentsIndexed, stats.ErrorMessages)

	assert.FileExists(t, filepath.Join(outDir, "2020", "gsr-123.json"))
	assert.FileExists(t, filepath.Join(outDir, "2020", "processed_gsr-123.json"))
}

func TestIndexCorpus_Observer(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	idx, _ := newTestIndexer(t, WithObserver(func(r DocumentResult) {
		mu.Lock()
		defer mu.Unlock()
		seen[r.Path] = r.Status
	}))

	_, err := idx.IndexCorpus(context.Background(), createTestCorpus(t), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"circulars/ip-013.txt": StatusIndexed,
		"gazette/gsr-123.txt":  StatusIndexed,
		"junk.txt":             StatusFailed,
	}, seen)
}

func TestIndexFileAndRemoveFile(t *testing.T) {
	idx, store := newTestIndexer(t)
	dir := t.TempDir()
	path := createTestFile(t, dir, "ip-013.txt", circularText)
	ctx := context.Background()

	res, err := idx.IndexFile(ctx, dir, path, false)
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)
	assert.Equal(t, "ip-013.txt", res.Path)
	assert.Equal(t, types.FamilyCircular, res.Family)

	res, err = idx.IndexFile(ctx, dir, path, false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)

	corpus, err := store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.TotalDocuments)

	require.NoError(t, idx.RemoveFile(ctx, dir, path))
	_, err = store.GetDocument(ctx, corpus.ID, "ip-013.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	corpus, err = store.GetCorpus(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, corpus.TotalDocuments)
	assert.Equal(t, 0, corpus.TotalChunks)

	// Removing an unknown document is a no-op
	assert.NoError(t, idx.RemoveFile(ctx, dir, filepath.Join(dir, "missing.txt")))
}

func TestIndexFile_Failure(t *testing.T) {
	idx, _ := newTestIndexer(t)
	dir := t.TempDir()
	path := createTestFile(t, dir, "junk.txt", "nothing legal here")

	res, err := idx.IndexFile(context.Background(), dir, path, false)
	assert.ErrorIs(t, err, types.ErrUnknownFamily)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestCorpusLocks(t *testing.T) {
	var l corpusLocks
	assert.True(t, l.TryAcquire("/a"))
	assert.False(t, l.TryAcquire("/a"))
	assert.True(t, l.TryAcquire("/b"))
	l.Release("/a")
	assert.True(t, l.TryAcquire("/a"))
}

func TestCorpusLocks_Concurrent(t *testing.T) {
	var l corpusLocks
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire("/corpus") {
				mu.Lock()
				acquired++
				mu.Unlock()
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, acquired)
}
