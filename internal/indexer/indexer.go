package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kanak8278/IBC-RAG/internal/embedder"
	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/internal/merger"
	"github.com/kanak8278/IBC-RAG/internal/processor"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// ErrIndexInProgress is returned when a corpus is already being indexed
var ErrIndexInProgress = errors.New("indexing already in progress")

// DefaultExtensions are the document file extensions indexed by default
var DefaultExtensions = []string{".txt", ".md"}

// Indexer coordinates the indexing pipeline: process -> merge -> embed -> store
type Indexer struct {
	processor *processor.Service
	merger    *merger.Engine
	embedder  embedder.Embedder
	writer    *export.Writer
	storage   storage.Storage
	observer  func(DocumentResult)

	locks corpusLocks
}

// Option configures an Indexer
type Option func(*Indexer)

// WithEmbedder generates and stores an embedding for every merged chunk
func WithEmbedder(e embedder.Embedder) Option {
	return func(idx *Indexer) { idx.embedder = e }
}

// WithWriter also writes processed and merged records to disk
func WithWriter(w *export.Writer) Option {
	return func(idx *Indexer) { idx.writer = w }
}

// WithObserver is called once per document after it is indexed, skipped or failed.
// It may be called concurrently.
func WithObserver(fn func(DocumentResult)) Option {
	return func(idx *Indexer) { idx.observer = fn }
}

// Config contains configuration for one indexing run
type Config struct {
	Workers    int      // Number of concurrent workers (default: runtime.NumCPU())
	Extensions []string // File extensions to index (default: .txt, .md)
	Force      bool     // Re-index documents whose content hash is unchanged
}

func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if len(out.Extensions) == 0 {
		out.Extensions = DefaultExtensions
	}
	return &out
}

// Document outcomes
const (
	StatusIndexed = "indexed"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// DocumentResult describes what happened to one document
type DocumentResult struct {
	Path        string // Relative to the corpus root
	Status      string
	Family      types.DocumentFamily
	IsAmendment bool
	Chunks      int
	Merged      int
	Embeddings  int
	Err         error
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	RunID               string
	DocumentsTotal      int
	DocumentsIndexed    int
	DocumentsSkipped    int
	DocumentsFailed     int
	ChunksCreated       int // Chunks before the merge pass
	MergedChunks        int // Chunks stored after the merge pass
	EmbeddingsGenerated int
	Amendments          int // Notifications amending another instrument
	RegularNotices      int // Notifications that amend nothing
	Duration            time.Duration
	ErrorMessages       []string
}

// counters are updated concurrently by workers
type counters struct {
	indexed, skipped, failed   atomic.Int32
	chunks, merged, embeddings atomic.Int32
	amendments, regularNotices atomic.Int32
}

// New creates a new Indexer instance
func New(store storage.Storage, proc *processor.Service, engine *merger.Engine, opts ...Option) *Indexer {
	idx := &Indexer{
		processor: proc,
		merger:    engine,
		storage:   store,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexCorpus indexes every document under rootPath. A failing document is
// recorded and does not stop the run.
func (idx *Indexer) IndexCorpus(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	if !idx.locks.TryAcquire(rootPath) {
		return nil, ErrIndexInProgress
	}
	defer idx.locks.Release(rootPath)

	config = config.withDefaults()
	startTime := time.Now()

	corpus, err := idx.getOrCreateCorpus(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create corpus: %w", err)
	}

	files, err := DiscoverFiles(rootPath, config.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}

	run, err := idx.storage.StartRun(ctx, corpus.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("index run %s: %d documents under %s", run.ID, len(files), rootPath)

	stats := &Statistics{
		RunID:          run.ID,
		DocumentsTotal: len(files),
		ErrorMessages:  make([]string, 0),
	}

	indexErr := idx.indexDocuments(ctx, corpus, files, config, stats)

	run.Total = stats.DocumentsTotal
	run.Successful = stats.DocumentsIndexed
	run.Failed = stats.DocumentsFailed
	run.Skipped = stats.DocumentsSkipped
	run.Chunks = stats.MergedChunks
	if indexErr != nil {
		run.Status = storage.RunFailed
	}
	// The run context may already be cancelled
	if err := idx.storage.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record run %s: %v", run.ID, err)
	}

	if indexErr != nil {
		return stats, fmt.Errorf("failed to index documents: %w", indexErr)
	}

	if err := idx.updateCorpusStats(ctx, corpus); err != nil {
		return nil, fmt.Errorf("failed to update corpus stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// IndexFile indexes or re-indexes a single document of the corpus at rootPath
func (idx *Indexer) IndexFile(ctx context.Context, rootPath, path string, force bool) (DocumentResult, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return DocumentResult{}, err
	}
	corpus, err := idx.getOrCreateCorpus(ctx, rootPath)
	if err != nil {
		return DocumentResult{}, err
	}
	res := idx.indexDocument(ctx, corpus, path, force)
	idx.notify(res)
	if res.Err != nil {
		return res, res.Err
	}
	return res, idx.updateCorpusStats(ctx, corpus)
}

// RemoveFile deletes a document and its chunks from the corpus index
func (idx *Indexer) RemoveFile(ctx context.Context, rootPath, path string) error {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return err
	}
	corpus, err := idx.storage.GetCorpus(ctx, rootPath)
	if err != nil {
		return err
	}
	relPath, err := relativePath(corpus.RootPath, path)
	if err != nil {
		return err
	}
	doc, err := idx.storage.GetDocument(ctx, corpus.ID, relPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := idx.storage.DeleteDocument(ctx, doc.ID); err != nil {
		return err
	}
	return idx.updateCorpusStats(ctx, corpus)
}

// getOrCreateCorpus retrieves an existing corpus or creates a new one
func (idx *Indexer) getOrCreateCorpus(ctx context.Context, rootPath string) (*storage.Corpus, error) {
	corpus, err := idx.storage.GetCorpus(ctx, rootPath)
	if err == nil {
		return corpus, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	corpus = &storage.Corpus{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateCorpus(ctx, corpus); err != nil {
		return nil, err
	}
	return corpus, nil
}

// DiscoverFiles finds all documents under rootPath in lexical order. Hidden
// directories and merged records are skipped.
func DiscoverFiles(rootPath string, extensions []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !hasExtension(path, extensions) || export.IsMergedRecord(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// indexDocuments indexes documents concurrently
func (idx *Indexer) indexDocuments(ctx context.Context, corpus *storage.Corpus, files []string, config *Config, stats *Statistics) error {
	semaphore := make(chan struct{}, config.Workers)

	var c counters
	var mu sync.Mutex // Protect stats.ErrorMessages

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res := idx.indexDocument(gctx, corpus, path, config.Force)
			idx.notify(res)

			switch res.Status {
			case StatusSkipped:
				c.skipped.Add(1)
				return nil
			case StatusFailed:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.failed.Add(1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", res.Path, res.Err))
				mu.Unlock()
				return nil
			}

			c.indexed.Add(1)
			c.chunks.Add(int32(res.Chunks))
			c.merged.Add(int32(res.Merged))
			c.embeddings.Add(int32(res.Embeddings))
			if res.Family == types.FamilyNotification {
				if res.IsAmendment {
					c.amendments.Add(1)
				} else {
					c.regularNotices.Add(1)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	stats.DocumentsIndexed = int(c.indexed.Load())
	stats.DocumentsSkipped = int(c.skipped.Load())
	stats.DocumentsFailed = int(c.failed.Load())
	stats.ChunksCreated = int(c.chunks.Load())
	stats.MergedChunks = int(c.merged.Load())
	stats.EmbeddingsGenerated = int(c.embeddings.Load())
	stats.Amendments = int(c.amendments.Load())
	stats.RegularNotices = int(c.regularNotices.Load())
	slices.Sort(stats.ErrorMessages)

	return err
}

func (idx *Indexer) notify(res DocumentResult) {
	if idx.observer != nil {
		idx.observer(res)
	}
}

// indexDocument runs one document through the pipeline. Failures are
// returned in the result, and recorded on the document row when possible.
func (idx *Indexer) indexDocument(ctx context.Context, corpus *storage.Corpus, path string, force bool) DocumentResult {
	res := DocumentResult{Path: path, Status: StatusFailed}

	relPath, err := relativePath(corpus.RootPath, path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Path = relPath

	data, info, err := readDocument(path)
	if err != nil {
		res.Err = err
		return res
	}
	hash := sha256.Sum256(data)

	skip, err := idx.unchanged(ctx, corpus.ID, relPath, hash, force)
	if err != nil {
		res.Err = err
		return res
	}
	if skip {
		res.Status = StatusSkipped
		logger.Debug("skipping unchanged document %s", relPath)
		return res
	}

	record := &storage.Document{
		CorpusID:    corpus.ID,
		Path:        relPath,
		ContentHash: hash,
		ModTime:     info.ModTime(),
		SizeBytes:   info.Size(),
	}

	processed, err := idx.processor.Process(ctx, filepath.Base(path), data)
	if err != nil {
		res.Err = err
		idx.recordFailure(ctx, record, err)
		return res
	}
	res.Family = processed.Metadata.Family
	res.IsAmendment = processed.Metadata.IsAmendment()
	res.Chunks = len(processed.Chunks)

	merged := idx.merger.Merge(processed.Chunks, processed.Metadata)
	res.Merged = len(merged.MergedChunks)

	if idx.writer != nil {
		if _, err := idx.writer.WriteProcessed(processed); err != nil {
			res.Err = err
			return res
		}
		if _, err := idx.writer.WriteMerged(&merged); err != nil {
			res.Err = err
			return res
		}
	}

	var embeddings []*embedder.Embedding
	if idx.embedder != nil && len(merged.MergedChunks) > 0 {
		texts := make([]string, len(merged.MergedChunks))
		for i, c := range merged.MergedChunks {
			texts[i] = c.Content
		}
		embeddings, err = idx.embedder.Embed(ctx, texts)
		if err != nil {
			res.Err = fmt.Errorf("failed to embed chunks: %w", err)
			return res
		}
	}
	res.Embeddings = len(embeddings)

	metadataJSON, err := json.Marshal(processed.Metadata)
	if err != nil {
		res.Err = err
		return res
	}
	record.Family = processed.Metadata.Family
	record.DocumentNumber = processed.Metadata.DocumentNumber
	record.Date = processed.Metadata.Date
	record.Subject = processed.Metadata.Subject
	record.IsAmendment = res.IsAmendment
	record.Metadata = metadataJSON

	if err := idx.store(ctx, record, merged.MergedChunks, embeddings); err != nil {
		res.Err = err
		return res
	}

	res.Status = StatusIndexed
	logger.Debug("indexed %s: %d chunks merged into %d", relPath, res.Chunks, res.Merged)
	return res
}

// unchanged reports whether the stored document has the same content hash
// and was processed successfully
func (idx *Indexer) unchanged(ctx context.Context, corpusID int64, relPath string, hash [32]byte, force bool) (bool, error) {
	if force {
		return false, nil
	}
	existing, err := idx.storage.GetDocument(ctx, corpusID, relPath)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ContentHash == hash && existing.ProcessError == nil, nil
}

// store replaces a document's chunks and embeddings in one transaction
func (idx *Indexer) store(ctx context.Context, record *storage.Document, chunks []types.Chunk, embeddings []*embedder.Embedding) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, record); err != nil {
		return err
	}
	if err := tx.DeleteChunksByDocument(ctx, record.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for i, c := range chunks {
		chunk := storage.FromTypesChunk(c, record.ID)
		if err := tx.UpsertChunk(ctx, chunk); err != nil {
			return fmt.Errorf("failed to store chunk %s: %w", c.ChunkID, err)
		}
		if i >= len(embeddings) {
			continue
		}
		emb := embeddings[i]
		if err := tx.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    storage.SerializeVector(emb.Vector),
			Dimension: emb.Dimension,
			Provider:  emb.Provider,
			Model:     emb.Model,
		}); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// recordFailure stores the processing error on the document row and drops
// its stale chunks
func (idx *Indexer) recordFailure(ctx context.Context, record *storage.Document, cause error) {
	if ctx.Err() != nil {
		return
	}
	msg := cause.Error()
	record.ProcessError = &msg
	if err := idx.store(ctx, record, nil, nil); err != nil {
		logger.Warn("failed to record error for %s: %v", record.Path, err)
	}
}

// updateCorpusStats updates the corpus document and chunk counts
func (idx *Indexer) updateCorpusStats(ctx context.Context, corpus *storage.Corpus) error {
	status, err := idx.storage.GetStatus(ctx, corpus.ID)
	if err != nil {
		return err
	}

	corpus.TotalDocuments = status.DocumentsCount
	corpus.TotalChunks = status.ChunksCount
	corpus.LastIndexedAt = time.Now()

	return idx.storage.UpdateCorpus(ctx, corpus)
}

func relativePath(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside corpus root %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

// readDocument reads a file and its metadata
func readDocument(path string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}
