package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Corpus operations

const corpusColumns = `id, root_path, total_documents, total_chunks, index_version,
	last_indexed_at, created_at, updated_at`

func (s *SQLiteStorage) createCorpusWithQuerier(ctx context.Context, q querier, corpus *Corpus) error {
	query := `
		INSERT INTO corpora (root_path, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, corpus.RootPath, corpus.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create corpus: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	corpus.ID = id
	corpus.CreatedAt = now
	corpus.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateCorpus(ctx context.Context, corpus *Corpus) error {
	return s.createCorpusWithQuerier(ctx, s.querier(), corpus)
}

func scanCorpus(row rowScanner) (*Corpus, error) {
	var corpus Corpus
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&corpus.ID, &corpus.RootPath, &corpus.TotalDocuments, &corpus.TotalChunks,
		&corpus.IndexVersion, &lastIndexedAt, &corpus.CreatedAt, &corpus.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		corpus.LastIndexedAt = lastIndexedAt.Time
	}
	return &corpus, nil
}

func (s *SQLiteStorage) getCorpusWithQuerier(ctx context.Context, q querier, rootPath string) (*Corpus, error) {
	query := `SELECT ` + corpusColumns + ` FROM corpora WHERE root_path = ?`
	return scanCorpus(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetCorpus(ctx context.Context, rootPath string) (*Corpus, error) {
	return s.getCorpusWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getCorpusByID(ctx context.Context, q querier, corpusID int64) (*Corpus, error) {
	query := `SELECT ` + corpusColumns + ` FROM corpora WHERE id = ?`
	return scanCorpus(q.QueryRowContext(ctx, query, corpusID))
}

func (s *SQLiteStorage) updateCorpusWithQuerier(ctx context.Context, q querier, corpus *Corpus) error {
	query := `
		UPDATE corpora
		SET total_documents = ?, total_chunks = ?, index_version = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	var lastIndexedAt interface{}
	if !corpus.LastIndexedAt.IsZero() {
		lastIndexedAt = corpus.LastIndexedAt
	}
	result, err := q.ExecContext(ctx, query,
		corpus.TotalDocuments, corpus.TotalChunks, corpus.IndexVersion,
		lastIndexedAt, now, corpus.ID)
	if err != nil {
		return fmt.Errorf("failed to update corpus: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	corpus.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateCorpus(ctx context.Context, corpus *Corpus) error {
	return s.updateCorpusWithQuerier(ctx, s.querier(), corpus)
}

// Document operations

const documentColumns = `id, corpus_id, path, family, document_number, document_date, subject,
	is_amendment, metadata, content_hash, mod_time, size_bytes, process_error,
	last_indexed_at, created_at, updated_at`

func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (
			corpus_id, path, family, document_number, document_date, subject,
			is_amendment, metadata, content_hash, mod_time, size_bytes, process_error,
			last_indexed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(corpus_id, path) DO UPDATE SET
			family = excluded.family,
			document_number = excluded.document_number,
			document_date = excluded.document_date,
			subject = excluded.subject,
			is_amendment = excluded.is_amendment,
			metadata = excluded.metadata,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			process_error = excluded.process_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.CorpusID, doc.Path, string(doc.Family), doc.DocumentNumber, doc.Date, doc.Subject,
		doc.IsAmendment, string(doc.Metadata), doc.ContentHash[:], doc.ModTime, doc.SizeBytes,
		doc.ProcessError, now, now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.LastIndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var family string
	var number, date, subject, metadata, processError sql.NullString
	var hash []byte
	err := row.Scan(
		&doc.ID, &doc.CorpusID, &doc.Path, &family, &number, &date, &subject,
		&doc.IsAmendment, &metadata, &hash, &doc.ModTime, &doc.SizeBytes, &processError,
		&doc.LastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Family = types.DocumentFamily(family)
	doc.DocumentNumber = number.String
	doc.Date = date.String
	doc.Subject = subject.String
	if metadata.String != "" {
		doc.Metadata = []byte(metadata.String)
	}
	copy(doc.ContentHash[:], hash)
	if processError.Valid {
		doc.ProcessError = &processError.String
	}
	return &doc, nil
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, corpusID int64, path string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE corpus_id = ? AND path = ?`
	return scanDocument(q.QueryRowContext(ctx, query, corpusID, path))
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, corpusID int64, path string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), corpusID, path)
}

func (s *SQLiteStorage) getDocumentByIDWithQuerier(ctx context.Context, q querier, documentID int64) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	return scanDocument(q.QueryRowContext(ctx, query, documentID))
}

func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return s.getDocumentByIDWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, corpusID int64) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE corpus_id = ? ORDER BY path`
	rows, err := q.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, corpusID int64) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), corpusID)
}

// Chunk operations

const chunkColumns = `id, document_id, chunk_key, chunk_type, paragraphs, content, content_hash,
	token_count, refs, context, created_at, updated_at`

func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	paragraphs, err := encodeJSON(chunk.Paragraphs)
	if err != nil {
		return err
	}
	refs, err := encodeJSON(chunk.References)
	if err != nil {
		return err
	}
	chunkContext, err := encodeJSON(chunk.Context)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chunks (
			document_id, chunk_key, chunk_type, paragraphs, content, content_hash,
			token_count, refs, context, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_key)
		DO UPDATE SET
			chunk_type = excluded.chunk_type,
			paragraphs = excluded.paragraphs,
			content = excluded.content,
			content_hash = excluded.content_hash,
			token_count = excluded.token_count,
			refs = excluded.refs,
			context = excluded.context,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		chunk.DocumentID, chunk.ChunkKey, string(chunk.ChunkType), paragraphs,
		chunk.Content, chunk.ContentHash[:], chunk.TokenCount, refs, chunkContext,
		now, now,
	).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}

	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = now
	}
	chunk.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var chunk Chunk
	var chunkType string
	var hash []byte
	var paragraphs, refs, chunkContext sql.NullString
	err := row.Scan(
		&chunk.ID, &chunk.DocumentID, &chunk.ChunkKey, &chunkType, &paragraphs,
		&chunk.Content, &hash, &chunk.TokenCount, &refs, &chunkContext,
		&chunk.CreatedAt, &chunk.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	chunk.ChunkType = types.ChunkType(chunkType)
	copy(chunk.ContentHash[:], hash)
	if err := decodeJSON(paragraphs, &chunk.Paragraphs); err != nil {
		return nil, fmt.Errorf("chunk %d paragraphs: %w", chunk.ID, err)
	}
	if err := decodeJSON(refs, &chunk.References); err != nil {
		return nil, fmt.Errorf("chunk %d references: %w", chunk.ID, err)
	}
	if err := decodeJSON(chunkContext, &chunk.Context); err != nil {
		return nil, fmt.Errorf("chunk %d context: %w", chunk.ID, err)
	}
	return &chunk, nil
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	return scanChunk(q.QueryRowContext(ctx, query, chunkID))
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Chunk, error) {
	// Insertion order is reading order
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE document_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) deleteChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return s.deleteChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Embedding operations

func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now).Scan(&embedding.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, corpusID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), corpusID, queryVector, limit, filters)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, corpusID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), corpusID, query, limit, filters)
}

// Ingest run operations

func (s *SQLiteStorage) startRunWithQuerier(ctx context.Context, q querier, corpusID int64) (*IngestRun, error) {
	run := &IngestRun{
		ID:        uuid.NewString(),
		CorpusID:  corpusID,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, corpus_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.CorpusID, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start ingest run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStorage) StartRun(ctx context.Context, corpusID int64) (*IngestRun, error) {
	return s.startRunWithQuerier(ctx, s.querier(), corpusID)
}

func (s *SQLiteStorage) finishRunWithQuerier(ctx context.Context, q querier, run *IngestRun) error {
	if run.Status == "" || run.Status == RunRunning {
		run.Status = RunCompleted
	}
	run.FinishedAt = time.Now()

	query := `
		UPDATE ingest_runs
		SET status = ?, total = ?, successful = ?, failed = ?, skipped = ?, chunks = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		run.Status, run.Total, run.Successful, run.Failed, run.Skipped, run.Chunks,
		run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish ingest run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) FinishRun(ctx context.Context, run *IngestRun) error {
	return s.finishRunWithQuerier(ctx, s.querier(), run)
}

func (s *SQLiteStorage) lastRunWithQuerier(ctx context.Context, q querier, corpusID int64) (*IngestRun, error) {
	query := `
		SELECT id, corpus_id, status, total, successful, failed, skipped, chunks, started_at, finished_at
		FROM ingest_runs
		WHERE corpus_id = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`
	var run IngestRun
	var finishedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, corpusID).Scan(
		&run.ID, &run.CorpusID, &run.Status, &run.Total, &run.Successful,
		&run.Failed, &run.Skipped, &run.Chunks, &run.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func (s *SQLiteStorage) LastRun(ctx context.Context, corpusID int64) (*IngestRun, error) {
	return s.lastRunWithQuerier(ctx, s.querier(), corpusID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, corpusID int64) (*CorpusStatus, error) {
	corpus, err := s.getCorpusByID(ctx, q, corpusID)
	if err != nil {
		return nil, err
	}

	status := &CorpusStatus{
		Corpus:        corpus,
		LastIndexedAt: corpus.LastIndexedAt,
		FamilyCounts:  make(map[types.DocumentFamily]int),
	}

	rows, err := q.QueryContext(ctx, `
		SELECT family, COUNT(*), SUM(is_amendment), SUM(process_error IS NOT NULL)
		FROM documents
		WHERE corpus_id = ?
		GROUP BY family
	`, corpusID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var family string
		var count, amendments, failed int
		if err := rows.Scan(&family, &count, &amendments, &failed); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.FamilyCounts[types.DocumentFamily(family)] = count
		status.DocumentsCount += count
		status.AmendmentsCount += amendments
		status.FailedCount += failed
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks c
		JOIN documents d ON c.document_id = d.id
		WHERE d.corpus_id = ?
	`, corpusID).Scan(&status.ChunksCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings e
		JOIN chunks c ON e.chunk_id = c.id
		JOIN documents d ON c.document_id = d.id
		WHERE d.corpus_id = ?
	`, corpusID).Scan(&status.EmbeddingsCount)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeBytes = pageCount * pageSize
	}

	if run, err := s.lastRunWithQuerier(ctx, q, corpusID); err == nil {
		status.LastRun = run
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	status.Health = HealthStatus{
		DatabaseAccessible:  true,
		EmbeddingsAvailable: status.EmbeddingsCount > 0,
		FTSIndexesBuilt:     true, // created by the base migration
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, corpusID int64) (*CorpusStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), corpusID)
}

// encodeJSON stores nil values as SQL NULL
func encodeJSON(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return string(data), nil
}

func decodeJSON(s sql.NullString, v interface{}) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

// Transaction implementations route every call through the open transaction

func (t *sqliteTx) CreateCorpus(ctx context.Context, corpus *Corpus) error {
	return t.storage.createCorpusWithQuerier(ctx, t.querier(), corpus)
}

func (t *sqliteTx) GetCorpus(ctx context.Context, rootPath string) (*Corpus, error) {
	return t.storage.getCorpusWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateCorpus(ctx context.Context, corpus *Corpus) error {
	return t.storage.updateCorpusWithQuerier(ctx, t.querier(), corpus)
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, corpusID int64, path string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), corpusID, path)
}

func (t *sqliteTx) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return t.storage.getDocumentByIDWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, corpusID int64) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), corpusID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, corpusID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), corpusID, vector, limit, filters)
}

func (t *sqliteTx) SearchText(ctx context.Context, corpusID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), corpusID, query, limit, filters)
}

func (t *sqliteTx) StartRun(ctx context.Context, corpusID int64) (*IngestRun, error) {
	return t.storage.startRunWithQuerier(ctx, t.querier(), corpusID)
}

func (t *sqliteTx) FinishRun(ctx context.Context, run *IngestRun) error {
	return t.storage.finishRunWithQuerier(ctx, t.querier(), run)
}

func (t *sqliteTx) LastRun(ctx context.Context, corpusID int64) (*IngestRun, error) {
	return t.storage.lastRunWithQuerier(ctx, t.querier(), corpusID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, corpusID int64) (*CorpusStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), corpusID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
