// Package storage provides SQLite-based persistence for indexed legal documents.
//
// The storage layer manages:
//   - Corpus metadata (one row per indexed directory)
//   - Documents with their family, identifying metadata and content hash
//   - Merged chunks keyed by (document, chunk key)
//   - Vector embeddings for chunks
//   - An FTS5 index over chunk text
//   - Ingest runs recording each batch pass
//
// # Database Schema
//
// Tables:
//   - corpora: indexed root directories
//   - documents: source paths, family, number, date, subject, SHA-256 hashes
//   - chunks: chunk key, type, paragraph numbers, content, references, context
//   - embeddings: little-endian float32 vectors per chunk
//   - chunks_fts: FTS5 external-content index over chunks
//   - ingest_runs: batch runs identified by UUID
//   - schema_version: applied migrations, compared as semantic versions
//
// # Drivers
//
// The default build uses modernc.org/sqlite (no cgo). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3, which needs the
// sqlite_fts5 tag as well:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo sqlite_fts5" ./...
//
// # Transactions
//
// Every Storage method is also available on a Tx:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	if err := tx.UpsertDocument(ctx, doc); err != nil {
//	    return err
//	}
//	if err := tx.DeleteChunksByDocument(ctx, doc.ID); err != nil {
//	    return err
//	}
//	for _, c := range merged {
//	    if err := tx.UpsertChunk(ctx, storage.FromTypesChunk(c, doc.ID)); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Incremental Updates
//
// Documents whose stored content hash matches the file on disk are skipped
// by the indexer; changed documents have their chunks replaced, and the
// cascade removes stale embeddings.
package storage
