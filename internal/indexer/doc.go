// Package indexer coordinates the end-to-end indexing pipeline for a corpus
// of legal documents.
//
// Each document is processed into structure-aligned chunks, merged to the
// token budget, optionally embedded, and stored together with its
// extracted metadata in one transaction.
//
// # Basic Usage
//
//	proc := processor.NewService(processor.Options{})
//	engine := merger.New(tokenizer.Default(), merger.DefaultPolicy())
//	idx := indexer.New(store, proc, engine, indexer.WithEmbedder(emb))
//
//	stats, err := idx.IndexCorpus(ctx, "/data/ibbi", &indexer.Config{Workers: 4})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Indexed %d documents in %v\n", stats.DocumentsIndexed, stats.Duration)
//
// # Incremental Indexing
//
// Documents are skipped when the SHA-256 of the file matches the stored
// hash and the last attempt succeeded. Changed documents have their chunks
// and embeddings replaced. Set Config.Force to re-index everything.
//
// # Error Handling
//
// A document that fails to process is counted, its error is stored on its
// row and appended to Statistics.ErrorMessages as "path: error", and the run
// continues. IndexCorpus only returns an error for storage failures and
// cancellation.
//
// # Watching
//
// A Watcher re-indexes documents as they are written and drops them when
// they are removed:
//
//	w, err := idx.NewWatcher("/data/ibbi", nil)
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
package indexer
