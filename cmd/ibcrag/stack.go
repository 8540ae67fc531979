package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kanak8278/IBC-RAG/internal/chunker"
	"github.com/kanak8278/IBC-RAG/internal/config"
	"github.com/kanak8278/IBC-RAG/internal/embedder"
	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/indexer"
	"github.com/kanak8278/IBC-RAG/internal/merger"
	"github.com/kanak8278/IBC-RAG/internal/processor"
	"github.com/kanak8278/IBC-RAG/internal/searcher"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/internal/tokenizer"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// stack holds the components built from one configuration
type stack struct {
	cfg       *config.Config
	procOpts  processor.Options
	processor *processor.Service
	merger    *merger.Engine

	// Set by openIndex
	store    *storage.SQLiteStorage
	embedder *embedder.Client
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// newStack loads the configuration and builds the document pipeline.
// A non-empty family overrides the configured one.
func newStack(family string) (*stack, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if family == "" {
		family = cfg.Indexer.Family
	}

	opts := processor.Options{
		Chunking: chunker.Config{MinSubPointChars: cfg.Chunking.MinSubPointChars},
	}
	if family != "" {
		f, err := types.ParseFamily(family)
		if err != nil {
			return nil, err
		}
		opts.Family = f
	}

	policy := merger.Policy{
		MinTokens:  cfg.Merge.MinTokens,
		MaxTokens:  cfg.Merge.MaxTokens,
		TinyTokens: cfg.Merge.TinyTokens,
	}

	return &stack{
		cfg:       cfg,
		procOpts:  opts,
		processor: processor.NewService(opts),
		merger:    merger.New(tokenizer.New(cfg.Merge.Encoding), policy),
	}, nil
}

// writer returns a record writer for dir, or the configured output
// directory when dir is empty
func (s *stack) writer(dir string) (*export.Writer, error) {
	if dir == "" {
		dir = s.cfg.Output.Dir
	}
	var validator *export.Validator
	if s.cfg.Output.Validate {
		v, err := export.NewValidator()
		if err != nil {
			return nil, err
		}
		validator = v
	}
	return export.NewWriter(dir, validator), nil
}

// openIndex opens the database and embedding provider and builds the
// indexer and searcher on them
func (s *stack) openIndex(opts ...indexer.Option) error {
	dbPath := s.cfg.Database.Path
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return err
	}

	e := s.cfg.Embedding
	emb, err := embedder.New(embedder.Config{
		Provider:          e.Provider,
		Model:             e.Model,
		APIKey:            e.APIKey,
		Endpoint:          e.Endpoint,
		Deployment:        e.Deployment,
		APIVersion:        e.APIVersion,
		CacheSize:         e.CacheSize,
		BatchSize:         s.cfg.Indexer.BatchSize,
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	s.store = store
	s.embedder = emb
	s.indexer = indexer.New(store, s.processor, s.merger, append([]indexer.Option{indexer.WithEmbedder(emb)}, opts...)...)
	s.searcher = searcher.NewSearcher(store, emb)
	return nil
}

func (s *stack) indexConfig(workers int, force bool) *indexer.Config {
	if workers <= 0 {
		workers = s.cfg.Indexer.Workers
	}
	return &indexer.Config{
		Workers:    workers,
		Extensions: s.cfg.Indexer.Extensions,
		Force:      force,
	}
}

// Close releases the index resources
func (s *stack) Close() error {
	if s.embedder != nil {
		_ = s.embedder.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
