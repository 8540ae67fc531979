package storage

import (
	"context"
	"time"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Storage defines the interface for persisting and querying indexed legal documents
type Storage interface {
	// Corpus operations
	CreateCorpus(ctx context.Context, corpus *Corpus) error
	GetCorpus(ctx context.Context, rootPath string) (*Corpus, error)
	UpdateCorpus(ctx context.Context, corpus *Corpus) error

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, corpusID int64, path string) (*Document, error)
	GetDocumentByID(ctx context.Context, documentID int64) (*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error
	ListDocuments(ctx context.Context, corpusID int64) ([]*Document, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)

	// Search operations
	SearchVector(ctx context.Context, corpusID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, corpusID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Ingest run operations
	StartRun(ctx context.Context, corpusID int64) (*IngestRun, error)
	FinishRun(ctx context.Context, run *IngestRun) error
	LastRun(ctx context.Context, corpusID int64) (*IngestRun, error)

	// Status operations
	GetStatus(ctx context.Context, corpusID int64) (*CorpusStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Corpus is a directory of legal documents indexed together
type Corpus struct {
	ID             int64
	RootPath       string
	TotalDocuments int
	TotalChunks    int
	IndexVersion   string
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document is a tracked source document and the metadata extracted from it
type Document struct {
	ID             int64
	CorpusID       int64
	Path           string // Relative to corpus root
	Family         types.DocumentFamily
	DocumentNumber string
	Date           string
	Subject        string
	IsAmendment    bool
	Metadata       []byte // JSON encoded types.DocumentMetadata
	ContentHash    [32]byte
	ModTime        time.Time
	SizeBytes      int64
	ProcessError   *string // Nullable
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Chunk is a persisted merged chunk keyed by its document and chunk key
type Chunk struct {
	ID          int64
	DocumentID  int64
	ChunkKey    string
	ChunkType   types.ChunkType
	Paragraphs  []string
	Content     string
	ContentHash [32]byte
	TokenCount  int
	References  types.References
	Context     types.Context
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// IngestRun records one batch indexing pass over a corpus
type IngestRun struct {
	ID         string
	CorpusID   int64
	Status     string
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Chunks     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration reports how long the run took, or zero while it is still running
func (r *IngestRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SearchFilters narrows search results by document and chunk attributes
type SearchFilters struct {
	Families       []types.DocumentFamily
	ChunkTypes     []types.ChunkType
	DocumentNumber string
	PathPattern    string // Glob pattern for document paths
	MinRelevance   float64
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// CorpusStatus contains statistics about an indexed corpus
type CorpusStatus struct {
	Corpus          *Corpus
	DocumentsCount  int
	FamilyCounts    map[types.DocumentFamily]int
	AmendmentsCount int
	FailedCount     int
	ChunksCount     int
	EmbeddingsCount int
	IndexSizeBytes  int64
	LastIndexedAt   time.Time
	LastRun         *IngestRun
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexesBuilt     bool
}

// ToSearchDocument converts a stored document into the search result view
func (d *Document) ToSearchDocument() *types.DocumentInfo {
	return &types.DocumentInfo{
		Path:           d.Path,
		Family:         d.Family,
		DocumentNumber: d.DocumentNumber,
		Date:           d.Date,
		Subject:        d.Subject,
	}
}

// FromTypesChunk converts a merged chunk into its stored form
func FromTypesChunk(c types.Chunk, documentID int64) *Chunk {
	var paragraphs []string
	if !c.Paragraph.IsZero() {
		paragraphs = c.Paragraph.Numbers()
	}
	return &Chunk{
		DocumentID:  documentID,
		ChunkKey:    c.ChunkID,
		ChunkType:   c.ChunkType,
		Paragraphs:  paragraphs,
		Content:     c.Content,
		ContentHash: c.ContentHash(),
		TokenCount:  c.TokenCount,
		References:  c.References,
		Context:     c.Context,
	}
}
