package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kanak8278/IBC-RAG/internal/chunker"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Options configures a Service
type Options struct {
	// Family forces a document family. Empty means detect per document.
	Family types.DocumentFamily

	Chunking chunker.Config

	// Now stamps processed documents. Defaults to time.Now.
	Now func() time.Time
}

// Service processes documents of any family
type Service struct {
	family     types.DocumentFamily
	processors map[types.DocumentFamily]Processor
	now        func() time.Time
}

// NewService creates a Service. An unknown forced family is reported when
// the first document is processed.
func NewService(opts Options) *Service {
	s := &Service{
		family:     opts.Family,
		processors: make(map[types.DocumentFamily]Processor, 3),
		now:        opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, f := range []types.DocumentFamily{types.FamilyCircular, types.FamilyNotification, types.FamilyStatute} {
		p, _ := New(f, opts.Chunking)
		s.processors[f] = p
	}
	return s
}

// ProcessFile reads and processes one document
func (s *Service) ProcessFile(ctx context.Context, path string) (*types.ProcessedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.Process(ctx, filepath.Base(path), data)
}

// Process segments data. name is recorded as the document's file name.
func (s *Service) Process(ctx context.Context, name string, data []byte) (*types.ProcessedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, types.ErrEmptyDocument
	}

	text := string(data)
	family := s.family
	if family == "" {
		var err error
		if family, err = Detect(text); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	p, ok := s.processors[family]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", name, types.ErrUnknownFamily, family)
	}

	doc, err := p.Process(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	doc.Metadata.Family = family
	doc.Metadata.FileName = name
	doc.Metadata.DocumentHash = HashContent(data)
	doc.Metadata.ProcessedAt = s.now().Format(time.RFC3339)
	return doc, nil
}

// HashContent returns the hex SHA-256 of a document's raw bytes
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
