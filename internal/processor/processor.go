package processor

import (
	"strings"

	"github.com/kanak8278/IBC-RAG/internal/chunker"
	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/internal/metadata"
	"github.com/kanak8278/IBC-RAG/internal/normalize"
	"github.com/kanak8278/IBC-RAG/internal/splitter"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Processor segments the text of one document family
type Processor interface {
	Family() types.DocumentFamily
	Process(text string) (*types.ProcessedDocument, error)
}

// New returns the processor for a family
func New(f types.DocumentFamily, cfg chunker.Config) (Processor, error) {
	switch f {
	case types.FamilyCircular:
		return &circularProcessor{chunker: chunker.New(f, cfg)}, nil
	case types.FamilyNotification:
		return &notificationProcessor{chunker: chunker.New(f, cfg)}, nil
	case types.FamilyStatute:
		return &statuteProcessor{chunker: chunker.New(f, cfg)}, nil
	default:
		return nil, types.ErrUnknownFamily
	}
}

// circularProcessor handles IBBI circulars
type circularProcessor struct {
	chunker *chunker.Chunker
}

func (p *circularProcessor) Family() types.DocumentFamily { return types.FamilyCircular }

func (p *circularProcessor) Process(text string) (*types.ProcessedDocument, error) {
	clean := normalize.CleanOCR(normalize.Text(text))
	if strings.TrimSpace(clean) == "" {
		return nil, types.ErrEmptyDocument
	}

	md := metadata.Circular(clean)
	if _, ok := splitter.CircularBody(clean); !ok {
		logger.Debug("circular %s: no subject line, segmenting whole text", md.DocumentNumber)
	}
	sections := splitter.Circular(clean)

	return &types.ProcessedDocument{
		Metadata: md,
		Chunks:   p.chunker.ChunkSections(sections),
	}, nil
}

// notificationProcessor handles bilingual gazette notifications
type notificationProcessor struct {
	chunker *chunker.Chunker
}

func (p *notificationProcessor) Family() types.DocumentFamily { return types.FamilyNotification }

func (p *notificationProcessor) Process(text string) (*types.ProcessedDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyDocument
	}

	full, english, err := normalize.Notification(text)
	if err != nil {
		return nil, err
	}

	sections, err := splitter.Notification(english)
	if err != nil {
		return nil, err
	}

	warnings := ValidateNotification(full)
	for _, w := range warnings {
		logger.Warn("validation warning: %s", w)
	}

	return &types.ProcessedDocument{
		Metadata: metadata.Notification(full),
		Chunks:   p.chunker.ChunkSections(sections),
		Warnings: warnings,
	}, nil
}

// statuteProcessor handles acts and codes
type statuteProcessor struct {
	chunker *chunker.Chunker
}

func (p *statuteProcessor) Family() types.DocumentFamily { return types.FamilyStatute }

func (p *statuteProcessor) Process(text string) (*types.ProcessedDocument, error) {
	clean := normalize.TidyLines(normalize.CleanOCR(normalize.Text(text)))
	if strings.TrimSpace(clean) == "" {
		return nil, types.ErrEmptyDocument
	}

	return &types.ProcessedDocument{
		Metadata: metadata.Statute(clean),
		Chunks:   p.chunker.ChunkSections(splitter.Statute(clean)),
	}, nil
}
