package types

import "errors"

// Document errors surfaced at the processor boundary
var (
	ErrEmptyDocument          = errors.New("document is empty")
	ErrUnknownFamily          = errors.New("unknown document family")
	ErrMissingEnglishSection  = errors.New("could not find English content section")
	ErrMissingEnactmentAnchor = errors.New("enactment phrase \"namely:—\" not found")
)

// Chunk construction errors. These are recovered by skipping the section.
var (
	ErrNoParagraphNumber = errors.New("section has no paragraph number")
)

// Domain errors for type validation
var (
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidChunkType      = errors.New("invalid chunk type")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingDocumentInfo   = errors.New("document info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")
)
