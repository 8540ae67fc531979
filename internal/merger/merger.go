// Package merger consolidates the small, structure-aligned chunks produced
// by segmentation into fewer chunks that fit a token budget.
//
// The pass runs in two stages. First, chunks that consist only of a
// stray year (an artifact of splitting on numeric anchors such as
// "4. 2016.") are folded into their predecessor. Then a left-to-right
// fold compares an accumulator with each next chunk and either merges
// them or emits the accumulator. The pass never reorders chunks and does
// no I/O.
package merger

import (
	"regexp"
	"strings"
	"time"

	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/internal/tokenizer"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// yearArtifact matches chunk content that is only a year, optionally
// behind a paragraph number
var yearArtifact = regexp.MustCompile(`^(?:\d{1,3}\.\s+)?((?:19|20)\d{2}\.)$`)

// Engine runs the merge pass
type Engine struct {
	policy  Policy
	counter tokenizer.Counter
	now     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used for processing timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a merge engine. A nil counter uses the default tokenizer.
func New(counter tokenizer.Counter, policy Policy, opts ...Option) *Engine {
	if counter == nil {
		counter = tokenizer.Default()
	}
	e := &Engine{
		policy:  policy,
		counter: counter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's budgets
func (e *Engine) Policy() Policy {
	return e.policy
}

// Merge runs the merge pass over the chunks of one document and attaches
// the document's provenance to every output chunk.
func (e *Engine) Merge(chunks []types.Chunk, md types.DocumentMetadata) types.MergedDocument {
	merged := e.MergeChunks(chunks)
	for i := range merged {
		merged[i].Metadata = md.Provenance()
	}

	logger.Debug("merged %d chunks into %d for %s", len(chunks), len(merged), md.FileName)

	return types.MergedDocument{
		Metadata:     md,
		MergedChunks: merged,
		ProcessingInfo: types.ProcessingInfo{
			OriginalChunkCount: len(chunks),
			MergedChunkCount:   len(merged),
			ProcessedAt:        e.now().Format(time.RFC3339),
		},
	}
}

// MergeChunks returns the merged chunk list with token counts set. The
// input slice is not modified.
func (e *Engine) MergeChunks(chunks []types.Chunk) []types.Chunk {
	folded := FoldArtifacts(chunks)
	out := make([]types.Chunk, 0, len(folded))

	var acc accumulator
	for _, next := range folded {
		var emitted *types.Chunk
		emitted, acc = e.step(acc, next)
		if emitted != nil {
			out = append(out, *emitted)
		}
	}
	if acc.ok {
		out = append(out, acc.chunk)
	}

	for i := range out {
		out[i].TokenCount = e.counter.Count(out[i].Content)
	}
	return out
}

// accumulator is the chunk being grown by the fold
type accumulator struct {
	chunk types.Chunk
	ok    bool
}

// step folds next into acc. It returns the chunk to emit, if any, and the
// new accumulator.
func (e *Engine) step(acc accumulator, next types.Chunk) (*types.Chunk, accumulator) {
	if !acc.ok {
		return nil, accumulator{chunk: next.Clone(), ok: true}
	}

	joined := joinContent(acc.chunk.Content, next.Content)
	d := e.policy.Decide(acc.chunk, next, e.counter.Count(joined), e.counter.Count(next.Content))
	if d.Merges() {
		return nil, accumulator{chunk: combine(acc.chunk, next), ok: true}
	}

	emitted := acc.chunk
	return &emitted, accumulator{chunk: next.Clone(), ok: true}
}

// FoldArtifacts appends every bare-year chunk to the chunk before it,
// regardless of budget. A leading artifact has nothing to join and is
// kept.
func FoldArtifacts(chunks []types.Chunk) []types.Chunk {
	out := make([]types.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		m := yearArtifact.FindStringSubmatch(strings.TrimSpace(ch.Content))
		if m == nil || len(out) == 0 {
			out = append(out, ch.Clone())
			continue
		}

		prev := &out[len(out)-1]
		logger.Debug("folding year artifact %s into %s", ch.ChunkID, prev.ChunkID)
		prev.Content = joinContent(prev.Content, m[1])
		prev.References = prev.References.Union(ch.References)
	}
	return out
}

// combine merges next into acc. Content is joined with a single space,
// references are unioned and paragraph numbers pluralized. Identity, type
// and context come from acc.
func combine(acc, next types.Chunk) types.Chunk {
	out := acc.Clone()
	out.Content = joinContent(acc.Content, next.Content)
	out.References = acc.References.Union(next.References)
	out.Paragraph = acc.Paragraph.Merge(next.Paragraph)
	return out
}

func joinContent(a, b string) string {
	a = strings.TrimRight(a, " \t\n")
	b = strings.TrimLeft(b, " \t\n")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
