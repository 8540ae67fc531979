package merger

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// Default token budgets
const (
	DefaultMinTokens  = 150
	DefaultMaxTokens  = 600
	DefaultTinyTokens = 20
)

// ErrInvalidPolicy indicates inconsistent token budgets
var ErrInvalidPolicy = errors.New("invalid merge policy")

// Policy holds the token budgets of the merge pass.
type Policy struct {
	MinTokens  int // combined counts below this always merge
	MaxTokens  int // combined counts above this never merge
	TinyTokens int // a next chunk below this merges when within budget
}

// DefaultPolicy returns the default budgets
func DefaultPolicy() Policy {
	return Policy{
		MinTokens:  DefaultMinTokens,
		MaxTokens:  DefaultMaxTokens,
		TinyTokens: DefaultTinyTokens,
	}
}

// Validate checks that the budgets are positive and ordered.
func (p Policy) Validate() error {
	if p.MinTokens <= 0 || p.MaxTokens <= 0 || p.TinyTokens <= 0 {
		return fmt.Errorf("%w: budgets must be positive", ErrInvalidPolicy)
	}
	if p.MinTokens >= p.MaxTokens {
		return fmt.Errorf("%w: min_tokens %d must be below max_tokens %d", ErrInvalidPolicy, p.MinTokens, p.MaxTokens)
	}
	if p.TinyTokens > p.MinTokens {
		return fmt.Errorf("%w: tiny_tokens %d exceeds min_tokens %d", ErrInvalidPolicy, p.TinyTokens, p.MinTokens)
	}
	return nil
}

// Decision is the outcome of comparing the accumulator with the next chunk
type Decision int

const (
	// Flush emits the accumulator and starts a new one from the next chunk
	Flush Decision = iota
	// MergeBelowMin merges because the combined size is below the minimum
	MergeBelowMin
	// RejectAboveMax flushes because merging would exceed the ceiling
	RejectAboveMax
	// MergeTiny merges a tiny trailing chunk
	MergeTiny
	// MergeConsecutive merges consecutive directive paragraphs
	MergeConsecutive
)

// Merges reports whether the decision combines the two chunks
func (d Decision) Merges() bool {
	return d == MergeBelowMin || d == MergeTiny || d == MergeConsecutive
}

func (d Decision) String() string {
	switch d {
	case Flush:
		return "flush"
	case MergeBelowMin:
		return "merge_below_min"
	case RejectAboveMax:
		return "reject_above_max"
	case MergeTiny:
		return "merge_tiny"
	case MergeConsecutive:
		return "merge_consecutive"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide evaluates the merge decision table. combined is the token count
// of the joined content and nextTokens that of next alone. Rules are
// checked in order: below minimum, above maximum, tiny next chunk,
// consecutive directives.
func (p Policy) Decide(acc, next types.Chunk, combined, nextTokens int) Decision {
	switch {
	case combined < p.MinTokens:
		return MergeBelowMin
	case combined > p.MaxTokens:
		return RejectAboveMax
	case nextTokens < p.TinyTokens:
		return MergeTiny
	case consecutiveDirectives(acc, next):
		return MergeConsecutive
	default:
		return Flush
	}
}

// consecutiveDirectives reports whether both chunks are directives and the
// first paragraph of next is adjacent to the last paragraph of acc, in
// either direction. Paragraph numbers that are not base-10 integers never
// match.
func consecutiveDirectives(acc, next types.Chunk) bool {
	if acc.ChunkType != types.ChunkDirective || next.ChunkType != types.ChunkDirective {
		return false
	}
	last, ok := acc.Paragraph.Last()
	if !ok {
		return false
	}
	first, ok := next.Paragraph.First()
	if !ok {
		return false
	}
	a, err := strconv.Atoi(last)
	if err != nil {
		return false
	}
	b, err := strconv.Atoi(first)
	if err != nil {
		return false
	}
	return b-a == 1 || a-b == 1
}
