package types

import "slices"

// ParagraphRef is the paragraph numbering carried by a chunk. It is either
// absent, a single number, or a list of numbers once two chunks with
// different numbers have been merged. A list never collapses back to a
// single number.
type ParagraphRef struct {
	numbers []string
	plural  bool
}

// SingleParagraph returns a scalar paragraph reference
func SingleParagraph(n string) ParagraphRef {
	if n == "" {
		return ParagraphRef{}
	}
	return ParagraphRef{numbers: []string{n}}
}

// ParagraphList returns a pluralized paragraph reference
func ParagraphList(ns ...string) ParagraphRef {
	return ParagraphRef{numbers: append([]string{}, ns...), plural: true}
}

// IsZero reports whether no paragraph number is carried
func (p ParagraphRef) IsZero() bool {
	return !p.plural && len(p.numbers) == 0
}

// IsPlural reports whether the reference has been pluralized
func (p ParagraphRef) IsPlural() bool {
	return p.plural
}

// Scalar returns the single paragraph number, if the reference is scalar
func (p ParagraphRef) Scalar() (string, bool) {
	if p.plural || len(p.numbers) == 0 {
		return "", false
	}
	return p.numbers[0], true
}

// Numbers returns a copy of all carried paragraph numbers in order
func (p ParagraphRef) Numbers() []string {
	return append([]string{}, p.numbers...)
}

// First returns the earliest paragraph number
func (p ParagraphRef) First() (string, bool) {
	if len(p.numbers) == 0 {
		return "", false
	}
	return p.numbers[0], true
}

// Last returns the latest paragraph number
func (p ParagraphRef) Last() (string, bool) {
	if len(p.numbers) == 0 {
		return "", false
	}
	return p.numbers[len(p.numbers)-1], true
}

// Merge combines p with the numbering of the chunk that follows it.
// Two different scalars become a list; a list absorbs new numbers in order.
// Numbering only changes when both sides carry numbers, so an unnumbered
// accumulator stays unnumbered.
func (p ParagraphRef) Merge(next ParagraphRef) ParagraphRef {
	if p.IsZero() || next.IsZero() {
		return p.clone()
	}

	merged := p.Numbers()
	for _, n := range next.numbers {
		if !slices.Contains(merged, n) {
			merged = append(merged, n)
		}
	}

	if !p.plural && !next.plural && len(merged) == 1 {
		return SingleParagraph(merged[0])
	}
	return ParagraphRef{numbers: merged, plural: true}
}

func (p ParagraphRef) clone() ParagraphRef {
	if p.numbers == nil {
		return p
	}
	return ParagraphRef{numbers: p.Numbers(), plural: p.plural}
}
