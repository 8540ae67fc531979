package types

import (
	"maps"
	"slices"
)

// Reference kinds
const (
	RefCirculars     = "circulars"
	RefSections      = "sections"
	RefRegulations   = "regulations"
	RefExternalLinks = "external_links"
	RefActs          = "acts"
	RefRules         = "rules"
	RefNotifications = "notifications"
	RefAmendments    = "amendments"
	RefChapters      = "chapters"
)

var referenceKinds = map[DocumentFamily][]string{
	FamilyCircular:     {RefCirculars, RefSections, RefRegulations, RefExternalLinks},
	FamilyNotification: {RefActs, RefSections, RefRules, RefNotifications, RefAmendments},
	FamilyStatute:      {RefActs, RefSections, RefChapters},
}

// ReferenceKinds returns the fixed reference vocabulary of a family
func ReferenceKinds(f DocumentFamily) []string {
	return slices.Clone(referenceKinds[f])
}

// References maps a citation category to the citation strings found in a
// chunk, in order of occurrence.
type References map[string][]string

// NewReferences returns a map holding an empty list for every kind in the
// family vocabulary.
func NewReferences(f DocumentFamily) References {
	refs := make(References, len(referenceKinds[f]))
	for _, k := range referenceKinds[f] {
		refs[k] = []string{}
	}
	return refs
}

// Union returns the key-wise union of r and other. Values keep first
// occurrence order and are deduplicated.
func (r References) Union(other References) References {
	out := make(References, len(r)+len(other))
	keys := slices.Sorted(maps.Keys(r))
	for _, k := range slices.Sorted(maps.Keys(other)) {
		if _, ok := r[k]; !ok {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		seen := make(map[string]struct{})
		vals := []string{}
		for _, v := range append(slices.Clone(r[k]), other[k]...) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			vals = append(vals, v)
		}
		out[k] = vals
	}
	return out
}

// Count returns the total number of citations across all kinds
func (r References) Count() int {
	n := 0
	for _, v := range r {
		n += len(v)
	}
	return n
}

// Clone returns a deep copy
func (r References) Clone() References {
	if r == nil {
		return nil
	}
	out := make(References, len(r))
	for k, v := range r {
		out[k] = append([]string{}, v...)
	}
	return out
}

// Context maps derived qualitative tags to their values
type Context map[string]any

// Clone returns a copy of the context. Slice values are copied.
func (c Context) Clone() Context {
	if c == nil {
		return nil
	}
	out := make(Context, len(c))
	for k, v := range c {
		if s, ok := v.([]string); ok {
			v = append([]string{}, s...)
		}
		out[k] = v
	}
	return out
}

// Flag reports whether the boolean tag key is set
func (c Context) Flag(key string) bool {
	b, ok := c[key].(bool)
	return ok && b
}

// String returns the string value of key, if present
func (c Context) String(key string) string {
	s, _ := c[key].(string)
	return s
}
