package tags

import (
	"maps"
	"slices"
)

// Resolver turns candidate shape identifiers into tags. A Resolver never
// changes after construction and is safe for concurrent use.
type Resolver struct {
	entries Mapping
}

// NewResolver returns a Resolver over a copy of m. Entries whose tag is not
// a defined category are ignored.
func NewResolver(m Mapping) *Resolver {
	entries := make(Mapping, len(m))
	for label, tag := range m {
		if tag.Valid() {
			entries[label] = tag
		}
	}
	return &Resolver{entries: entries}
}

// Default returns a Resolver over DefaultMapping.
func Default() *Resolver {
	return NewResolver(DefaultMapping())
}

// Resolve returns the canonical tag name mapped to candidate, or candidate
// itself when no entry matches. Matching is exact and case-sensitive.
func (r *Resolver) Resolve(candidate string) string {
	if tag, ok := r.Lookup(candidate); ok {
		return tag.String()
	}
	return candidate
}

// Lookup returns the tag mapped to candidate.
func (r *Resolver) Lookup(candidate string) (Tag, bool) {
	if r == nil {
		return Unknown, false
	}
	tag, ok := r.entries[candidate]
	return tag, ok
}

// Len returns the number of mapping entries.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Mapping returns a copy of the resolver's entries.
func (r *Resolver) Mapping() Mapping {
	if r == nil {
		return Mapping{}
	}
	return maps.Clone(r.entries)
}

// Labels returns the mapped labels in sorted order.
func (r *Resolver) Labels() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.entries))
}
