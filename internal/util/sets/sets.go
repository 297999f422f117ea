// Package sets holds a minimal generic set used for membership checks over
// post keys and category slugs.
package sets

// Set is a hash set of comparable keys.
type Set[T comparable] map[T]struct{}

// New returns a set holding vals.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present. A nil set holds nothing.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}
