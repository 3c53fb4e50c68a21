// Package dedupe tracks keys that have already been seen.
package dedupe

// Set records seen keys so each is accepted at most once. It is not safe
// for concurrent use.
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenAndRecord reports whether key was already seen and records it if not.
func (s *Set) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Size returns the number of distinct keys recorded.
func (s *Set) Size() int {
	return len(s.seen)
}
