// Package orderedset provides a set keyed by a comparable, ordered id that
// iterates in ascending id order. The simulator relies on this for
// empty_agents and waiting_resources: replaying the same events over the
// same input must visit agents and resources in the same order every run.
package orderedset

import "sort"

// Set is a sorted-slice-backed ordered set. Go's standard library has no
// balanced tree container, and none of the reference programs pull in a
// third-party ordered map, so this is deliberately a small stdlib-only
// building block (see DESIGN.md) rather than a dependency.
type Set[K ordered, V any] struct {
	keys   []K
	values map[K]V
}

type ordered interface {
	~string | ~int | ~int64
}

// New creates an empty ordered set.
func New[K ordered, V any]() *Set[K, V] {
	return &Set[K, V]{values: make(map[K]V)}
}

// Put inserts or overwrites the value for k, keeping keys sorted.
func (s *Set[K, V]) Put(k K, v V) {
	if _, ok := s.values[k]; ok {
		s.values[k] = v
		return
	}
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= k })
	s.keys = append(s.keys, k)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = k
	s.values[k] = v
}

// Remove deletes k if present; no-op otherwise.
func (s *Set[K, V]) Remove(k K) {
	if _, ok := s.values[k]; !ok {
		return
	}
	delete(s.values, k)
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= k })
	if i < len(s.keys) && s.keys[i] == k {
		s.keys = append(s.keys[:i], s.keys[i+1:]...)
	}
}

// Get returns the value for k and whether it was present.
func (s *Set[K, V]) Get(k K) (V, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Has reports whether k is a member of the set.
func (s *Set[K, V]) Has(k K) bool {
	_, ok := s.values[k]
	return ok
}

// Len returns the number of members.
func (s *Set[K, V]) Len() int {
	return len(s.keys)
}

// Keys returns the members in ascending order. The caller must not mutate
// the returned slice.
func (s *Set[K, V]) Keys() []K {
	return s.keys
}

// Each calls fn for every member in ascending key order.
func (s *Set[K, V]) Each(fn func(K, V)) {
	for _, k := range s.keys {
		fn(k, s.values[k])
	}
}

// Snapshot returns a defensive copy of the current keys, safe to hold onto
// across mutations of the set (e.g. while a pool match is being computed).
func (s *Set[K, V]) Snapshot() []K {
	out := make([]K, len(s.keys))
	copy(out, s.keys)
	return out
}
