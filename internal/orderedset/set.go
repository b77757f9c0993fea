// Package orderedset provides an insertion-ordered set: the first Add of a
// value fixes its position and later Adds of the same value are no-ops.
package orderedset

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Set is an insertion-ordered set of comparable values
type Set[T comparable] struct {
	m *orderedmap.OrderedMap[T, struct{}]
}

// New creates a set holding items in first-occurrence order
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{m: orderedmap.New[T, struct{}]()}
	s.Add(items...)
	return s
}

// Add appends each item not already present. It reports how many were new.
func (s *Set[T]) Add(items ...T) int {
	added := 0
	for _, item := range items {
		if _, present := s.m.Get(item); present {
			continue
		}
		s.m.Set(item, struct{}{})
		added++
	}
	return added
}

// Contains reports whether item is in the set
func (s *Set[T]) Contains(item T) bool {
	_, ok := s.m.Get(item)
	return ok
}

// Remove deletes item, preserving the order of the rest
func (s *Set[T]) Remove(item T) bool {
	_, ok := s.m.Delete(item)
	return ok
}

// Len returns the number of items
func (s *Set[T]) Len() int {
	return s.m.Len()
}

// Items returns the items in insertion order
func (s *Set[T]) Items() []T {
	items := make([]T, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		items = append(items, pair.Key)
	}
	return items
}
