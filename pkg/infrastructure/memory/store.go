// Package memory provides process-local repository implementations. They are
// the default backend and the reference the SQLite repositories are tested
// against.
package memory

import (
	"slices"
	"strconv"
)

// store is an insertion-ordered map with an auto-increment key source.
// It is not safe for concurrent use; repositories guard it with their lock.
type store[K ~string, V any] struct {
	items map[K]V
	order []K
	next  uint64
}

func newStore[K ~string, V any]() *store[K, V] {
	return &store[K, V]{items: make(map[K]V)}
}

// nextID hands out "1", "2", ... and skips keys already present.
func (s *store[K, V]) nextID() K {
	for {
		s.next++
		id := K(strconv.FormatUint(s.next, 10))
		if _, taken := s.items[id]; !taken {
			return id
		}
	}
}

func (s *store[K, V]) get(id K) (V, bool) {
	v, ok := s.items[id]
	return v, ok
}

func (s *store[K, V]) put(id K, v V) {
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = v
}

func (s *store[K, V]) remove(id K) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(k K) bool { return k == id })
	return true
}

// filter returns the values matching keep, in insertion order.
func (s *store[K, V]) filter(keep func(V) bool) []V {
	var out []V
	for _, id := range s.order {
		if v := s.items[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

