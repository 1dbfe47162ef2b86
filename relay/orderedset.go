package relay

// OrderedSet is a set that remembers insertion order. The first
// insertion of a value fixes its position; later insertions are ignored.
type OrderedSet[T comparable] struct {
	index  map[T]int
	values []T
}

// NewOrderedSet returns a set holding values in first-seen order.
func NewOrderedSet[T comparable](values ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]int, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *OrderedSet[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.values)
	s.values = append(s.values, v)
	return true
}

// Contains reports whether v is in the set. A nil set contains nothing.
func (s *OrderedSet[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// IndexOf returns the position of v, or -1.
func (s *OrderedSet[T]) IndexOf(v T) int {
	if s == nil {
		return -1
	}
	if i, ok := s.index[v]; ok {
		return i
	}
	return -1
}

// Len returns the number of values.
func (s *OrderedSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// IsEmpty reports whether the set has no values.
func (s *OrderedSet[T]) IsEmpty() bool { return s.Len() == 0 }

// Values returns a copy of the values in insertion order.
func (s *OrderedSet[T]) Values() []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}
