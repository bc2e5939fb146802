package bindrt

import (
	"iter"
	"slices"
	"sort"
)

type absent struct{}

func (absent) String() string { return "Absent" }

// Absent stands for a null pointer or an empty optional.
var Absent any = absent{}

// IsAbsent reports whether v is Absent.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Pair is a native pair.
type Pair struct {
	First  any
	Second any
}

// Entry is one key/value association of a map.
type Entry struct {
	Key   any
	Value any
}

// OrderedSet keeps unique elements sorted by the element ordering.
type OrderedSet struct {
	key   Ordered
	items []any
}

// NewOrderedSet returns an empty set ordered by key.
func NewOrderedSet(key Ordered) *OrderedSet {
	return &OrderedSet{key: key}
}

// search returns the insertion point of v and whether it is present.
func (s *OrderedSet) search(v any) (int, bool, error) {
	var err error

	i := sort.Search(len(s.items), func(i int) bool {
		if err != nil {
			return true
		}

		var c int

		c, err = s.key.Compare(s.items[i], v)

		return c >= 0
	})
	if err != nil {
		return 0, false, err
	}

	if i < len(s.items) {
		c, err := s.key.Compare(s.items[i], v)
		if err != nil {
			return 0, false, err
		}

		return i, c == 0, nil
	}

	return i, false, nil
}

// Add inserts v and reports whether it was new.
func (s *OrderedSet) Add(v any) (bool, error) {
	i, found, err := s.search(v)
	if err != nil || found {
		return false, err
	}

	s.items = slices.Insert(s.items, i, v)

	return true, nil
}

// Has reports whether v is in the set.
func (s *OrderedSet) Has(v any) (bool, error) {
	_, found, err := s.search(v)
	return found, err
}

// Remove deletes v and reports whether it was present.
func (s *OrderedSet) Remove(v any) (bool, error) {
	i, found, err := s.search(v)
	if err != nil || !found {
		return false, err
	}

	s.items = slices.Delete(s.items, i, i+1)

	return true, nil
}

// Len returns the number of elements.
func (s *OrderedSet) Len() int { return len(s.items) }

// Items returns the elements in order.
func (s *OrderedSet) Items() []any { return slices.Clone(s.items) }

// All iterates the elements in order.
func (s *OrderedSet) All() iter.Seq[any] { return slices.Values(s.items) }

// HashSet keeps unique elements in insertion order, indexed by hash.
type HashSet struct {
	key     Hashed
	items   []any
	buckets map[uint64][]int
}

// NewHashSet returns an empty set hashed by key.
func NewHashSet(key Hashed) *HashSet {
	return &HashSet{key: key, buckets: map[uint64][]int{}}
}

func (s *HashSet) find(v any) (uint64, int, error) {
	h, err := s.key.Hash(v)
	if err != nil {
		return 0, -1, err
	}

	for _, i := range s.buckets[h] {
		eq, err := s.key.Equal(s.items[i], v)
		if err != nil {
			return 0, -1, err
		}

		if eq {
			return h, i, nil
		}
	}

	return h, -1, nil
}

// Add inserts v and reports whether it was new.
func (s *HashSet) Add(v any) (bool, error) {
	h, i, err := s.find(v)
	if err != nil || i >= 0 {
		return false, err
	}

	s.buckets[h] = append(s.buckets[h], len(s.items))
	s.items = append(s.items, v)

	return true, nil
}

// Has reports whether v is in the set.
func (s *HashSet) Has(v any) (bool, error) {
	_, i, err := s.find(v)
	return i >= 0, err
}

// Remove deletes v and reports whether it was present.
func (s *HashSet) Remove(v any) (bool, error) {
	_, i, err := s.find(v)
	if err != nil || i < 0 {
		return false, err
	}

	s.items = slices.Delete(s.items, i, i+1)

	return true, s.reindex()
}

func (s *HashSet) reindex() error {
	s.buckets = make(map[uint64][]int, len(s.items))

	for i, v := range s.items {
		h, err := s.key.Hash(v)
		if err != nil {
			return err
		}

		s.buckets[h] = append(s.buckets[h], i)
	}

	return nil
}

// Len returns the number of elements.
func (s *HashSet) Len() int { return len(s.items) }

// Items returns the elements in insertion order.
func (s *HashSet) Items() []any { return slices.Clone(s.items) }

// All iterates the elements in insertion order.
func (s *HashSet) All() iter.Seq[any] { return slices.Values(s.items) }

// OrderedMap keeps entries sorted by key.
type OrderedMap struct {
	keys   *OrderedSet
	values []any
}

// NewOrderedMap returns an empty map ordered by key.
func NewOrderedMap(key Ordered) *OrderedMap {
	return &OrderedMap{keys: NewOrderedSet(key)}
}

// Put sets the value of k.
func (m *OrderedMap) Put(k, v any) error {
	i, found, err := m.keys.search(k)
	if err != nil {
		return err
	}

	if found {
		m.values[i] = v
		return nil
	}

	m.keys.items = slices.Insert(m.keys.items, i, k)
	m.values = slices.Insert(m.values, i, v)

	return nil
}

// Get returns the value of k.
func (m *OrderedMap) Get(k any) (any, bool, error) {
	i, found, err := m.keys.search(k)
	if err != nil || !found {
		return nil, false, err
	}

	return m.values[i], true, nil
}

// Delete removes k and reports whether it was present.
func (m *OrderedMap) Delete(k any) (bool, error) {
	i, found, err := m.keys.search(k)
	if err != nil || !found {
		return false, err
	}

	m.keys.items = slices.Delete(m.keys.items, i, i+1)
	m.values = slices.Delete(m.values, i, i+1)

	return true, nil
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.values) }

// Entries returns the entries in key order.
func (m *OrderedMap) Entries() []Entry {
	out := make([]Entry, len(m.values))
	for i := range m.values {
		out[i] = Entry{Key: m.keys.items[i], Value: m.values[i]}
	}

	return out
}

// All iterates the entries in key order.
func (m *OrderedMap) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i := range m.values {
			if !yield(m.keys.items[i], m.values[i]) {
				return
			}
		}
	}
}

// HashMap keeps entries in insertion order, indexed by key hash.
type HashMap struct {
	keys   *HashSet
	values []any
}

// NewHashMap returns an empty map hashed by key.
func NewHashMap(key Hashed) *HashMap {
	return &HashMap{keys: NewHashSet(key)}
}

// Put sets the value of k.
func (m *HashMap) Put(k, v any) error {
	h, i, err := m.keys.find(k)
	if err != nil {
		return err
	}

	if i >= 0 {
		m.values[i] = v
		return nil
	}

	m.keys.buckets[h] = append(m.keys.buckets[h], len(m.keys.items))
	m.keys.items = append(m.keys.items, k)
	m.values = append(m.values, v)

	return nil
}

// Get returns the value of k.
func (m *HashMap) Get(k any) (any, bool, error) {
	_, i, err := m.keys.find(k)
	if err != nil || i < 0 {
		return nil, false, err
	}

	return m.values[i], true, nil
}

// Delete removes k and reports whether it was present.
func (m *HashMap) Delete(k any) (bool, error) {
	_, i, err := m.keys.find(k)
	if err != nil || i < 0 {
		return false, err
	}

	m.keys.items = slices.Delete(m.keys.items, i, i+1)
	m.values = slices.Delete(m.values, i, i+1)

	return true, m.keys.reindex()
}

// Len returns the number of entries.
func (m *HashMap) Len() int { return len(m.values) }

// Entries returns the entries in insertion order.
func (m *HashMap) Entries() []Entry {
	out := make([]Entry, len(m.values))
	for i := range m.values {
		out[i] = Entry{Key: m.keys.items[i], Value: m.values[i]}
	}

	return out
}

// All iterates the entries in insertion order.
func (m *HashMap) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i := range m.values {
			if !yield(m.keys.items[i], m.values[i]) {
				return
			}
		}
	}
}
