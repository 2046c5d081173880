package design

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
)

// XoverRegistry gives stable ids to crossovers. Ids are small non-negative
// integers, allocated in increasing order and never reused.
type XoverRegistry struct {
	byID   *treemap.Map // int → XoverPair
	byPair map[XoverPair]int
	next   int
}

// NewXoverRegistry creates an empty registry.
func NewXoverRegistry() *XoverRegistry {
	return &XoverRegistry{
		byID:   treemap.NewWithIntComparator(),
		byPair: make(map[XoverPair]int),
	}
}

// Insert allocates a fresh id for pair. A pair already registered keeps
// its id.
func (reg *XoverRegistry) Insert(pair XoverPair) int {
	if id, ok := reg.byPair[pair]; ok {
		return id
	}
	id := reg.next
	reg.byID.Put(id, pair)
	reg.byPair[pair] = id
	reg.next++
	return id
}

// InsertAt registers pair under a known id, as read from a file. Later
// allocations start above id.
func (reg *XoverRegistry) InsertAt(pair XoverPair, id int) error {
	if id < 0 {
		return fmt.Errorf("%w: negative crossover id %d", ErrInvariant, id)
	}
	if old, ok := reg.Get(id); ok && old != pair {
		return fmt.Errorf("%w: crossover id %d used by %v and %v", ErrInvariant, id, old, pair)
	}
	if other, ok := reg.byPair[pair]; ok && other != id {
		return fmt.Errorf("%w: crossover %v has ids %d and %d", ErrInvariant, pair, other, id)
	}
	reg.byID.Put(id, pair)
	reg.byPair[pair] = id
	reg.next = max(reg.next, id+1)
	return nil
}

// Get returns the pair of crossover id.
func (reg *XoverRegistry) Get(id int) (XoverPair, bool) {
	v, ok := reg.byID.Get(id)
	if !ok {
		return XoverPair{}, false
	}
	return v.(XoverPair), true
}

// ID returns the id of pair.
func (reg *XoverRegistry) ID(pair XoverPair) (int, bool) {
	id, ok := reg.byPair[pair]
	return id, ok
}

// Remove deletes crossover id. Its id is not reused.
func (reg *XoverRegistry) Remove(id int) {
	if pair, ok := reg.Get(id); ok {
		delete(reg.byPair, pair)
		reg.byID.Remove(id)
	}
}

// Update moves id to a new pair.
func (reg *XoverRegistry) Update(id int, pair XoverPair) error {
	old, ok := reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: crossover %d", ErrNoSuchXover, id)
	}
	if other, ok := reg.byPair[pair]; ok && other != id {
		return fmt.Errorf("%w: crossover %v has id %d", ErrInvariant, pair, other)
	}
	delete(reg.byPair, old)
	reg.byID.Put(id, pair)
	reg.byPair[pair] = id
	return nil
}

// Len is the number of registered crossovers.
func (reg *XoverRegistry) Len() int {
	return reg.byID.Size()
}

// Each calls f for every crossover in increasing id order.
func (reg *XoverRegistry) Each(f func(id int, pair XoverPair)) {
	reg.byID.Each(func(k, v interface{}) {
		f(k.(int), v.(XoverPair))
	})
}

// IDs lists the ids in increasing order.
func (reg *XoverRegistry) IDs() []int {
	ids := make([]int, 0, reg.Len())
	for _, k := range reg.byID.Keys() {
		ids = append(ids, k.(int))
	}
	return ids
}

// Clone copies the registry, next id included.
func (reg *XoverRegistry) Clone() *XoverRegistry {
	c := NewXoverRegistry()
	reg.Each(func(id int, pair XoverPair) {
		c.byID.Put(id, pair)
		c.byPair[pair] = id
	})
	c.next = reg.next
	return c
}
