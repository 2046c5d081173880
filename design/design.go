/*
Package design holds the model of a DNA nanostructure: helices placed in
space or on grids, strands made of helix intervals and insertions, and a
registry giving crossovers identities that survive edits.

Strands never own positions. They refer to nucleotides by helix id and
integer position, and the helices compute the positions, from their
straight axis or from the discretized curve they carry.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package design

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/google/uuid"
	"github.com/npillmayer/ensnano/curve"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ensnano.design'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.design")
}

// Errors of the design model
var (
	ErrInvariant        = errors.New("design invariant violated")
	ErrEmptyInterval    = fmt.Errorf("%w: empty helix interval", ErrInvariant)
	ErrJunctionMismatch = fmt.Errorf("%w: junctions do not match domains", ErrInvariant)
	ErrNotFound         = errors.New("no such element")
	ErrNoSuchStrand     = fmt.Errorf("%w: strand", ErrNotFound)
	ErrNoSuchHelix      = fmt.Errorf("%w: helix", ErrNotFound)
	ErrNoSuchNucl       = fmt.Errorf("%w: nucleotide", ErrNotFound)
	ErrNoSuchXover      = fmt.Errorf("%w: crossover", ErrNotFound)
	ErrNoSuchGrid       = fmt.Errorf("%w: grid", ErrNotFound)
	ErrBadFile          = errors.New("cannot read design file")
)

// Collection maps integer ids to elements, iterated in id order.
type Collection[T any] struct {
	tree *treemap.Map
}

// Helices, Strands and Grids are the collections of a design.
type (
	Helices = Collection[Helix]
	Strands = Collection[Strand]
	Grids   = Collection[Grid]
)

// NewCollection creates an empty collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{tree: treemap.NewWithIntComparator()}
}

// Get returns the element of id.
func (c *Collection[T]) Get(id int) (*T, bool) {
	v, ok := c.tree.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Has is true if id is used.
func (c *Collection[T]) Has(id int) bool {
	_, ok := c.tree.Get(id)
	return ok
}

// Put stores x under id, replacing a previous element.
func (c *Collection[T]) Put(id int, x *T) {
	c.tree.Put(id, x)
}

// Push stores x under the id following the largest one in use.
func (c *Collection[T]) Push(x *T) int {
	id := 0
	if k, _ := c.tree.Max(); k != nil {
		id = k.(int) + 1
	}
	c.tree.Put(id, x)
	return id
}

// Remove deletes id.
func (c *Collection[T]) Remove(id int) {
	c.tree.Remove(id)
}

// Len is the number of elements.
func (c *Collection[T]) Len() int {
	return c.tree.Size()
}

// IDs lists the ids in increasing order.
func (c *Collection[T]) IDs() []int {
	ids := make([]int, 0, c.tree.Size())
	for _, k := range c.tree.Keys() {
		ids = append(ids, k.(int))
	}
	return ids
}

// Each calls f in increasing id order.
func (c *Collection[T]) Each(f func(id int, x *T)) {
	c.tree.Each(func(k, v interface{}) {
		f(k.(int), v.(*T))
	})
}

func (c *Collection[T]) clone(cp func(*T) *T) *Collection[T] {
	d := NewCollection[T]()
	c.Each(func(id int, x *T) {
		d.Put(id, cp(x))
	})
	return d
}

// Design is a complete nanostructure.
type Design struct {
	Parameters       Parameters
	Discretization   curve.DiscretizeOptions
	Helices          *Helices
	Strands          *Strands
	Grids            *Grids
	BezierPaths      []*BezierPath
	Xovers           *XoverRegistry
	ScaffoldID       *int
	ScaffoldSequence string
	ScaffoldShift    int
}

// New creates an empty design with default parameters.
func New() *Design {
	p := DefaultParameters()
	opts := curve.DefaultDiscretizeOptions()
	opts.Step, opts.Inclination = p.ZStep, p.Inclination
	return &Design{
		Parameters:     p,
		Discretization: opts,
		Helices:        NewCollection[Helix](),
		Strands:        NewCollection[Strand](),
		Grids:          NewCollection[Grid](),
		Xovers:         NewXoverRegistry(),
	}
}

// SetParameters changes the helix model and rediscretizes curved helices.
func (d *Design) SetParameters(p Parameters) error {
	d.Parameters = p
	d.Discretization.Step, d.Discretization.Inclination = p.ZStep, p.Inclination
	return d.UpdateCurves()
}

// AddHelix stores h under a fresh id.
func (d *Design) AddHelix(h *Helix) int {
	return d.Helices.Push(h)
}

// AddStrand sanitizes s, registers its crossovers and stores it under a
// fresh id.
func (d *Design) AddStrand(s *Strand) (int, error) {
	if err := s.Sanitize(); err != nil {
		return 0, err
	}
	for _, dom := range s.Domains {
		if hi, ok := dom.(HelixInterval); ok && !d.Helices.Has(hi.Helix) {
			return 0, fmt.Errorf("%w: %d", ErrNoSuchHelix, hi.Helix)
		}
	}
	if err := d.identify(s, true); err != nil {
		return 0, err
	}
	d.identify(s, false)
	return d.Strands.Push(s), nil
}

// Scaffold returns the scaffold strand, if set.
func (d *Design) Scaffold() (*Strand, bool) {
	if d.ScaffoldID == nil {
		return nil, false
	}
	return d.Strands.Get(*d.ScaffoldID)
}

// SetScaffold marks strand id as the scaffold.
func (d *Design) SetScaffold(id int) error {
	if !d.Strands.Has(id) {
		return fmt.Errorf("%w: %d", ErrNoSuchStrand, id)
	}
	d.ScaffoldID = &id
	return nil
}

// StrandOf returns the id of the strand holding n.
func (d *Design) StrandOf(n Nucl) (int, bool) {
	found, id := false, 0
	d.Strands.Each(func(sid int, s *Strand) {
		if !found && s.HasNucl(n) {
			found, id = true, sid
		}
	})
	return id, found
}

// UsesHelix is true if a strand goes through helix h.
func (d *Design) UsesHelix(h int) bool {
	used := false
	d.Strands.Each(func(_ int, s *Strand) {
		for _, dom := range s.Domains {
			if hi, ok := dom.(HelixInterval); ok && hi.Helix == h {
				used = true
			}
		}
	})
	return used
}

// Intervals returns, per helix, the smallest and largest positions used by
// a strand.
func (d *Design) Intervals() map[int][2]int {
	intervals := make(map[int][2]int)
	d.Strands.Each(func(_ int, s *Strand) {
		for _, dom := range s.Domains {
			hi, ok := dom.(HelixInterval)
			if !ok {
				continue
			}
			iv, seen := intervals[hi.Helix]
			if !seen {
				iv = [2]int{hi.Start, hi.End - 1}
			}
			intervals[hi.Helix] = [2]int{min(iv[0], hi.Start), max(iv[1], hi.End-1)}
		}
	})
	return intervals
}

// Clone copies the design deeply; discretized curves are immutable and
// shared.
func (d *Design) Clone() *Design {
	c := *d
	c.Helices = d.Helices.clone(func(h *Helix) *Helix { return h.Clone() })
	c.Strands = d.Strands.clone(func(s *Strand) *Strand { return s.Clone() })
	c.Grids = d.Grids.clone(func(g *Grid) *Grid { cp := *g; return &cp })
	c.BezierPaths = make([]*BezierPath, len(d.BezierPaths))
	for i, bp := range d.BezierPaths {
		c.BezierPaths[i] = bp.Clone()
	}
	c.Xovers = d.Xovers.Clone()
	if d.ScaffoldID != nil {
		id := *d.ScaffoldID
		c.ScaffoldID = &id
	}
	return &c
}

// Snapshot is an immutable copy of a design handed to a worker.
type Snapshot struct {
	ID     uuid.UUID
	Design *Design
}

// Snapshot clones the design under a fresh id.
func (d *Design) Snapshot() Snapshot {
	return Snapshot{ID: uuid.New(), Design: d.Clone()}
}
