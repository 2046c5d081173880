/*
Package suggest proposes crossovers between nucleotides of different
helices lying close to each other in space.

Nucleotides are sorted into cubes of side CubeSide. Every "blue"
nucleotide looks for "red" ones on another helix in its own and the 26
surrounding cubes. Candidates are sorted by distance and accepted greedily,
each nucleotide taking part in at most one suggestion.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package suggest

import (
	"math"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'ensnano.suggest'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.suggest")
}

// CubeSide is the side of the cubes and the largest distance of a
// suggested pair, in nm.
const CubeSide = 1.2

// Parameters filter the suggestions.
type Parameters struct {
	IncludeScaffold    bool `mapstructure:"include-scaffold"`
	IncludeIntraStrand bool `mapstructure:"include-intra-strand"`
	IncludeXoverEnds   bool `mapstructure:"include-xover-ends"`
	IgnoreGroups       bool `mapstructure:"ignore-groups"`
}

// DefaultParameters accepts pairs on the scaffold and within a strand.
func DefaultParameters() Parameters {
	return Parameters{IncludeScaffold: true, IncludeIntraStrand: true}
}

// Groups assigns helices to the blue (true) or red (false) group. Helices
// without a group take no part unless groups are ignored.
type Groups map[int]bool

// Suggestion is a pair of nucleotides which could be linked.
type Suggestion struct {
	Blue, Red design.Nucl
	Dist      float64
}

type cube [3]int

func cubeOf(v r3.Vec) cube {
	return cube{
		int(math.Floor(v.X / CubeSide)),
		int(math.Floor(v.Y / CubeSide)),
		int(math.Floor(v.Z / CubeSide)),
	}
}

func cubeComparator(a, b interface{}) int {
	ca, cb := a.(cube), b.(cube)
	for i := 0; i < 3; i++ {
		switch {
		case ca[i] < cb[i]:
			return -1
		case ca[i] > cb[i]:
			return 1
		}
	}
	return 0
}

type located struct {
	nucl   design.Nucl
	pos    r3.Vec
	strand int
	index  int // order of the nucleotide in the design
}

// Suggester holds the nucleotides of a design sorted into cubes.
type Suggester struct {
	params    Parameters
	scaffold  int
	hasScaf   bool
	xoverEnds map[design.Nucl]bool
	blue      []located
	red       *treemap.Map // cube → []located
	ungrouped bool
	nbLocated int
}

// New sorts the nucleotides of d into cubes.
func New(d *design.Design, groups Groups, params Parameters) *Suggester {
	sg := &Suggester{
		params:    params,
		xoverEnds: make(map[design.Nucl]bool),
		red:       treemap.NewWith(cubeComparator),
		ungrouped: params.IgnoreGroups,
	}
	if d.ScaffoldID != nil {
		sg.scaffold, sg.hasScaf = *d.ScaffoldID, true
	}
	d.Strands.Each(func(id int, s *design.Strand) {
		for _, xp := range s.Xovers() {
			sg.xoverEnds[xp.Prime5] = true
			sg.xoverEnds[xp.Prime3] = true
		}
		for _, n := range s.Nucls() {
			h, ok := d.Helices.Get(n.Helix)
			if !ok {
				continue
			}
			blue, grouped := groups[n.Helix]
			if !grouped && !sg.ungrouped {
				continue
			}
			loc := located{nucl: n, pos: h.SpacePos(d.Parameters, n.Position, n.Forward), strand: id, index: sg.nbLocated}
			sg.nbLocated++
			if sg.ungrouped || blue {
				sg.blue = append(sg.blue, loc)
			}
			if sg.ungrouped || !blue {
				sg.addRed(loc)
			}
		}
	})
	tracer().Debugf("%d nucleotides located, %d blue", sg.nbLocated, len(sg.blue))
	return sg
}

func (sg *Suggester) addRed(loc located) {
	c := cubeOf(loc.pos)
	if v, ok := sg.red.Get(c); ok {
		sg.red.Put(c, append(v.([]located), loc))
		return
	}
	sg.red.Put(c, []located{loc})
}

// accepts applies the filters to a pair.
func (sg *Suggester) accepts(a, b located) bool {
	if a.nucl.Helix == b.nucl.Helix {
		return false
	}
	if sg.ungrouped && a.index >= b.index {
		return false
	}
	if !sg.params.IncludeScaffold && sg.hasScaf && (a.strand == sg.scaffold || b.strand == sg.scaffold) {
		return false
	}
	if !sg.params.IncludeIntraStrand && a.strand == b.strand {
		return false
	}
	if !sg.params.IncludeXoverEnds && (sg.xoverEnds[a.nucl] || sg.xoverEnds[b.nucl]) {
		return false
	}
	return true
}

// Candidates lists every accepted pair closer than CubeSide, sorted by
// distance.
func (sg *Suggester) Candidates() []Suggestion {
	var candidates []Suggestion
	for _, b := range sg.blue {
		c0 := cubeOf(b.pos)
		for i := -1; i <= 1; i++ {
			for j := -1; j <= 1; j++ {
				for k := -1; k <= 1; k++ {
					v, ok := sg.red.Get(cube{c0[0] + i, c0[1] + j, c0[2] + k})
					if !ok {
						continue
					}
					for _, r := range v.([]located) {
						if !sg.accepts(b, r) {
							continue
						}
						if dist := r3.Norm(r3.Sub(b.pos, r.pos)); dist < CubeSide {
							candidates = append(candidates, Suggestion{Blue: b.nucl, Red: r.nucl, Dist: dist})
						}
					}
				}
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Dist < candidates[j].Dist
	})
	return candidates
}

// Suggestions returns the closest pairs in which every nucleotide appears
// at most once.
func (sg *Suggester) Suggestions() []Suggestion {
	used := make(map[design.Nucl]bool)
	var accepted []Suggestion
	for _, c := range sg.Candidates() {
		if used[c.Blue] || used[c.Red] {
			continue
		}
		used[c.Blue], used[c.Red] = true, true
		accepted = append(accepted, c)
	}
	tracer().Infof("%d crossovers suggested", len(accepted))
	return accepted
}

// Suggest is a shortcut for New(d, groups, params).Suggestions().
func Suggest(d *design.Design, groups Groups, params Parameters) []Suggestion {
	return New(d, groups, params).Suggestions()
}
