/*
Package cadnano converts DNA origami files of the cadnano format into
designs.

A cadnano file lists virtual strands ("vstrands"), one per helix, placed
at a row and column of a square or honeycomb lattice. For every position
of a helix, the scaf and stap arrays hold the links of the scaffold and
staple nucleotide there: the helix number and position of the nucleotide
before it and after it, or -1. Per-position skip (-1) and loop (n > 0)
counts delete nucleotides or insert free ones.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package cadnano

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing"
	"github.com/titanous/json5"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'ensnano.cadnano'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.cadnano")
}

// ErrBadFile is returned for files which cannot be converted.
var ErrBadFile = errors.New("cannot read cadnano file")

// ScaffoldColor is the color of strands made from scaffold arrays.
const ScaffoldColor = 0xFF3498DB

// File is the content of a cadnano file.
type File struct {
	Name     string    `json:"name"`
	VStrands []VStrand `json:"vstrands"`
}

// VStrand is a helix of a cadnano file.
type VStrand struct {
	Num        int      `json:"num"`
	Row        int      `json:"row"`
	Col        int      `json:"col"`
	Scaf       [][4]int `json:"scaf"`
	Stap       [][4]int `json:"stap"`
	Loop       []int    `json:"loop"`
	Skip       []int    `json:"skip"`
	StapColors [][2]int `json:"stap_colors"`
}

// Read parses a cadnano file and converts it.
func Read(r io.Reader) (*design.Design, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json5.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	return Convert(&f)
}

// Load reads the cadnano file at path.
func Load(path string) (*design.Design, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}

// slot is a position of a vstrand, helix being the index in the file.
type slot struct {
	helix, pos int
}

type converter struct {
	f      *File
	byNum  map[int]int
	seen   map[slot]bool
	colors map[slot]uint32
	scaf   bool
	total  int
}

func (c *converter) links(s slot) [4]int {
	v := &c.f.VStrands[s.helix]
	if c.scaf {
		return v.Scaf[s.pos]
	}
	return v.Stap[s.pos]
}

func (c *converter) link(num, pos int) (slot, bool, error) {
	if num < 0 || pos < 0 {
		return slot{}, false, nil
	}
	h, ok := c.byNum[num]
	if !ok || pos >= len(c.f.VStrands[h].Scaf) {
		return slot{}, false, fmt.Errorf("%w: link to %d[%d]", ErrBadFile, num, pos)
	}
	return slot{h, pos}, true, nil
}

func (c *converter) prev(s slot) (slot, bool, error) {
	l := c.links(s)
	return c.link(l[0], l[1])
}

func (c *converter) next(s slot) (slot, bool, error) {
	l := c.links(s)
	return c.link(l[2], l[3])
}

// continues is true if b follows a on the same helix.
func continues(a, b slot) bool {
	return a.helix == b.helix && (b.pos == a.pos+1 || b.pos == a.pos-1)
}

// prime5 walks back from s to the 5' end of its strand. On a cyclic strand
// it stops after a crossover, so that domains do not wrap around.
func (c *converter) prime5(s slot) (slot, bool, error) {
	cur := s
	for steps := 0; steps <= c.total; steps++ {
		p, ok, err := c.prev(cur)
		if err != nil || !ok {
			return cur, false, err
		}
		if p == s {
			return c.cycleStart(s)
		}
		cur = p
	}
	return s, false, fmt.Errorf("%w: strand through %v does not end", ErrBadFile, s)
}

func (c *converter) cycleStart(s slot) (slot, bool, error) {
	cur := s
	for steps := 0; steps <= c.total; steps++ {
		p, _, err := c.prev(cur)
		if err != nil {
			return s, true, err
		}
		if !continues(p, cur) {
			return cur, true, nil
		}
		cur = p
		if cur == s {
			break
		}
	}
	return s, true, nil
}

// adjusted is the position of nucleotide pos of a helix once skips are
// removed.
func (c *converter) adjusted(helix, pos int) int {
	skip := c.f.VStrands[helix].Skip
	adj := pos
	for j := 0; j <= pos && j < len(skip); j++ {
		adj += skip[j]
	}
	return adj
}

// forward gives the direction of a single nucleotide: scaffolds run 5'→3'
// on even helices, staples on odd ones.
func (c *converter) forward(helix int) bool {
	even := c.f.VStrands[helix].Num%2 == 0
	return even == c.scaf
}

type loop struct {
	at   design.Nucl
	size int
}

// strand follows the strand through s and marks its slots as seen.
func (c *converter) strand(s slot) (*design.Strand, error) {
	first, cyclic, err := c.prime5(s)
	if err != nil {
		return nil, err
	}
	var slots []slot
	color := uint32(ScaffoldColor)
	for cur, steps := first, 0; ; steps++ {
		if steps > c.total {
			return nil, fmt.Errorf("%w: strand through %v does not end", ErrBadFile, s)
		}
		c.seen[cur] = true
		slots = append(slots, cur)
		if col, ok := c.colors[cur]; ok && !c.scaf {
			color = col
		}
		nx, ok, err := c.next(cur)
		if err != nil {
			return nil, err
		}
		if !ok || nx == first {
			break
		}
		cur = nx
	}
	var domains []design.Domain
	var loops []loop
	for i := 0; i < len(slots); {
		j := i + 1
		for j < len(slots) && continues(slots[j-1], slots[j]) &&
			(j-i < 2 || slots[j].pos-slots[j-1].pos == slots[i+1].pos-slots[i].pos) {
			j++
		}
		h := slots[i].helix
		fwd := c.forward(h)
		if j-i > 1 {
			fwd = slots[i+1].pos > slots[i].pos
		}
		lo, hi := slots[i].pos, slots[j-1].pos
		if lo > hi {
			lo, hi = hi, lo
		}
		domains = append(domains, design.HelixInterval{
			Helix:   h,
			Start:   c.adjusted(h, lo),
			End:     c.adjusted(h, hi) + 1,
			Forward: fwd,
		})
		for _, sl := range slots[i:j] {
			if l := c.f.VStrands[h].Loop; sl.pos < len(l) && l[sl.pos] > 0 {
				loops = append(loops, loop{
					at:   design.Nucl{Helix: h, Position: c.adjusted(h, sl.pos), Forward: fwd},
					size: l[sl.pos],
				})
			}
		}
		i = j
	}
	strand, err := design.NewStrand(domains, cyclic, color)
	if err != nil {
		return nil, err
	}
	for _, l := range loops {
		if err := strand.AddInsertionAtNucl(l.at, l.size); err != nil {
			tracer().Infof("loop of %d at %v dropped: %v", l.size, l.at, err)
		}
	}
	return strand, nil
}

// Convert builds a design from a cadnano file. Helix i of the design is
// vstrand i of the file. The longest strand made of scaffold arrays
// becomes the scaffold.
func Convert(f *File) (*design.Design, error) {
	if len(f.VStrands) == 0 {
		return nil, fmt.Errorf("%w: no vstrands", ErrBadFile)
	}
	c := &converter{
		f:      f,
		byNum:  make(map[int]int, len(f.VStrands)),
		seen:   make(map[slot]bool),
		colors: make(map[slot]uint32),
	}
	length := len(f.VStrands[0].Scaf)
	for i, v := range f.VStrands {
		if len(v.Scaf) != length || len(v.Stap) != length {
			return nil, fmt.Errorf("%w: vstrand %d has %d/%d positions, expected %d",
				ErrBadFile, v.Num, len(v.Scaf), len(v.Stap), length)
		}
		if _, dup := c.byNum[v.Num]; dup {
			return nil, fmt.Errorf("%w: vstrand %d twice", ErrBadFile, v.Num)
		}
		c.byNum[v.Num] = i
		for _, pc := range v.StapColors {
			c.colors[slot{i, pc[0]}] = uint32(pc[1])
		}
	}
	c.total = 2 * length * len(f.VStrands)
	kind := design.SquareGrid
	if length%21 == 0 {
		kind = design.HoneycombGrid
	}
	tracer().Debugf("cadnano file %q: %d vstrands of %d positions on a %v grid", f.Name, len(f.VStrands), length, kind)
	d := design.New()
	gid := d.Grids.Push(design.NewGrid(r3.Vec{}, ensnano.IdentityRotor(), kind))
	for _, v := range f.VStrands {
		if _, err := d.AddHelixOnGrid(gid, v.Col, v.Row); err != nil {
			return nil, fmt.Errorf("%w: vstrand %d: %v", ErrBadFile, v.Num, err)
		}
	}
	scaffold, scaffoldLen := -1, 0
	for _, scaf := range []bool{true, false} {
		c.scaf = scaf
		for i := range f.VStrands {
			for j := 0; j < length; j++ {
				s := slot{i, j}
				if c.seen[s] || c.links(s) == [4]int{-1, -1, -1, -1} {
					continue
				}
				strand, err := c.strand(s)
				if err != nil {
					return nil, err
				}
				id, err := d.AddStrand(strand)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
				}
				if scaf && strand.Len() > scaffoldLen {
					scaffold, scaffoldLen = id, strand.Len()
				}
			}
		}
		clear(c.seen)
	}
	if scaffold >= 0 {
		if err := d.SetScaffold(scaffold); err != nil {
			return nil, err
		}
	}
	tracer().Infof("cadnano file %q: %d helices, %d strands", f.Name, d.Helices.Len(), d.Strands.Len())
	return d, nil
}
