package design

import (
	"fmt"
	"math"

	"github.com/npillmayer/ensnano"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// --- Replacement -----------------------------------------------------------

// ReplaceInsertions returns a copy of the design in which every insertion
// is a single-stranded helix interval on a new helix, an ideal neighbour of
// the nucleotide before the insertion (or after it, for an insertion at
// the 5' end). Strand lengths are unchanged.
func (d *Design) ReplaceInsertions() (*Design, error) {
	c := d.Clone()
	var err error
	c.Strands.Each(func(id int, s *Strand) {
		if err != nil || !s.HasInsertions() {
			return
		}
		points := s.InsertionPoints()
		k := 0
		for i, dom := range s.Domains {
			ins, ok := dom.(Insertion)
			if !ok {
				continue
			}
			ip := points[k]
			k++
			nucl := ip.Prime5
			if nucl == nil {
				nucl = ip.Prime3
			}
			if ins.NbNucl == 0 {
				continue
			}
			if nucl == nil {
				err = fmt.Errorf("%w: insertion of strand %d has no helix neighbour", ErrInvariant, id)
				return
			}
			h, found := c.Helices.Get(nucl.Helix)
			if !found {
				err = ErrNoSuchHelix
				return
			}
			hid := c.AddHelix(h.IdealNeighbour(c.Parameters, nucl.Position, nucl.Forward))
			hi := HelixInterval{Helix: hid, Forward: nucl.Forward, Sequence: ins.Sequence}
			if nucl.Forward {
				hi.Start, hi.End = 0, ins.NbNucl
			} else {
				hi.Start, hi.End = 1-ins.NbNucl, 1
			}
			s.Domains[i] = hi
		}
		s.Junctions = nil
		if err = s.Sanitize(); err != nil {
			return
		}
		c.reidentify(s)
	})
	if err != nil {
		return nil, err
	}
	c.pruneXovers()
	return c, nil
}

// --- Instantiation ---------------------------------------------------------

const (
	springSteps    = 1000
	springDT       = 1e-2
	springK        = 1.0
	springFriction = 0.1
	nuclMass       = 1.0
)

// insertionEnd is a helix nucleotide next to an insertion, and the
// direction pointing away from its axis.
type insertionEnd struct {
	pos, up r3.Vec
}

func (d *Design) insertionEnd(n *Nucl) (insertionEnd, bool) {
	if n == nil {
		return insertionEnd{}, false
	}
	h, ok := d.Helices.Get(n.Helix)
	if !ok {
		return insertionEnd{}, false
	}
	pos := h.SpacePos(d.Parameters, n.Position, n.Forward)
	return insertionEnd{pos: pos, up: r3.Sub(pos, h.AxisPosition(d.Parameters, n.Position))}, true
}

// InstantiateInsertions places the nucleotides of every insertion in
// space: spread on a circle arc bulging away from the helices, jittered,
// and relaxed as a chain of springs of rest length DistAC.
func (d *Design) InstantiateInsertions() {
	d.Strands.Each(func(id int, s *Strand) {
		points := s.InsertionPoints()
		k := 0
		for i, dom := range s.Domains {
			ins, ok := dom.(Insertion)
			if !ok {
				continue
			}
			ip := points[k]
			k++
			if ins.NbNucl == 0 {
				continue
			}
			src, ok5 := d.insertionEnd(ip.Prime5)
			dst, ok3 := d.insertionEnd(ip.Prime3)
			switch {
			case !ok5 && !ok3:
				tracer().Errorf("strand %d: insertion %d has no helix neighbour", id, i)
				continue
			case !ok5:
				src = danglingEnd(dst, ins.NbNucl, d.Parameters)
			case !ok3:
				dst = danglingEnd(src, ins.NbNucl, d.Parameters)
			}
			ins.Instantiation = instantiate(src, dst, ins.NbNucl, d.Parameters)
			s.Domains[i] = ins
		}
	})
}

// danglingEnd is a virtual end for an insertion at the end of a strand,
// away from the axis at the distance the insertion would span.
func danglingEnd(e insertionEnd, n int, p Parameters) insertionEnd {
	dir := ensnano.Unit(e.up)
	return insertionEnd{pos: r3.Add(e.pos, r3.Scale(float64(n+1)*p.DistAC(), dir)), up: e.up}
}

func instantiate(src, dst insertionEnd, n int, p Parameters) []r3.Vec {
	rest := p.DistAC()
	noise := distuv.Normal{Mu: 0, Sigma: rest / math.Sqrt(3) / 10}
	arc, onArc := circleArc(src, dst, n, p)
	pos := make([]r3.Vec, n)
	for i := range pos {
		t := float64(i+1) / float64(n+1)
		jitter := ensnano.V(noise.Rand(), noise.Rand(), noise.Rand())
		if onArc {
			pos[i] = r3.Add(arc.position(t), jitter)
		} else {
			pos[i] = r3.Add(ensnano.Lerp(src.pos, dst.pos, t), jitter)
		}
	}
	speed := make([]r3.Vec, n)
	forces := make([]r3.Vec, n)
	spring := func(a, b r3.Vec) r3.Vec {
		ab := r3.Sub(b, a)
		return r3.Scale(springK*(r3.Norm(ab)-rest), ab)
	}
	for step := 0; step < springSteps; step++ {
		for i := range forces {
			forces[i] = r3.Scale(-springFriction/nuclMass, speed[i])
		}
		forces[0] = r3.Sub(forces[0], spring(src.pos, pos[0]))
		forces[n-1] = r3.Add(forces[n-1], spring(pos[n-1], dst.pos))
		for i := 0; i+1 < n; i++ {
			f := spring(pos[i], pos[i+1])
			forces[i] = r3.Add(forces[i], f)
			forces[i+1] = r3.Sub(forces[i+1], f)
		}
		for i := range pos {
			speed[i] = r3.Add(speed[i], r3.Scale(springDT/nuclMass, forces[i]))
			pos[i] = r3.Add(pos[i], r3.Scale(springDT, speed[i]))
		}
	}
	return pos
}

type arc struct {
	center, up, right r3.Vec
	radius, start     float64
	large             bool // more than half a circle
}

func (a arc) position(t float64) r3.Vec {
	var angle float64
	if a.large {
		angle = (math.Pi-a.start)*(1-t) + t*(-math.Pi+a.start)
	} else {
		angle = a.start*(1-t) - t*a.start
	}
	sin, cos := math.Sincos(angle)
	return r3.Add(a.center, r3.Scale(a.radius, r3.Sub(r3.Scale(cos, a.up), r3.Scale(sin, a.right))))
}

// circleArc finds an arc from src to dst, bulging along the mean up
// direction, on which n nucleotides are DistAC apart.
func circleArc(src, dst insertionEnd, n int, p Parameters) (arc, bool) {
	mid := ensnano.Lerp(src.pos, dst.pos, 0.5)
	up := r3.Scale(0.5, r3.Add(src.up, dst.up))
	if r3.Norm(up) < 1e-3 {
		return arc{}, false
	}
	edge := r3.Sub(dst.pos, src.pos)
	upDir, edgeDir := ensnano.Unit(up), ensnano.Unit(edge)
	bisector := ensnano.Unit(r3.Sub(upDir, r3.Scale(r3.Dot(upDir, edgeDir), edgeDir)))
	objective := p.DistAC() * float64(n)
	if objective < r3.Norm(edge) {
		return arc{}, false
	}
	d := r3.Norm(edge) / 2
	var a, b float64
	large := objective > math.Pi*r3.Norm(edge)
	if large {
		b = 2 * math.Sqrt(4*objective*objective-d*d)
	} else {
		b = 10 * d
		if chordLength(d, b, false, n) > p.DistAC() {
			return arc{}, false
		}
	}
	c := (a + b) / 2
	for b-a > 1e-3 {
		if (chordLength(d, c, large, n) > p.DistAC()) == large {
			b = c
		} else {
			a = c
		}
		c = (a + b) / 2
	}
	center := r3.Sub(mid, r3.Scale(c, bisector))
	if large {
		center = r3.Add(mid, r3.Scale(c, bisector))
	}
	return arc{
		center: center,
		up:     bisector,
		right:  edgeDir,
		radius: r3.Norm(r3.Sub(center, src.pos)),
		start:  math.Atan(d / c),
		large:  large,
	}, true
}

// chordLength is the distance between consecutive nucleotides of n on an
// arc of a circle through two points 2d apart, with center at height h.
func chordLength(d, h float64, large bool, n int) float64 {
	r := math.Hypot(d, h)
	total := 2 * math.Atan(d/h)
	if large {
		total = 2*math.Pi - total
	}
	small := total / float64(n+1)
	return 2 * r * math.Sin(small/2)
}
