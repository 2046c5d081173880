package design

import (
	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/polygon"
)

// FlatOverlap reports two helices whose footprints in the flat view
// overlap.
type FlatOverlap struct {
	H1, H2 int
	Area   float64
}

// Footprint is the rectangle covered by helix id in the flat view: one unit
// per nucleotide along x, one row per strand along y, scaled by the symmetry
// of the helix and placed by its isometry. Positions run from lo to hi.
func (d *Design) Footprint(id, lo, hi int) (*polygon.Polygon, bool) {
	h, ok := d.Helices.Get(id)
	if !ok {
		return nil, false
	}
	box := polygon.Box(ensnano.P(float64(lo), 0), ensnano.P(float64(hi+1), 2))
	at := ensnano.Identity()
	if sym := h.Symmetry; sym != 0 {
		at = ensnano.Scaling(sym.X(), sym.Y())
	}
	if h.Isometry2D != nil {
		at = at.Combine(*h.Isometry2D)
	}
	return box.Transformed(at), true
}

// FlatOverlaps lists the pairs of helices whose footprints, spanning the
// nucleotides used by strands, overlap with positive area. Helices without
// an isometry are not laid out and are skipped.
func (d *Design) FlatOverlaps() []FlatOverlap {
	intervals := d.Intervals()
	type footprint struct {
		id int
		pg *polygon.Polygon
	}
	var fps []footprint
	for _, id := range d.Helices.IDs() {
		h, _ := d.Helices.Get(id)
		iv, used := intervals[id]
		if !used || h.Isometry2D == nil {
			continue
		}
		pg, _ := d.Footprint(id, iv[0], iv[1])
		fps = append(fps, footprint{id: id, pg: pg})
	}
	var overlaps []FlatOverlap
	for i := range fps {
		for j := i + 1; j < len(fps); j++ {
			if a := polygon.OverlapArea(fps[i].pg, fps[j].pg); a > ensnano.Epsilon {
				overlaps = append(overlaps, FlatOverlap{H1: fps[i].id, H2: fps[j].id, Area: a})
			}
		}
	}
	if len(overlaps) > 0 {
		tracer().Debugf("%d overlapping helices in flat view", len(overlaps))
	}
	return overlaps
}
