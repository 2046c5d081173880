/*
Package export writes designs in formats of other tools: topology and
configuration files for the oxDNA simulator, and staple lists for ordering
strands on 96-well plates.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'ensnano.export'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.export")
}

// oxDNA lengths are in units of 0.8518 nm.
const (
	OxDNALenFactor = 1 / 0.8518
	BackboneToCM   = 0.34 * OxDNALenFactor
)

// DefaultBase is used for nucleotides of unknown base.
const DefaultBase = 'T'

// OxNucl is a nucleotide of an oxDNA configuration.
type OxNucl struct {
	Position     r3.Vec // center of mass
	BackboneBase r3.Vec // unit vector from backbone to base
	Normal       r3.Vec
}

// Bond is a line of an oxDNA topology. Prime5 and Prime3 are indices of
// nucleotides, or -1.
type Bond struct {
	Strand         int
	Base           byte
	Prime5, Prime3 int
}

// OxDNA is a configuration together with its topology.
type OxDNA struct {
	NbStrands int
	Nucls     []OxNucl
	Bonds     []Bond
	Box       r3.Vec // half extents
}

// helixOxNucl places nucleotide n of a helix.
func helixOxNucl(h *design.Helix, p design.Parameters, n int, forward bool) OxNucl {
	backbone := h.SpacePos(p, n, forward)
	a1 := ensnano.Unit(r3.Sub(h.SpacePos(p, n, !forward), backbone))
	normal := ensnano.Unit(h.NormalAtPos(n, forward))
	if !forward {
		normal = r3.Scale(-1, normal)
	}
	return OxNucl{
		Position:     r3.Add(r3.Scale(OxDNALenFactor, backbone), r3.Scale(BackboneToCM, a1)),
		BackboneBase: a1,
		Normal:       normal,
	}
}

// freeOxNucl places the k-th nucleotide of an insertion, turning around
// the direction from the previous nucleotide.
func freeOxNucl(pos, prev r3.Vec, k int, p design.Parameters) OxNucl {
	normal := ensnano.Unit(r3.Sub(pos, prev))
	tangent := ensnano.Unit(r3.Cross(normal, ensnano.V(-normal.Z, normal.X, normal.Y)))
	bitangent := r3.Cross(normal, tangent)
	angle := -2 * math.Pi / p.BasesPerTurn * float64(k)
	a1 := r3.Add(r3.Scale(math.Sin(angle), tangent), r3.Scale(math.Cos(angle), bitangent))
	return OxNucl{
		Position:     r3.Add(r3.Scale(OxDNALenFactor, pos), r3.Scale(BackboneToCM, a1)),
		BackboneBase: a1,
		Normal:       normal,
	}
}

// ToOxDNA converts d. Insertions are instantiated on a clone of d, so d is
// left unchanged. Strands are numbered from 1 in id order.
func ToOxDNA(d *design.Design) (*OxDNA, error) {
	d = d.Clone()
	d.InstantiateInsertions()
	seqs := d.Sequences()
	ox := &OxDNA{}
	var err error
	d.Strands.Each(func(id int, s *design.Strand) {
		if err != nil || s.Len() == 0 {
			return
		}
		ox.NbStrands++
		seq := seqs[id]
		first, k := len(ox.Nucls), 0
		var prev r3.Vec
		add := func(n OxNucl, backbone r3.Vec) {
			base := byte(DefaultBase)
			if k < len(seq) && seq[k] != '?' {
				base = seq[k]
			}
			i := len(ox.Nucls)
			bond := Bond{Strand: ox.NbStrands, Base: base, Prime5: -1, Prime3: -1}
			if i > first {
				bond.Prime5 = i - 1
				ox.Bonds[i-1].Prime3 = i
			}
			ox.Nucls = append(ox.Nucls, n)
			ox.Bonds = append(ox.Bonds, bond)
			ox.Box.X = math.Max(ox.Box.X, 4*math.Abs(n.Position.X))
			ox.Box.Y = math.Max(ox.Box.Y, 4*math.Abs(n.Position.Y))
			ox.Box.Z = math.Max(ox.Box.Z, 4*math.Abs(n.Position.Z))
			prev = backbone
			k++
		}
		for _, dom := range s.Domains {
			switch x := dom.(type) {
			case design.HelixInterval:
				h, ok := d.Helices.Get(x.Helix)
				if !ok {
					err = fmt.Errorf("strand %d: %w: %d", id, design.ErrNoSuchHelix, x.Helix)
					return
				}
				for j := 0; j < x.Len(); j++ {
					n := x.Nucl(j)
					add(helixOxNucl(h, d.Parameters, n.Position, n.Forward), h.SpacePos(d.Parameters, n.Position, n.Forward))
				}
			case design.Insertion:
				if len(x.Instantiation) != x.NbNucl {
					tracer().Infof("strand %d: insertion of %d not instantiated, skipped", id, x.NbNucl)
					k += x.NbNucl
					continue
				}
				for j, pos := range x.Instantiation {
					add(freeOxNucl(pos, prev, j, d.Parameters), pos)
				}
			}
		}
		if s.Cyclic && len(ox.Nucls) > first {
			last := len(ox.Nucls) - 1
			ox.Bonds[last].Prime3 = first
			ox.Bonds[first].Prime5 = last
		}
	})
	if err != nil {
		return nil, err
	}
	tracer().Infof("oxDNA export: %d nucleotides on %d strands", len(ox.Nucls), ox.NbStrands)
	return ox, nil
}

// WriteTopology writes the header "nb_nucl nb_strand" and one bond per
// nucleotide.
func (ox *OxDNA) WriteTopology(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(ox.Nucls), ox.NbStrands)
	for _, b := range ox.Bonds {
		fmt.Fprintf(bw, "%d %c %d %d\n", b.Strand, b.Base, b.Prime5, b.Prime3)
	}
	return bw.Flush()
}

// WriteConfiguration writes time, box and energies, then one line per
// nucleotide with zero velocities.
func (ox *OxDNA) WriteConfiguration(w io.Writer) error {
	bw := bufio.NewWriter(w)
	box := math.Max(ox.Box.X, math.Max(ox.Box.Y, ox.Box.Z))
	fmt.Fprintf(bw, "t = 0\nb = %g %g %g\nE = 0 0 0\n", box, box, box)
	for _, n := range ox.Nucls {
		fmt.Fprintf(bw, "%g %g %g %g %g %g %g %g %g 0 0 0 0 0 0\n",
			n.Position.X, n.Position.Y, n.Position.Z,
			n.BackboneBase.X, n.BackboneBase.Y, n.BackboneBase.Z,
			n.Normal.X, n.Normal.Y, n.Normal.Z)
	}
	return bw.Flush()
}

// Save writes base+".top" and base+".oxdna".
func (ox *OxDNA) Save(base string) error {
	write := func(path string, f func(io.Writer) error) error {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := f(file); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
	if err := write(base+".top", ox.WriteTopology); err != nil {
		return err
	}
	return write(base+".oxdna", ox.WriteConfiguration)
}
