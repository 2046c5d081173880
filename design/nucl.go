package design

import "fmt"

// Nucl is a nucleotide position: a helix, a position along its axis and
// the strand direction. Forward nucleotides run 5'→3' along the axis.
type Nucl struct {
	Helix    int  `json:"helix"`
	Position int  `json:"position"`
	Forward  bool `json:"forward"`
}

// Prime3 is the neighbour of n in 3' direction.
func (n Nucl) Prime3() Nucl {
	if n.Forward {
		return Nucl{Helix: n.Helix, Position: n.Position + 1, Forward: true}
	}
	return Nucl{Helix: n.Helix, Position: n.Position - 1, Forward: false}
}

// Prime5 is the neighbour of n in 5' direction.
func (n Nucl) Prime5() Nucl {
	if n.Forward {
		return Nucl{Helix: n.Helix, Position: n.Position - 1, Forward: true}
	}
	return Nucl{Helix: n.Helix, Position: n.Position + 1, Forward: false}
}

// Compl is the Watson-Crick partner of n on the same helix.
func (n Nucl) Compl() Nucl {
	return Nucl{Helix: n.Helix, Position: n.Position, Forward: !n.Forward}
}

// IsNeighbour is true if n and m are consecutive on a strand, in either
// order.
func (n Nucl) IsNeighbour(m Nucl) bool {
	return n.Prime3() == m || m.Prime3() == n
}

func (n Nucl) String() string {
	dir := ">"
	if !n.Forward {
		dir = "<"
	}
	return fmt.Sprintf("h%d:nt%d%s", n.Helix, n.Position, dir)
}

// VirtualNucl is a nucleotide position on a support helix. Nucleotides of
// different helices sharing a support helix and a position map to the same
// virtual nucleotide; pairing is decided on virtual nucleotides.
type VirtualNucl Nucl

// Compl is the virtual partner.
func (v VirtualNucl) Compl() VirtualNucl {
	return VirtualNucl(Nucl(v).Compl())
}

// MapToVirtual moves n to its support helix, shifted by the initial index
// of its helix. It fails if the helix or its support helix does not exist.
func (n Nucl) MapToVirtual(helices *Helices) (VirtualNucl, bool) {
	h, ok := helices.Get(n.Helix)
	if !ok {
		return VirtualNucl{}, false
	}
	support := n.Helix
	if h.SupportHelix != nil {
		support = *h.SupportHelix
		if !helices.Has(support) {
			return VirtualNucl{}, false
		}
	}
	return VirtualNucl{Helix: support, Position: n.Position + h.InitialNtIndex, Forward: n.Forward}, true
}
