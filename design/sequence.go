package design

import (
	"fmt"
	"strings"
)

// Complement returns the Watson-Crick partner of a base.
func Complement(b byte) (byte, bool) {
	switch b {
	case 'A', 'a':
		return 'T', true
	case 'T', 't', 'U', 'u':
		return 'A', true
	case 'G', 'g':
		return 'C', true
	case 'C', 'c':
		return 'G', true
	}
	return '?', false
}

// ScaffoldBase is the base of the i-th scaffold nucleotide for a sequence
// shifted by shift.
func ScaffoldBase(seq string, shift, i int) byte {
	m := len(seq)
	return seq[((m-shift%m)%m+i)%m]
}

// Pairing links every staple nucleotide to the scaffold nucleotide it pairs
// with. It is computed once per design and reused for every shift of the
// scaffold sequence.
type Pairing struct {
	ScaffoldID  int
	ScaffoldLen int // scaffold nucleotides, insertions included
	Staples     []StapleSlots
}

// StapleSlots describes the nucleotides of one staple, in 5'→3' order.
// Partner[k] is the scaffold index of the partner of nucleotide k, or -1;
// Fixed[k] is a base given explicitly, or 0.
type StapleSlots struct {
	ID      int
	Partner []int
	Fixed   []byte
}

// Pairing computes the pairing of the staples with the scaffold. Pairs are
// found on virtual nucleotides, so helices sharing a support helix pair.
func (d *Design) Pairing() (*Pairing, error) {
	scaffold, ok := d.Scaffold()
	if !ok {
		return nil, fmt.Errorf("%w: no scaffold set", ErrNoSuchStrand)
	}
	pr := &Pairing{ScaffoldID: *d.ScaffoldID}
	onScaffold := make(map[VirtualNucl]int)
	i := 0
	for _, dom := range scaffold.Domains {
		if hi, ok := dom.(HelixInterval); ok {
			for k := 0; k < hi.Len(); k++ {
				if v, ok := hi.Nucl(k).MapToVirtual(d.Helices); ok {
					onScaffold[v] = i + k
				}
			}
		}
		i += dom.Len()
	}
	pr.ScaffoldLen = i
	d.Strands.Each(func(id int, s *Strand) {
		if id == pr.ScaffoldID {
			return
		}
		slots := StapleSlots{ID: id, Partner: make([]int, 0, s.Len()), Fixed: make([]byte, 0, s.Len())}
		k := 0
		for _, dom := range s.Domains {
			for j := 0; j < dom.Len(); j++ {
				partner := -1
				if hi, ok := dom.(HelixInterval); ok {
					if v, ok := hi.Nucl(j).MapToVirtual(d.Helices); ok {
						if p, found := onScaffold[v.Compl()]; found {
							partner = p
						}
					}
				}
				slots.Partner = append(slots.Partner, partner)
				slots.Fixed = append(slots.Fixed, fixedBase(s, dom, j, k))
				k++
			}
		}
		pr.Staples = append(pr.Staples, slots)
	})
	return pr, nil
}

// fixedBase is the base given by the sequence of a domain or of the strand.
func fixedBase(s *Strand, dom Domain, j, k int) byte {
	var seq string
	switch x := dom.(type) {
	case HelixInterval:
		seq = x.Sequence
	case Insertion:
		seq = x.Sequence
	}
	if j < len(seq) {
		return seq[j]
	}
	if k < len(s.Sequence) && s.Sequence[k] != '?' {
		return s.Sequence[k]
	}
	return 0
}

// Staple builds the sequence of staple slots for a scaffold sequence
// shifted by shift. Unknown bases are '?'.
func (pr *Pairing) Staple(slots *StapleSlots, seq string, shift int) string {
	var b strings.Builder
	b.Grow(len(slots.Partner))
	for k, p := range slots.Partner {
		switch {
		case p >= 0 && len(seq) > 0:
			c, _ := Complement(ScaffoldBase(seq, shift, p))
			b.WriteByte(c)
		case slots.Fixed[k] != 0:
			b.WriteByte(slots.Fixed[k])
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// ScaffoldSequenceAt is the sequence of the scaffold strand for a shift.
func (pr *Pairing) ScaffoldSequenceAt(seq string, shift int) string {
	if len(seq) == 0 {
		return strings.Repeat("?", pr.ScaffoldLen)
	}
	b := make([]byte, pr.ScaffoldLen)
	for i := range b {
		b[i] = ScaffoldBase(seq, shift, i)
	}
	return string(b)
}

// Sequences returns the sequence of every strand, using the scaffold
// sequence and shift of the design. Without a scaffold, only explicit
// sequences are known.
func (d *Design) Sequences() map[int]string {
	seqs := make(map[int]string, d.Strands.Len())
	pr, err := d.Pairing()
	if err != nil {
		d.Strands.Each(func(id int, s *Strand) {
			b := make([]byte, 0, s.Len())
			k := 0
			for _, dom := range s.Domains {
				for j := 0; j < dom.Len(); j++ {
					c := fixedBase(s, dom, j, k)
					if c == 0 {
						c = '?'
					}
					b = append(b, c)
					k++
				}
			}
			seqs[id] = string(b)
		})
		return seqs
	}
	seqs[pr.ScaffoldID] = pr.ScaffoldSequenceAt(d.ScaffoldSequence, d.ScaffoldShift)
	for i := range pr.Staples {
		slots := &pr.Staples[i]
		seqs[slots.ID] = pr.Staple(slots, d.ScaffoldSequence, d.ScaffoldShift)
	}
	return seqs
}
