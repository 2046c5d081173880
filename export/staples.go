package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/npillmayer/ensnano/design"
)

// WellsPerPlate is the size of a plate: 12 rows of 8 wells, A to H.
const WellsPerPlate = 96

// Staple is a strand to order.
type Staple struct {
	ID             int
	Plate          int
	Well           string
	Name           string
	Prime5, Prime3 design.Nucl
	Sequence       string
}

// Len is the number of nucleotides.
func (st Staple) Len() int { return len(st.Sequence) }

// Well returns plate and well of the n-th staple, counted from 0.
func Well(n int) (int, string) {
	plate := n/WellsPerPlate + 1
	m := n % WellsPerPlate
	return plate, fmt.Sprintf("%c%d", 'A'+m%8, m/8+1)
}

func endLabel(n design.Nucl) string {
	return fmt.Sprintf("h%d:nt%d", n.Helix, n.Position)
}

// Staples lists the non-scaffold strands, ordered by their 5' and 3' ends
// and numbered onto plates.
func Staples(d *design.Design) []Staple {
	seqs := d.Sequences()
	var staples []Staple
	d.Strands.Each(func(id int, s *design.Strand) {
		if d.ScaffoldID != nil && *d.ScaffoldID == id || s.Len() == 0 {
			return
		}
		p5, ok5 := s.Prime5End()
		p3, ok3 := s.Prime3End()
		if !ok5 || !ok3 {
			tracer().Infof("strand %d has no helix nucleotide, not exported", id)
			return
		}
		staples = append(staples, Staple{ID: id, Prime5: p5, Prime3: p3, Sequence: seqs[id]})
	})
	sort.SliceStable(staples, func(i, j int) bool {
		a, b := staples[i], staples[j]
		ka := [4]int{a.Prime5.Helix, a.Prime5.Position, a.Prime3.Helix, a.Prime3.Position}
		kb := [4]int{b.Prime5.Helix, b.Prime5.Position, b.Prime3.Helix, b.Prime3.Position}
		for x := range ka {
			if ka[x] != kb[x] {
				return ka[x] < kb[x]
			}
		}
		return false
	})
	for n := range staples {
		st := &staples[n]
		st.Plate, st.Well = Well(n)
		st.Name = fmt.Sprintf("Staple %04d; 5':%s>3':%s", st.ID, endLabel(st.Prime5), endLabel(st.Prime3))
	}
	return staples
}

// WriteStaplesCSV writes a header and one row per staple.
func WriteStaplesCSV(w io.Writer, staples []Staple) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Plate", "Well Position", "Name", "5'", "3'", "Sequence", "Length"})
	for _, st := range staples {
		cw.Write([]string{
			strconv.Itoa(st.Plate), st.Well, st.Name,
			endLabel(st.Prime5), endLabel(st.Prime3),
			st.Sequence, strconv.Itoa(st.Len()),
		})
	}
	cw.Flush()
	return cw.Error()
}
