package design

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// --- Domains ---------------------------------------------------------------

// Domain is a part of a strand: a HelixInterval or an Insertion.
type Domain interface {
	Len() int
	Prime5() (Nucl, bool) // first nucleotide, if on a helix
	Prime3() (Nucl, bool) // last nucleotide, if on a helix
	domain()
}

// HelixInterval covers positions Start, …, End-1 of one strand of a helix.
// Forward intervals run 5'→3' in increasing positions.
type HelixInterval struct {
	Helix    int
	Start    int
	End      int
	Forward  bool
	Sequence string
}

func (hi HelixInterval) domain() {}

// Len is End-Start, or 0 for empty intervals.
func (hi HelixInterval) Len() int { return max(hi.End-hi.Start, 0) }

func (hi HelixInterval) Prime5() (Nucl, bool) { return hi.prime5(), true }
func (hi HelixInterval) Prime3() (Nucl, bool) { return hi.prime3(), true }

func (hi HelixInterval) prime5() Nucl {
	if hi.Forward {
		return Nucl{Helix: hi.Helix, Position: hi.Start, Forward: true}
	}
	return Nucl{Helix: hi.Helix, Position: hi.End - 1, Forward: false}
}

func (hi HelixInterval) prime3() Nucl {
	if hi.Forward {
		return Nucl{Helix: hi.Helix, Position: hi.End - 1, Forward: true}
	}
	return Nucl{Helix: hi.Helix, Position: hi.Start, Forward: false}
}

// Nucl is the k-th nucleotide counted from the 5' end.
func (hi HelixInterval) Nucl(k int) Nucl {
	if hi.Forward {
		return Nucl{Helix: hi.Helix, Position: hi.Start + k, Forward: true}
	}
	return Nucl{Helix: hi.Helix, Position: hi.End - 1 - k, Forward: false}
}

// Has returns the index of n counted from the 5' end.
func (hi HelixInterval) Has(n Nucl) (int, bool) {
	if n.Helix != hi.Helix || n.Forward != hi.Forward || n.Position < hi.Start || n.Position >= hi.End {
		return 0, false
	}
	if hi.Forward {
		return n.Position - hi.Start, true
	}
	return hi.End - 1 - n.Position, true
}

// Abuts is true if next continues hi without a gap.
func (hi HelixInterval) Abuts(next HelixInterval) bool {
	return hi.Len() > 0 && next.Len() > 0 && next.prime5() == hi.prime3().Prime3()
}

// Intersects is true if both intervals share a nucleotide.
func (hi HelixInterval) Intersects(o HelixInterval) bool {
	return hi.Helix == o.Helix && hi.Forward == o.Forward && hi.Start < o.End && o.Start < hi.End
}

// Split cuts hi after its k-th nucleotide from the 5' end. Both parts are
// non-empty.
func (hi HelixInterval) Split(k int) (prime5, prime3 HelixInterval, ok bool) {
	if k < 0 || k >= hi.Len()-1 {
		return hi, hi, false
	}
	prime5, prime3 = hi, hi
	if hi.Forward {
		prime5.End = hi.Start + k + 1
		prime3.Start = prime5.End
	} else {
		prime5.Start = hi.End - 1 - k
		prime3.End = prime5.Start
	}
	if hi.Sequence != "" {
		cut := min(k+1, len(hi.Sequence))
		prime5.Sequence, prime3.Sequence = hi.Sequence[:cut], hi.Sequence[cut:]
	}
	return prime5, prime3, true
}

func (hi HelixInterval) merged(next HelixInterval) HelixInterval {
	m := hi
	m.Start, m.End = min(hi.Start, next.Start), max(hi.End, next.End)
	m.Sequence = hi.Sequence + next.Sequence
	return m
}

// Insertion is a loop of nucleotides without helix positions. It belongs to
// its 5' neighbour unless AttachedToPrime3 is set.
type Insertion struct {
	NbNucl           int
	AttachedToPrime3 bool
	Sequence         string
	Instantiation    []r3.Vec // free positions, see InstantiateInsertions
}

func (ins Insertion) domain() {}

// Len is the number of nucleotides.
func (ins Insertion) Len() int { return ins.NbNucl }

func (ins Insertion) Prime5() (Nucl, bool) { return Nucl{}, false }
func (ins Insertion) Prime3() (Nucl, bool) { return Nucl{}, false }

// --- Junctions -------------------------------------------------------------

// JunctionKind classifies the link between a domain and the next one.
type JunctionKind int8

// Junction kinds
const (
	Adjacent          JunctionKind = iota // no gap between the domains
	UnidentifiedXover                     // crossover without id
	IdentifiedXover                       // crossover registered under an id
	Prime3                                // end of a non-cyclic strand
)

func (k JunctionKind) String() string {
	switch k {
	case Adjacent:
		return "adjacent"
	case UnidentifiedXover:
		return "xover"
	case IdentifiedXover:
		return "identified-xover"
	}
	return "prime3"
}

// Junction follows a domain of a strand. ID is set for identified
// crossovers only.
type Junction struct {
	Kind JunctionKind
	ID   int
}

// Xover returns the junction of crossover id.
func Xover(id int) Junction {
	return Junction{Kind: IdentifiedXover, ID: id}
}

// IsXover is true for both crossover kinds.
func (j Junction) IsXover() bool {
	return j.Kind == UnidentifiedXover || j.Kind == IdentifiedXover
}

func (j Junction) String() string {
	if j.Kind == IdentifiedXover {
		return fmt.Sprintf("xover(%d)", j.ID)
	}
	return j.Kind.String()
}

// --- Sanitization ----------------------------------------------------------

// SanitizeDomains brings a domain list into canonical form: empty helix
// intervals are dropped, consecutive insertions and abutting intervals are
// merged and, for cyclic strands, an insertion at the start is moved to
// the end, merged with a final one.
func SanitizeDomains(domains []Domain, cyclic bool) []Domain {
	sane := make([]Domain, 0, len(domains))
	var acc *Insertion
	for _, d := range domains {
		switch dom := d.(type) {
		case Insertion:
			if acc == nil {
				ins := dom
				acc = &ins
			} else {
				acc.NbNucl += dom.NbNucl
				acc.Sequence += dom.Sequence
				acc.Instantiation = nil
			}
		case HelixInterval:
			if dom.Len() == 0 {
				tracer().Infof("removing empty domain %v", dom)
				continue
			}
			sane = appendInsertion(sane, acc)
			acc = nil
			if n := len(sane); n > 0 {
				if prev, ok := sane[n-1].(HelixInterval); ok && prev.Abuts(dom) {
					sane[n-1] = prev.merged(dom)
					continue
				}
			}
			sane = append(sane, dom)
		}
	}
	if acc != nil {
		if first, ok := firstInsertion(sane); ok && cyclic {
			sane = sane[1:]
			acc.NbNucl += first.NbNucl
			acc.Sequence += first.Sequence
			acc.AttachedToPrime3 = false
			acc.Instantiation = nil
		}
		sane = appendInsertion(sane, acc)
	} else if first, ok := firstInsertion(sane); ok && cyclic && len(sane) > 1 {
		sane = append(sane[1:], first)
	}
	return sane
}

// appendInsertion appends ins unless it is nil or has no nucleotides.
func appendInsertion(domains []Domain, ins *Insertion) []Domain {
	if ins == nil {
		return domains
	}
	if ins.NbNucl == 0 {
		tracer().Infof("removing empty insertion")
		return domains
	}
	return append(domains, *ins)
}

func firstInsertion(domains []Domain) (Insertion, bool) {
	if len(domains) == 0 {
		return Insertion{}, false
	}
	ins, ok := domains[0].(Insertion)
	return ins, ok
}

// InferJunctions computes the junctions of sanitized domains. The junction
// before an insertion is Adjacent; the junction after it is the one between
// the helix intervals around the insertion.
func InferJunctions(domains []Domain, cyclic bool) ([]Junction, error) {
	n := len(domains)
	if n == 0 {
		return nil, nil
	}
	junctions := make([]Junction, 0, n)
	last := n - 1
	if cyclic {
		last = n
	}
	for i := 0; i < last; i++ {
		cur, next := domains[i], domains[(i+1)%n]
		if _, ok := next.(Insertion); ok {
			if _, ok := cur.(Insertion); ok {
				return nil, fmt.Errorf("%w: consecutive insertions at %d", ErrInvariant, i)
			}
			junctions = append(junctions, Junction{Kind: Adjacent})
			continue
		}
		prime3 := next.(HelixInterval)
		prime5, ok := cur.(HelixInterval)
		if !ok {
			if i == 0 && !cyclic {
				junctions = append(junctions, Junction{Kind: Adjacent})
				continue
			}
			if prime5, ok = domains[(i+n-1)%n].(HelixInterval); !ok {
				return nil, fmt.Errorf("%w: insertion at %d has no helix neighbour", ErrInvariant, i)
			}
		}
		junctions = append(junctions, junctionBetween(prime5, prime3))
	}
	if !cyclic {
		junctions = append(junctions, Junction{Kind: Prime3})
	}
	return junctions, nil
}

func junctionBetween(prime5, prime3 HelixInterval) Junction {
	if prime3.prime5() == prime5.prime3().Prime3() {
		return Junction{Kind: Adjacent}
	}
	return Junction{Kind: UnidentifiedXover}
}

// --- Strands ---------------------------------------------------------------

// Strand is a sequence of domains. Junctions[i] links Domains[i] to the
// next domain; the last junction of a non-cyclic strand is Prime3.
type Strand struct {
	Domains   []Domain
	Junctions []Junction
	Sequence  string
	Cyclic    bool
	Color     uint32
	Name      string
}

// NewStrand sanitizes domains and infers the junctions.
func NewStrand(domains []Domain, cyclic bool, color uint32) (*Strand, error) {
	s := &Strand{Domains: domains, Cyclic: cyclic, Color: color}
	if err := s.Sanitize(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustStrand is NewStrand for literals; it panics on error.
func MustStrand(domains []Domain, cyclic bool, color uint32) *Strand {
	s, err := NewStrand(domains, cyclic, color)
	if err != nil {
		panic(err)
	}
	return s
}

// Sanitize brings the domains into canonical form and recomputes the
// junctions. Identified crossovers are kept where the domains did not
// change; a junction list of the wrong length is discarded.
func (s *Strand) Sanitize() error {
	sane := SanitizeDomains(s.Domains, s.Cyclic)
	inferred, err := InferJunctions(sane, s.Cyclic)
	if err != nil {
		return err
	}
	if len(s.Junctions) == len(sane) && len(sane) == len(s.Domains) {
		for i, j := range s.Junctions {
			if j.Kind == IdentifiedXover && inferred[i].Kind == UnidentifiedXover {
				inferred[i] = j
			}
		}
	} else if len(s.Junctions) > 0 {
		tracer().Debugf("discarding %d junctions for %d domains", len(s.Junctions), len(sane))
	}
	s.Domains, s.Junctions = sane, inferred
	return nil
}

// Validate checks the invariants of a sanitized strand.
func (s *Strand) Validate() error {
	n := len(s.Domains)
	if len(s.Junctions) != n {
		return fmt.Errorf("%w: %d junctions for %d domains", ErrJunctionMismatch, len(s.Junctions), n)
	}
	for i, d := range s.Domains {
		if hi, ok := d.(HelixInterval); ok && hi.Start >= hi.End {
			return fmt.Errorf("%w: domain %d is [%d,%d[", ErrEmptyInterval, i, hi.Start, hi.End)
		}
		ins, ok := d.(Insertion)
		if !ok {
			continue
		}
		if ins.NbNucl <= 0 {
			return fmt.Errorf("%w: insertion %d has %d nucleotides", ErrInvariant, i, ins.NbNucl)
		}
		if i > 0 {
			if _, ok := s.Domains[i-1].(Insertion); ok {
				return fmt.Errorf("%w: consecutive insertions at %d", ErrInvariant, i)
			}
		}
		if s.Cyclic && i == 0 && n > 1 {
			if _, ok := s.Domains[n-1].(Insertion); ok {
				return fmt.Errorf("%w: cyclic strand starts and ends with insertions", ErrInvariant)
			}
		}
		if prev := (i + n - 1) % n; (i > 0 || s.Cyclic) && s.Junctions[prev].Kind != Adjacent {
			return fmt.Errorf("%w: junction before insertion %d is %v", ErrInvariant, i, s.Junctions[prev])
		}
	}
	for i, j := range s.Junctions {
		if j.Kind == Prime3 && (s.Cyclic || i != n-1) {
			return fmt.Errorf("%w: misplaced 3' end at %d", ErrInvariant, i)
		}
	}
	if !s.Cyclic && n > 0 && s.Junctions[n-1].Kind != Prime3 {
		return fmt.Errorf("%w: non-cyclic strand without 3' end", ErrInvariant)
	}
	return nil
}

// Clone copies the strand; insertion instantiations are shared.
func (s *Strand) Clone() *Strand {
	c := *s
	c.Domains = slices.Clone(s.Domains)
	c.Junctions = slices.Clone(s.Junctions)
	return &c
}

// Len is the number of nucleotides, insertions included.
func (s *Strand) Len() int {
	return domainsLen(s.Domains)
}

// Prime5End is the first nucleotide on a helix.
func (s *Strand) Prime5End() (Nucl, bool) {
	for _, d := range s.Domains {
		if n, ok := d.Prime5(); ok {
			return n, true
		}
	}
	return Nucl{}, false
}

// Prime3End is the last nucleotide on a helix.
func (s *Strand) Prime3End() (Nucl, bool) {
	for i := len(s.Domains) - 1; i >= 0; i-- {
		if n, ok := s.Domains[i].Prime3(); ok {
			return n, true
		}
	}
	return Nucl{}, false
}

// LocateNucl returns the domain holding n and the index of n within it.
func (s *Strand) LocateNucl(n Nucl) (domain, offset int, ok bool) {
	for i, d := range s.Domains {
		if hi, isHelix := d.(HelixInterval); isHelix {
			if k, found := hi.Has(n); found {
				return i, k, true
			}
		}
	}
	return 0, 0, false
}

// HasNucl is true if n is on the strand.
func (s *Strand) HasNucl(n Nucl) bool {
	_, _, ok := s.LocateNucl(n)
	return ok
}

// FindNucl returns the index of n on the strand, insertions counted.
func (s *Strand) FindNucl(n Nucl) (int, bool) {
	seen := 0
	for _, d := range s.Domains {
		if hi, ok := d.(HelixInterval); ok {
			if k, found := hi.Has(n); found {
				return seen + k, true
			}
		}
		seen += d.Len()
	}
	return 0, false
}

// NthNucl returns the k-th nucleotide of the strand. It fails for
// nucleotides of insertions.
func (s *Strand) NthNucl(k int) (Nucl, bool) {
	seen := 0
	for _, d := range s.Domains {
		if k < seen+d.Len() {
			if hi, ok := d.(HelixInterval); ok && k >= seen {
				return hi.Nucl(k - seen), true
			}
			return Nucl{}, false
		}
		seen += d.Len()
	}
	return Nucl{}, false
}

// Nucls lists the helix nucleotides in 5'→3' order.
func (s *Strand) Nucls() []Nucl {
	nucls := make([]Nucl, 0, s.Len())
	for _, d := range s.Domains {
		if hi, ok := d.(HelixInterval); ok {
			for k := 0; k < hi.Len(); k++ {
				nucls = append(nucls, hi.Nucl(k))
			}
		}
	}
	return nucls
}

// XoverPair identifies a crossover by the nucleotides it links: Prime5 is
// the last nucleotide before it, Prime3 the first one after it.
type XoverPair struct {
	Prime5 Nucl `json:"prime5"`
	Prime3 Nucl `json:"prime3"`
}

func (xp XoverPair) String() string {
	return fmt.Sprintf("%v→%v", xp.Prime5, xp.Prime3)
}

// linkAt returns the helix nucleotides linked by junction i, if the domain
// after it is on a helix.
func (s *Strand) linkAt(i int) (XoverPair, bool) {
	n := len(s.Domains)
	if i == n-1 && !s.Cyclic {
		return XoverPair{}, false
	}
	next, ok := s.Domains[(i+1)%n].(HelixInterval)
	if !ok {
		return XoverPair{}, false
	}
	prev, ok := s.Domains[i].(HelixInterval)
	if !ok {
		if i == 0 && !s.Cyclic {
			return XoverPair{}, false
		}
		if prev, ok = s.Domains[(i+n-1)%n].(HelixInterval); !ok {
			return XoverPair{}, false
		}
	}
	return XoverPair{Prime5: prev.prime3(), Prime3: next.prime5()}, true
}

// Xovers lists the crossovers of the strand in order.
func (s *Strand) Xovers() []XoverPair {
	var xovers []XoverPair
	for i := range s.Domains {
		if xp, ok := s.linkAt(i); ok && xp.Prime5.Prime3() != xp.Prime3 {
			xovers = append(xovers, xp)
		}
	}
	return xovers
}

// InsertionPoint are the helix nucleotides around an insertion. A nil end
// means the insertion is at the end of a non-cyclic strand.
type InsertionPoint struct {
	Prime5 *Nucl
	Prime3 *Nucl
}

// InsertionPoints lists, for every insertion in order, the nucleotides
// before and after it.
func (s *Strand) InsertionPoints() []InsertionPoint {
	var points []InsertionPoint
	n := len(s.Domains)
	for i, d := range s.Domains {
		if _, ok := d.(Insertion); !ok {
			continue
		}
		var ip InsertionPoint
		if i > 0 || s.Cyclic {
			if nucl, ok := s.Domains[(i+n-1)%n].Prime3(); ok {
				ip.Prime5 = &nucl
			}
		}
		if i < n-1 || s.Cyclic {
			if nucl, ok := s.Domains[(i+1)%n].Prime5(); ok {
				ip.Prime3 = &nucl
			}
		}
		points = append(points, ip)
	}
	return points
}

// AddInsertionAtNucl inserts size free nucleotides after n.
func (s *Strand) AddInsertionAtNucl(n Nucl, size int) error {
	d, k, ok := s.LocateNucl(n)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	hi := s.Domains[d].(HelixInterval)
	domains := slices.Clone(s.Domains[:d])
	if prime5, prime3, ok := hi.Split(k); ok {
		domains = append(domains, prime5, Insertion{NbNucl: size}, prime3)
	} else {
		domains = append(domains, hi, Insertion{NbNucl: size})
	}
	domains = append(domains, s.Domains[d+1:]...)
	junctions := s.Junctions
	s.Domains, s.Junctions = domains, nil
	if err := s.Sanitize(); err != nil {
		return err
	}
	s.restoreXoverIDs(junctions)
	return nil
}

// restoreXoverIDs copies the ids of the crossovers of an earlier junction
// list of the same strand, matching them in order.
func (s *Strand) restoreXoverIDs(old []Junction) {
	var xovers []Junction
	for _, j := range old {
		if j.IsXover() {
			xovers = append(xovers, j)
		}
	}
	k := 0
	for i, j := range s.Junctions {
		if !j.IsXover() {
			continue
		}
		if k < len(xovers) && xovers[k].Kind == IdentifiedXover {
			s.Junctions[i] = xovers[k]
		}
		k++
	}
}

// DomainLengths are the lengths of the runs of domains joined without a
// crossover. For cyclic strands the last run continues into the first.
func (s *Strand) DomainLengths() []int {
	var lengths []int
	joined := false
	for i, d := range s.Domains {
		if joined {
			lengths[len(lengths)-1] += d.Len()
		} else {
			lengths = append(lengths, d.Len())
		}
		joined = i < len(s.Junctions) && s.Junctions[i].Kind == Adjacent
	}
	if s.Cyclic && joined && len(lengths) > 1 {
		lengths[0] += lengths[len(lengths)-1]
		lengths = lengths[:len(lengths)-1]
	}
	return lengths
}

// DomainEnds lists the 5' and 3' ends of every helix interval.
func (s *Strand) DomainEnds() []Nucl {
	var ends []Nucl
	for _, d := range s.Domains {
		if hi, ok := d.(HelixInterval); ok {
			ends = append(ends, hi.prime5(), hi.prime3())
		}
	}
	return ends
}

// HasInsertions is true if a domain is an insertion.
func (s *Strand) HasInsertions() bool {
	return slices.ContainsFunc(s.Domains, func(d Domain) bool {
		_, ok := d.(Insertion)
		return ok
	})
}

// Intersects is true if both strands share a nucleotide.
func (s *Strand) Intersects(other *Strand) bool {
	for _, d := range s.Domains {
		hi, ok := d.(HelixInterval)
		if !ok {
			continue
		}
		for _, o := range other.Domains {
			if oi, ok := o.(HelixInterval); ok && hi.Intersects(oi) {
				return true
			}
		}
	}
	return false
}

// CanMerge is true if other may be appended to s in 3' direction.
func (s *Strand) CanMerge(other *Strand) bool {
	return !s.Cyclic && !other.Cyclic && len(s.Domains) > 0 && len(other.Domains) > 0
}
