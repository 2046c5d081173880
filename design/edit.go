package design

import (
	"fmt"
	"slices"
)

// --- Strand cuts -----------------------------------------------------------

// cutDomains splits domains after the k-th nucleotide of domain d. With
// k < 0 the cut is before domain d. An insertion at the cut stays with the
// helix interval it is attached to.
func cutDomains(domains []Domain, d, k int) (first, second []Domain) {
	hi, _ := domains[d].(HelixInterval)
	switch {
	case k < 0:
		first, second = slices.Clone(domains[:d]), slices.Clone(domains[d:])
		if n := len(first); n > 0 {
			if ins, ok := first[n-1].(Insertion); ok && ins.AttachedToPrime3 {
				first, second = first[:n-1], append([]Domain{ins}, second...)
			}
		}
	case k >= hi.Len()-1:
		first, second = slices.Clone(domains[:d+1]), slices.Clone(domains[d+1:])
		if len(second) > 0 {
			if ins, ok := second[0].(Insertion); ok && !ins.AttachedToPrime3 {
				first, second = append(first, ins), second[1:]
			}
		}
	default:
		prime5, prime3, _ := hi.Split(k)
		first = append(slices.Clone(domains[:d]), prime5)
		second = append([]Domain{prime3}, domains[d+1:]...)
	}
	return first, second
}

func domainsLen(domains []Domain) int {
	n := 0
	for _, d := range domains {
		n += d.Len()
	}
	return n
}

// split cuts the strand after the k-th nucleotide of domain d. A cyclic
// strand is opened and returned as prime5 with a nil prime3.
func (s *Strand) split(d, k int) (prime5, prime3 *Strand, err error) {
	first, second := cutDomains(s.Domains, d, k)
	cut := domainsLen(first)
	if s.Cyclic {
		opened := &Strand{Domains: append(second, first...), Color: s.Color, Name: s.Name}
		if s.Sequence != "" && len(s.Sequence) == s.Len() {
			opened.Sequence = s.Sequence[cut:] + s.Sequence[:cut]
		}
		return opened, nil, opened.Sanitize()
	}
	if len(first) == 0 || len(second) == 0 {
		return nil, nil, fmt.Errorf("%w: cannot cut a strand at its end", ErrInvariant)
	}
	prime5 = &Strand{Domains: first, Color: s.Color, Name: s.Name}
	prime3 = &Strand{Domains: second, Color: s.Color}
	if s.Sequence != "" && len(s.Sequence) == s.Len() {
		prime5.Sequence, prime3.Sequence = s.Sequence[:cut], s.Sequence[cut:]
	}
	if err = prime5.Sanitize(); err != nil {
		return nil, nil, err
	}
	return prime5, prime3, prime3.Sanitize()
}

// SplitAfter cuts the strand after n. Splitting a cyclic strand opens it
// and returns a nil prime3.
func (s *Strand) SplitAfter(n Nucl) (prime5, prime3 *Strand, err error) {
	d, k, ok := s.LocateNucl(n)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	return s.split(d, k)
}

// SplitBefore cuts the strand before n.
func (s *Strand) SplitBefore(n Nucl) (prime5, prime3 *Strand, err error) {
	d, k, ok := s.LocateNucl(n)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	return s.split(d, k-1)
}

// Merge appends other to s in 3' direction. Merging a strand with itself
// makes it cyclic.
func (s *Strand) Merge(other *Strand) error {
	if other == s {
		if s.Cyclic {
			return fmt.Errorf("%w: strand is already cyclic", ErrInvariant)
		}
		s.Cyclic, s.Junctions = true, nil
		return s.Sanitize()
	}
	if !s.CanMerge(other) {
		return fmt.Errorf("%w: cannot merge cyclic or empty strands", ErrInvariant)
	}
	if s.Sequence != "" || other.Sequence != "" {
		s.Sequence = padSequence(s.Sequence, s.Len()) + padSequence(other.Sequence, other.Len())
	}
	s.Domains = append(slices.Clone(s.Domains), other.Domains...)
	s.Junctions = nil
	return s.Sanitize()
}

func padSequence(seq string, n int) string {
	for len(seq) < n {
		seq += "?"
	}
	return seq[:n]
}

// --- Crossover identities --------------------------------------------------

// identify registers the crossovers of s. With known set, identified
// crossovers are restored under their ids; otherwise unidentified
// crossovers get an id, reusing the one of an already registered pair.
func (d *Design) identify(s *Strand, known bool) error {
	for i, j := range s.Junctions {
		pair, ok := s.linkAt(i)
		if !ok {
			continue
		}
		switch {
		case known && j.Kind == IdentifiedXover:
			if err := d.Xovers.InsertAt(pair, j.ID); err != nil {
				return err
			}
		case !known && j.Kind == UnidentifiedXover:
			s.Junctions[i] = Xover(d.Xovers.Insert(pair))
		}
	}
	return nil
}

// IdentifyXovers fills the registry from the strands, in two passes: first
// restoring known ids, then numbering the remaining crossovers.
func (d *Design) IdentifyXovers() error {
	var err error
	d.Strands.Each(func(id int, s *Strand) {
		if err == nil {
			if e := d.identify(s, true); e != nil {
				err = fmt.Errorf("strand %d: %w", id, e)
			}
		}
	})
	if err != nil {
		return err
	}
	d.Strands.Each(func(_ int, s *Strand) {
		d.identify(s, false)
	})
	return nil
}

// reidentify gives every crossover of an edited strand the id of its pair,
// allocating ids for new pairs.
func (d *Design) reidentify(s *Strand) {
	for i, j := range s.Junctions {
		if !j.IsXover() {
			continue
		}
		pair, ok := s.linkAt(i)
		if !ok {
			continue
		}
		if id, found := d.Xovers.ID(pair); found {
			s.Junctions[i] = Xover(id)
		} else {
			s.Junctions[i] = Junction{Kind: UnidentifiedXover}
		}
	}
	d.identify(s, false)
}

// pruneXovers removes registry entries no junction refers to.
func (d *Design) pruneXovers() {
	used := make(map[int]bool)
	d.Strands.Each(func(_ int, s *Strand) {
		for _, j := range s.Junctions {
			if j.Kind == IdentifiedXover {
				used[j.ID] = true
			}
		}
	})
	for _, id := range d.Xovers.IDs() {
		if !used[id] {
			tracer().Debugf("removing crossover %d", id)
			d.Xovers.Remove(id)
		}
	}
}

// CheckConsistency verifies that every strand is sane and that identified
// junctions and the crossover registry agree.
func (d *Design) CheckConsistency() error {
	var err error
	seen := make(map[int]bool)
	d.Strands.Each(func(sid int, s *Strand) {
		if err != nil {
			return
		}
		if e := s.Validate(); e != nil {
			err = fmt.Errorf("strand %d: %w", sid, e)
			return
		}
		for i, j := range s.Junctions {
			if j.Kind != IdentifiedXover {
				continue
			}
			pair, _ := s.linkAt(i)
			registered, ok := d.Xovers.Get(j.ID)
			switch {
			case !ok:
				err = fmt.Errorf("%w: strand %d: crossover %d", ErrNoSuchXover, sid, j.ID)
			case registered != pair:
				err = fmt.Errorf("%w: strand %d: crossover %d is %v, registered as %v",
					ErrInvariant, sid, j.ID, pair, registered)
			case seen[j.ID]:
				err = fmt.Errorf("%w: crossover %d used twice", ErrInvariant, j.ID)
			}
			if err != nil {
				return
			}
			seen[j.ID] = true
		}
	})
	if err == nil && len(seen) != d.Xovers.Len() {
		err = fmt.Errorf("%w: %d crossovers registered, %d used", ErrInvariant, d.Xovers.Len(), len(seen))
	}
	return err
}

// --- Design edits ----------------------------------------------------------

func (d *Design) strand(id int) (*Strand, error) {
	s, ok := d.Strands.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchStrand, id)
	}
	return s, nil
}

// SplitStrand cuts the strand holding n after n. It returns the id of the
// 3' part; a cyclic strand is opened in place and its own id is returned.
func (d *Design) SplitStrand(n Nucl) (int, error) {
	id, ok := d.StrandOf(n)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	s, _ := d.Strands.Get(id)
	prime5, prime3, err := s.SplitAfter(n)
	if err != nil {
		return 0, err
	}
	return d.replaceSplit(id, prime5, prime3), nil
}

// SplitStrandBefore cuts the strand holding n before n.
func (d *Design) SplitStrandBefore(n Nucl) (int, error) {
	id, ok := d.StrandOf(n)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	s, _ := d.Strands.Get(id)
	prime5, prime3, err := s.SplitBefore(n)
	if err != nil {
		return 0, err
	}
	return d.replaceSplit(id, prime5, prime3), nil
}

func (d *Design) replaceSplit(id int, prime5, prime3 *Strand) int {
	d.reidentify(prime5)
	d.Strands.Put(id, prime5)
	newID := id
	if prime3 != nil {
		d.reidentify(prime3)
		newID = d.Strands.Push(prime3)
	}
	d.pruneXovers()
	tracer().Debugf("split strand %d, 3' part is %d", id, newID)
	return newID
}

// MergeStrands appends strand prime3 to strand prime5. Merging a strand
// with itself makes it cyclic. The merged strand keeps the id of prime5,
// and becomes the scaffold if prime3 was.
func (d *Design) MergeStrands(prime5, prime3 int) error {
	s5, err := d.strand(prime5)
	if err != nil {
		return err
	}
	s3, err := d.strand(prime3)
	if err != nil {
		return err
	}
	merged := s5.Clone()
	other := s3
	if prime5 == prime3 {
		other = merged
	}
	if err := merged.Merge(other); err != nil {
		return err
	}
	d.reidentify(merged)
	d.Strands.Put(prime5, merged)
	if prime3 != prime5 {
		d.Strands.Remove(prime3)
		if d.ScaffoldID != nil && *d.ScaffoldID == prime3 {
			d.ScaffoldID = &prime5
		}
	}
	d.pruneXovers()
	return nil
}

// AddXover links nucleotide prime5 to nucleotide prime3 by a crossover,
// cutting their strands where needed. It returns the id of the crossover.
func (d *Design) AddXover(prime5, prime3 Nucl) (int, error) {
	if prime5.Prime3() == prime3 {
		return 0, fmt.Errorf("%w: %v and %v are adjacent", ErrInvariant, prime5, prime3)
	}
	backup := d.Clone()
	id, err := d.addXover(prime5, prime3)
	if err != nil {
		*d = *backup
		return 0, err
	}
	return id, nil
}

func (d *Design) addXover(prime5, prime3 Nucl) (int, error) {
	id5, ok := d.StrandOf(prime5)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoSuchNucl, prime5)
	}
	if s, _ := d.Strands.Get(id5); s.Cyclic || !isPrime3End(s, prime5) {
		if _, err := d.SplitStrand(prime5); err != nil {
			return 0, err
		}
	}
	id3, ok := d.StrandOf(prime3)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoSuchNucl, prime3)
	}
	if s, _ := d.Strands.Get(id3); s.Cyclic || !isPrime5End(s, prime3) {
		if _, err := d.SplitStrandBefore(prime3); err != nil {
			return 0, err
		}
	}
	id5, _ = d.StrandOf(prime5)
	id3, _ = d.StrandOf(prime3)
	if err := d.MergeStrands(id5, id3); err != nil {
		return 0, err
	}
	xid, ok := d.Xovers.ID(XoverPair{Prime5: prime5, Prime3: prime3})
	if !ok {
		return 0, fmt.Errorf("%w: crossover %v→%v not created", ErrInvariant, prime5, prime3)
	}
	return xid, nil
}

func isPrime3End(s *Strand, n Nucl) bool {
	end, ok := s.Prime3End()
	return ok && end == n && !endsWithInsertion(s)
}

func isPrime5End(s *Strand, n Nucl) bool {
	end, ok := s.Prime5End()
	if !ok || end != n {
		return false
	}
	_, startsWithInsertion := s.Domains[0].(Insertion)
	return !startsWithInsertion
}

func endsWithInsertion(s *Strand) bool {
	_, ok := s.Domains[len(s.Domains)-1].(Insertion)
	return ok
}

// DeleteXover cuts crossover id, splitting its strand.
func (d *Design) DeleteXover(id int) error {
	pair, ok := d.Xovers.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchXover, id)
	}
	sid, _ := d.StrandOf(pair.Prime5)
	s, _ := d.Strands.Get(sid)
	for i, j := range s.Junctions {
		if j.Kind == IdentifiedXover && j.ID == id {
			prime5, prime3, err := s.split((i+1)%len(s.Domains), -1)
			if err != nil {
				return err
			}
			d.replaceSplit(sid, prime5, prime3)
			return nil
		}
	}
	return fmt.Errorf("%w: crossover %d has no junction", ErrInvariant, id)
}

// DeleteDomain removes domain k of a strand. What remains on either side
// becomes a strand of its own; empty remains are dropped.
func (d *Design) DeleteDomain(strand, k int) error {
	s, err := d.strand(strand)
	if err != nil {
		return err
	}
	if k < 0 || k >= len(s.Domains) {
		return fmt.Errorf("%w: strand %d has no domain %d", ErrNotFound, strand, k)
	}
	before, after := slices.Clone(s.Domains[:k]), slices.Clone(s.Domains[k+1:])
	var seqBefore, seqAfter string
	if s.Sequence != "" && len(s.Sequence) == s.Len() {
		lo := domainsLen(before)
		hi := lo + s.Domains[k].Len()
		seqBefore, seqAfter = s.Sequence[:lo], s.Sequence[hi:]
	}
	var parts []*Strand
	if s.Cyclic {
		parts = []*Strand{{Domains: append(after, before...), Sequence: seqAfter + seqBefore}}
	} else {
		parts = []*Strand{{Domains: before, Sequence: seqBefore}, {Domains: after, Sequence: seqAfter}}
	}
	var strands []*Strand
	for _, ns := range parts {
		if !hasHelixInterval(ns.Domains) {
			continue
		}
		ns.Color, ns.Name = s.Color, s.Name
		if err := ns.Sanitize(); err != nil {
			return err
		}
		strands = append(strands, ns)
	}
	d.Strands.Remove(strand)
	placed := false
	for _, ns := range strands {
		d.reidentify(ns)
		if !placed {
			d.Strands.Put(strand, ns)
			placed = true
		} else {
			d.Strands.Push(ns)
		}
	}
	if !placed && d.ScaffoldID != nil && *d.ScaffoldID == strand {
		d.ScaffoldID = nil
	}
	d.pruneXovers()
	return nil
}

func hasHelixInterval(domains []Domain) bool {
	return slices.ContainsFunc(domains, func(d Domain) bool {
		_, ok := d.(HelixInterval)
		return ok
	})
}

// DeleteStrand removes a strand and its crossovers.
func (d *Design) DeleteStrand(id int) error {
	if !d.Strands.Has(id) {
		return fmt.Errorf("%w: %d", ErrNoSuchStrand, id)
	}
	d.Strands.Remove(id)
	if d.ScaffoldID != nil && *d.ScaffoldID == id {
		d.ScaffoldID = nil
	}
	d.pruneXovers()
	return nil
}

// AddInsertion inserts size free nucleotides after n.
func (d *Design) AddInsertion(n Nucl, size int) error {
	id, ok := d.StrandOf(n)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoSuchNucl, n)
	}
	s, _ := d.Strands.Get(id)
	edited := s.Clone()
	if err := edited.AddInsertionAtNucl(n, size); err != nil {
		return err
	}
	d.reidentify(edited)
	d.Strands.Put(id, edited)
	d.pruneXovers()
	return nil
}
