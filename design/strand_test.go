package design

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fwd(h, start, end int) HelixInterval {
	return HelixInterval{Helix: h, Start: start, End: end, Forward: true}
}

func bwd(h, start, end int) HelixInterval {
	return HelixInterval{Helix: h, Start: start, End: end, Forward: false}
}

func ins(n int) Insertion {
	return Insertion{NbNucl: n}
}

// strandWithInsertions: H1 → 0..4, insertions 3+5, H1 → 4..8, insertion 5,
// H2 ← 0..8
func strandWithInsertions() []Domain {
	return []Domain{fwd(1, 0, 4), ins(3), ins(5), fwd(1, 4, 8), ins(5), bwd(2, 0, 8)}
}

func lengths(s *Strand) []int {
	l := make([]int, len(s.Domains))
	for i, d := range s.Domains {
		l[i] = d.Len()
	}
	return l
}

func kinds(s *Strand) []JunctionKind {
	k := make([]JunctionKind, len(s.Junctions))
	for i, j := range s.Junctions {
		k[i] = j.Kind
	}
	return k
}

func TestSanitizeMergesInsertions(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand(strandWithInsertions(), false, 0)
	assert.Equal(t, []int{4, 8, 4, 5, 8}, lengths(s))
	assert.Equal(t, []JunctionKind{Adjacent, Adjacent, Adjacent, UnidentifiedXover, Prime3}, kinds(s))
	assert.NoError(t, s.Validate())
}

func TestSanitizeWrapAroundInsertions(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	domains := append([]Domain{ins(12)}, strandWithInsertions()...)
	domains = append(domains, ins(17))
	s := MustStrand(domains, true, 0)
	assert.Equal(t, []int{4, 8, 4, 5, 8, 29}, lengths(s))
	assert.Equal(t, []JunctionKind{Adjacent, Adjacent, Adjacent, UnidentifiedXover, Adjacent, UnidentifiedXover},
		kinds(s))
	assert.NoError(t, s.Validate())
	assert.Equal(t, 58, s.Len())
}

func TestSanitizeIsIdempotent(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for _, cyclic := range []bool{false, true} {
		domains := append([]Domain{ins(2), fwd(3, 0, 0)}, strandWithInsertions()...)
		s := MustStrand(domains, cyclic, 0)
		again := s.Clone()
		require.NoError(t, again.Sanitize())
		assert.Equal(t, s.Domains, again.Domains)
		assert.Equal(t, s.Junctions, again.Junctions)
		inferred, err := InferJunctions(s.Domains, cyclic)
		require.NoError(t, err)
		assert.Equal(t, s.Junctions, inferred)
	}
}

func TestSanitizeMergesAbuttingIntervals(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand([]Domain{fwd(1, 0, 4), fwd(1, 4, 6), bwd(1, 2, 6), bwd(1, 0, 2), fwd(1, 9, 9)}, false, 0)
	require.Len(t, s.Domains, 2)
	assert.Equal(t, fwd(1, 0, 6), s.Domains[0])
	assert.Equal(t, bwd(1, 0, 6), s.Domains[1])
	assert.Equal(t, []JunctionKind{UnidentifiedXover, Prime3}, kinds(s))
}

func TestSanitizeKeepsIdentifiedXovers(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := &Strand{
		Domains:   []Domain{fwd(1, 0, 4), bwd(2, 0, 4)},
		Junctions: []Junction{Xover(7), {Kind: Prime3}},
	}
	require.NoError(t, s.Sanitize())
	assert.Equal(t, Xover(7), s.Junctions[0])
	// wrong number of junctions: rebuilt from scratch
	s = &Strand{
		Domains:   []Domain{fwd(1, 0, 4), bwd(2, 0, 4)},
		Junctions: []Junction{Xover(7)},
	}
	require.NoError(t, s.Sanitize())
	assert.Equal(t, []JunctionKind{UnidentifiedXover, Prime3}, kinds(s))
}

func TestValidate(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := &Strand{Domains: []Domain{fwd(1, 0, 4)}, Junctions: nil}
	assert.True(t, errors.Is(s.Validate(), ErrJunctionMismatch))
	s = &Strand{Domains: []Domain{fwd(1, 4, 4)}, Junctions: []Junction{{Kind: Prime3}}}
	assert.True(t, errors.Is(s.Validate(), ErrEmptyInterval))
	s = &Strand{Domains: []Domain{fwd(1, 0, 4), ins(2), ins(3)},
		Junctions: []Junction{{}, {}, {Kind: Prime3}}}
	assert.True(t, errors.Is(s.Validate(), ErrInvariant))
	s = &Strand{Domains: []Domain{fwd(1, 0, 4), ins(2), bwd(2, 0, 4)},
		Junctions: []Junction{{Kind: UnidentifiedXover}, {Kind: UnidentifiedXover}, {Kind: Prime3}}}
	assert.Error(t, s.Validate(), "junction before an insertion must be adjacent")
	s = &Strand{Domains: []Domain{fwd(1, 0, 4), bwd(2, 0, 4)}, Cyclic: true,
		Junctions: []Junction{{Kind: UnidentifiedXover}, {Kind: Prime3}}}
	assert.Error(t, s.Validate(), "cyclic strands have no 3' end")
	s = &Strand{Domains: []Domain{fwd(1, 0, 4), ins(-2), bwd(2, 0, 4)},
		Junctions: []Junction{{Kind: Adjacent}, {Kind: UnidentifiedXover}, {Kind: Prime3}}}
	assert.True(t, errors.Is(s.Validate(), ErrInvariant), "negative insertion")
}

func TestSanitizeDropsEmptyInsertions(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand([]Domain{ins(0), fwd(1, 0, 4), ins(0), bwd(2, 0, 4), ins(0)}, false, 0)
	assert.Equal(t, []Domain{fwd(1, 0, 4), bwd(2, 0, 4)}, s.Domains)
	assert.Equal(t, []JunctionKind{UnidentifiedXover, Prime3}, kinds(s))
	assert.NoError(t, s.Validate())
	c := MustStrand([]Domain{ins(0), fwd(1, 0, 4), bwd(2, 0, 4), ins(0)}, true, 0)
	assert.Equal(t, []Domain{fwd(1, 0, 4), bwd(2, 0, 4)}, c.Domains)
	assert.NoError(t, c.Validate())
}

func ptr(n Nucl) *Nucl { return &n }

func TestInsertionPoints(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand(strandWithInsertions(), false, 0)
	assert.Equal(t, []InsertionPoint{
		{Prime5: ptr(Nucl{1, 3, true}), Prime3: ptr(Nucl{1, 4, true})},
		{Prime5: ptr(Nucl{1, 7, true}), Prime3: ptr(Nucl{2, 7, false})},
	}, s.InsertionPoints())
	prime5 := MustStrand([]Domain{ins(3), fwd(1, 0, 4)}, false, 0)
	assert.Equal(t, []InsertionPoint{{Prime3: ptr(Nucl{1, 0, true})}}, prime5.InsertionPoints())
	prime3 := MustStrand([]Domain{bwd(2, 0, 8), ins(3)}, false, 0)
	assert.Equal(t, []InsertionPoint{{Prime5: ptr(Nucl{2, 0, false})}}, prime3.InsertionPoints())
	cyclic := MustStrand([]Domain{ins(3), fwd(1, 0, 4)}, true, 0)
	assert.Equal(t, []InsertionPoint{{Prime5: ptr(Nucl{1, 3, true}), Prime3: ptr(Nucl{1, 0, true})}},
		cyclic.InsertionPoints())
}

func TestStrandQueries(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand(strandWithInsertions(), false, 0)
	assert.Equal(t, 29, s.Len())
	p5, _ := s.Prime5End()
	p3, _ := s.Prime3End()
	assert.Equal(t, Nucl{1, 0, true}, p5)
	assert.Equal(t, Nucl{2, 0, false}, p3)
	i, ok := s.FindNucl(Nucl{1, 5, true})
	require.True(t, ok)
	assert.Equal(t, 13, i)
	n, ok := s.NthNucl(13)
	require.True(t, ok)
	assert.Equal(t, Nucl{1, 5, true}, n)
	_, ok = s.NthNucl(5)
	assert.False(t, ok, "nucleotide of an insertion")
	assert.Len(t, s.Nucls(), 16)
	assert.Equal(t, []XoverPair{{Prime5: Nucl{1, 7, true}, Prime3: Nucl{2, 7, false}}}, s.Xovers())
	assert.Equal(t, []int{21, 8}, s.DomainLengths())
	assert.True(t, s.HasInsertions())
}

func TestAddInsertionAtNucl(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand([]Domain{fwd(0, 0, 10)}, false, 0)
	require.NoError(t, s.AddInsertionAtNucl(Nucl{0, 4, true}, 3))
	assert.Equal(t, []int{5, 3, 5}, lengths(s))
	assert.Equal(t, []JunctionKind{Adjacent, Adjacent, Prime3}, kinds(s))
	assert.Equal(t, []int{13}, s.DomainLengths())
	// at the 3' end
	require.NoError(t, s.AddInsertionAtNucl(Nucl{0, 9, true}, 2))
	assert.Equal(t, []int{5, 3, 5, 2}, lengths(s))
	assert.True(t, errors.Is(s.AddInsertionAtNucl(Nucl{1, 0, true}, 2), ErrNoSuchNucl))
}

func TestSplitAndMergeStrands(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s := MustStrand([]Domain{fwd(0, 0, 10), bwd(1, 0, 10)}, false, 0)
	p5, p3, err := s.SplitAfter(Nucl{0, 4, true})
	require.NoError(t, err)
	assert.Equal(t, []Domain{fwd(0, 0, 5)}, p5.Domains)
	assert.Equal(t, []Domain{fwd(0, 5, 10), bwd(1, 0, 10)}, p3.Domains)
	_, _, err = s.SplitAfter(Nucl{1, 0, false})
	assert.Error(t, err, "cannot cut at the 3' end")
	require.NoError(t, p5.Merge(p3))
	assert.Equal(t, s.Domains, p5.Domains)
	require.NoError(t, p5.Merge(p5))
	assert.True(t, p5.Cyclic)
	assert.Equal(t, []JunctionKind{UnidentifiedXover, UnidentifiedXover}, kinds(p5))
	opened, rest, err := p5.SplitBefore(Nucl{1, 4, false})
	require.NoError(t, err)
	assert.Nil(t, rest)
	assert.Equal(t, []Domain{bwd(1, 0, 5), fwd(0, 0, 10), bwd(1, 5, 10)}, opened.Domains)
	assert.False(t, opened.Cyclic)
}

func TestXoverRegistry(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	reg := NewXoverRegistry()
	a := XoverPair{Nucl{0, 4, true}, Nucl{1, 4, false}}
	b := XoverPair{Nucl{1, 9, false}, Nucl{0, 9, true}}
	assert.Equal(t, 0, reg.Insert(a))
	assert.Equal(t, 0, reg.Insert(a), "a pair keeps its id")
	require.NoError(t, reg.InsertAt(b, 5))
	assert.Error(t, reg.InsertAt(a, 5), "id taken by another pair")
	assert.Error(t, reg.InsertAt(a, 6), "pair registered under another id")
	reg.Remove(0)
	assert.Equal(t, 6, reg.Insert(a), "ids are not reused")
	id, ok := reg.ID(b)
	assert.True(t, ok)
	assert.Equal(t, 5, id)
	clone := reg.Clone()
	clone.Remove(5)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []int{5, 6}, reg.IDs())
	assert.Equal(t, 7, clone.Insert(b))
	assert.True(t, errors.Is(reg.Update(9, a), ErrNoSuchXover))
}
