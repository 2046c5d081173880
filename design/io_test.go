package design

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const json5Design = `{
  // two helices side by side
  version: "0.5.0",
  helices: [
    {id: 0, position: [0, 0, 0], orientation: [1, 0, 0, 0], roll: 0},
    {id: 1, position: [0, 2.65, 0], orientation: [1, 0, 0, 0], roll: 0.5},
  ],
  strands: [
    {id: 3, color: 255, domains: [
      {helix: 0, start: 0, end: 8, forward: true},
      {insertion: 2},
      {helix: 1, start: 0, end: 8},
    ], junctions: [{kind: "adjacent"}, {kind: "identified-xover", id: 12}, {kind: "prime3"}]},
    {id: 4, color: 0, domains: [
      {helix: 1, start: 8, end: 16},
      {helix: 0, start: 8, end: 16, forward: true},
    ]},
  ],
  scaffold_id: 3,
}`

func TestReadJSON5(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d, err := Read(strings.NewReader(json5Design))
	require.NoError(t, err)
	require.NoError(t, d.CheckConsistency())
	assert.Equal(t, 2, d.Helices.Len())
	h, _ := d.Helices.Get(1)
	assert.InDelta(t, 0.5, h.Roll, 1e-12)
	assert.Equal(t, ensnano.P(1, 1), h.Symmetry)
	assert.True(t, h.Visible)
	assert.Equal(t, []int{3, 4}, d.Strands.IDs())
	assert.Equal(t, []int{12, 13}, d.Xovers.IDs(), "ids from the file are kept")
	s, _ := d.Scaffold()
	assert.Equal(t, 18, s.Len())
	assert.Equal(t, Xover(12), s.Junctions[1])
	assert.Equal(t, DefaultParameters(), d.Parameters)
}

func TestReadErrors(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := Read(strings.NewReader("{helices: ["))
	assert.True(t, errors.Is(err, ErrBadFile))
	_, err = Read(strings.NewReader(`{strands: [{id: 0, domains: [{helix: 0, start: 0, end: 4, forward: true}],
		junctions: [{kind: "loop"}]}]}`))
	assert.Error(t, err)
	_, err = Read(strings.NewReader(`{strands: [{id: 0, domains: [{helix: 0, start: 0, end: 4, forward: true},
		{helix: 1, start: 0, end: 4}], junctions: [{kind: "identified-xover"}, {kind: "prime3"}]}]}`))
	assert.True(t, errors.Is(err, ErrBadFile), "crossover without id")
	_, err = Read(strings.NewReader(`{helices: [{id: 0, position: [0, 0, 0], orientation: [1, 0, 0, 0]}],
		strands: [{id: 0, domains: [{helix: 0, start: 0, end: 4, forward: true}, {insertion: -3}]}]}`))
	assert.True(t, errors.Is(err, ErrInvariant), "negative insertion")
}

func TestWriteReadRoundTrip(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	_, err := d.AddXover(Nucl{0, 4, true}, Nucl{1, 4, false})
	require.NoError(t, err)
	require.NoError(t, d.AddInsertion(Nucl{0, 2, true}, 4))
	require.NoError(t, d.SetScaffold(0))
	d.ScaffoldSequence, d.ScaffoldShift = "ACGT", 3
	gid := d.Grids.Push(NewGrid(ensnano.V(0, 0, 5), ensnano.IdentityRotor(), HoneycombGrid))
	_, err = d.AddHelixOnGrid(gid, 1, 1)
	require.NoError(t, err)
	iso := ensnano.Isometry(ensnano.P(2, 3), 0.5)
	h0, _ := d.Helices.Get(0)
	h0.Isometry2D = &iso
	//
	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	r, err := Read(&buf)
	require.NoError(t, err)
	require.NoError(t, r.CheckConsistency())
	assert.Equal(t, d.Strands.IDs(), r.Strands.IDs())
	d.Strands.Each(func(id int, s *Strand) {
		rs, _ := r.Strands.Get(id)
		assert.Equal(t, s.Domains, rs.Domains, "strand %d", id)
		assert.Equal(t, s.Junctions, rs.Junctions, "strand %d", id)
	})
	assert.Equal(t, d.Xovers.IDs(), r.Xovers.IDs())
	d.Helices.Each(func(id int, h *Helix) {
		rh, _ := r.Helices.Get(id)
		assert.InDelta(t, 0, ensnano.Dist(h.Position, rh.Position), 1e-12)
		assert.Equal(t, h.GridPosition, rh.GridPosition)
	})
	rh0, _ := r.Helices.Get(0)
	require.NotNil(t, rh0.Isometry2D)
	assert.Equal(t, iso, *rh0.Isometry2D)
	g, ok := r.Grids.Get(gid)
	require.True(t, ok)
	assert.Equal(t, HoneycombGrid, g.Kind)
	assert.Equal(t, 3, r.ScaffoldShift)
	assert.Equal(t, d.Sequences(), r.Sequences())
}

func TestSaveAndLoad(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := twoStrandDesign(t)
	path := filepath.Join(t.TempDir(), "design.ens")
	require.NoError(t, d.Save(path))
	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Strands.Len())
	_, err = Load(filepath.Join(t.TempDir(), "missing.ens"))
	assert.Error(t, err)
}
