package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// smallDesign: scaffold 0:0..8→ with sequence, staple ←0:0..8 with an
// insertion of 2 in the middle, and a cyclic strand on helix 1.
func smallDesign(t *testing.T) *design.Design {
	d := design.New()
	d.AddHelix(design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	d.AddHelix(design.NewHelix(ensnano.V(0, 5, 0), ensnano.IdentityRotor()))
	sc, err := d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 8, Forward: true},
	}, false, 0))
	require.NoError(t, err)
	_, err = d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 4, End: 8},
		design.Insertion{NbNucl: 2},
		design.HelixInterval{Helix: 0, Start: 0, End: 4},
	}, false, 0))
	require.NoError(t, err)
	_, err = d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 1, Start: 0, End: 3, Forward: true},
	}, true, 0))
	require.NoError(t, err)
	require.NoError(t, d.SetScaffold(sc))
	d.ScaffoldSequence = "ACGTACGT"
	return d
}

func TestOxDNATopology(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := smallDesign(t)
	ox, err := ToOxDNA(d)
	require.NoError(t, err)
	assert.Equal(t, 3, ox.NbStrands)
	require.Len(t, ox.Nucls, 8+10+3)
	s, _ := d.Strands.Get(1)
	assert.True(t, s.HasInsertions(), "the design is not changed")
	//
	assert.Equal(t, Bond{Strand: 1, Base: 'A', Prime5: -1, Prime3: 1}, ox.Bonds[0])
	assert.Equal(t, Bond{Strand: 1, Base: 'T', Prime5: 6, Prime3: -1}, ox.Bonds[7])
	assert.Equal(t, Bond{Strand: 2, Base: 'A', Prime5: -1, Prime3: 9}, ox.Bonds[8])
	assert.Equal(t, byte(DefaultBase), ox.Bonds[12].Base, "insertion nucleotides have no partner")
	assert.Equal(t, 20, ox.Bonds[18].Prime5, "cyclic strand closes")
	assert.Equal(t, 18, ox.Bonds[20].Prime3)
	//
	var buf bytes.Buffer
	require.NoError(t, ox.WriteTopology(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 22)
	assert.Equal(t, "21 3", lines[0])
	assert.Equal(t, "1 A -1 1", lines[1])
	assert.Equal(t, "3 T 20 19", lines[19])
}

func TestOxDNAConfiguration(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := smallDesign(t)
	ox, err := ToOxDNA(d)
	require.NoError(t, err)
	h0, _ := d.Helices.Get(0)
	n := ox.Nucls[2]
	backbone := h0.SpacePos(d.Parameters, 2, true)
	cm := r3.Add(r3.Scale(OxDNALenFactor, backbone), r3.Scale(BackboneToCM, n.BackboneBase))
	assert.InDelta(t, 0, ensnano.Dist(cm, n.Position), 1e-9)
	assert.InDelta(t, 1, r3.Norm(n.BackboneBase), 1e-9)
	assert.InDelta(t, 1, n.Normal.X, 1e-9, "forward normal along the axis")
	assert.InDelta(t, -1, ox.Nucls[8].Normal.X, 1e-9, "backward normal against the axis")
	for i, n := range ox.Nucls {
		assert.InDelta(t, 1, r3.Norm(n.BackboneBase), 1e-6, "nucleotide %d", i)
	}
	//
	var buf bytes.Buffer
	require.NoError(t, ox.WriteConfiguration(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3+21)
	assert.Equal(t, "t = 0", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "b = "))
	assert.Equal(t, "E = 0 0 0", lines[2])
	assert.Len(t, strings.Fields(lines[3]), 15)
	assert.True(t, strings.HasSuffix(lines[3], " 0 0 0 0 0 0"))
	//
	base := filepath.Join(t.TempDir(), "small")
	require.NoError(t, ox.Save(base))
}

func TestWells(t *testing.T) {
	plate, well := Well(0)
	assert.Equal(t, 1, plate)
	assert.Equal(t, "A1", well)
	_, well = Well(9)
	assert.Equal(t, "B2", well)
	plate, well = Well(95)
	assert.Equal(t, 1, plate)
	assert.Equal(t, "H12", well)
	plate, well = Well(96)
	assert.Equal(t, 2, plate)
	assert.Equal(t, "A1", well)
}

func TestStaples(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	d := smallDesign(t)
	staples := Staples(d)
	require.Len(t, staples, 2, "the scaffold is not a staple")
	st := staples[0]
	assert.Equal(t, 1, st.ID)
	assert.Equal(t, "Staple 0001; 5':h0:nt7>3':h0:nt0", st.Name)
	assert.Equal(t, "ACGT??ACGT", st.Sequence)
	assert.Equal(t, 10, st.Len())
	assert.Equal(t, "A1", st.Well)
	assert.Equal(t, "B1", staples[1].Well)
	//
	var buf bytes.Buffer
	require.NoError(t, WriteStaplesCSV(&buf, staples))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "A1", st.Name, "h0:nt7", "h0:nt0", "ACGT??ACGT", "10"}, rows[1])
}
