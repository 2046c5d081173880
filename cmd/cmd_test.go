package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairedDesign writes a design with a scaffold 0:0..12→, a complementary
// staple and the given scaffold sequence.
func pairedDesign(t *testing.T, seq string) string {
	d := design.New()
	d.AddHelix(design.NewHelix(ensnano.V(0, 0, 0), ensnano.IdentityRotor()))
	sc, err := d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 12, Forward: true},
	}, false, 0))
	require.NoError(t, err)
	_, err = d.AddStrand(design.MustStrand([]design.Domain{
		design.HelixInterval{Helix: 0, Start: 0, End: 12},
	}, false, 0))
	require.NoError(t, err)
	require.NoError(t, d.SetScaffold(sc))
	d.ScaffoldSequence = seq
	path := filepath.Join(t.TempDir(), "paired.ens")
	require.NoError(t, d.Save(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestShiftCommand(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := pairedDesign(t, "CCCCCCATATAT")
	out, err := run(t, "shift", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Best shift: 9 (score 0)")
	assert.Contains(t, out, "No bad pattern")
	//
	fasta := filepath.Join(t.TempDir(), "scaffold.fasta")
	require.NoError(t, os.WriteFile(fasta, []byte(">scaffold\nGGGGGGGGGGGG\n"), 0o644))
	out, err = run(t, "shift", path, "--scaffold", fasta, "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "1 times G^6 or C^6")
	d, err := design.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GGGGGGGGGGGG", d.ScaffoldSequence, "the sequence read is saved with the shift")
}

func TestStaplesCommand(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := pairedDesign(t, "ACGTACGTACGT")
	out, err := run(t, "export", "staples", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Plate,Well Position,Name"))
	assert.True(t, strings.HasSuffix(lines[1], ",ACGTACGTACGT,12"))
}

func TestOxDNACommand(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := pairedDesign(t, "ACGTACGTACGT")
	base := filepath.Join(t.TempDir(), "paired")
	out, err := run(t, "export", "oxdna", path, "--out", base)
	require.NoError(t, err)
	assert.Contains(t, out, "24 nucleotides on 2 strands")
	top, err := os.ReadFile(base + ".top")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(top), "24 2\n"))
}

func TestImportCadnano(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	dir := t.TempDir()
	src := filepath.Join(dir, "tiny.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"name": "tiny", "vstrands": [{"num": 0, "row": 0, "col": 0,
		"scaf": [[-1,-1,0,1], [0,0,0,2], [0,1,-1,-1]],
		"stap": [[-1,-1,-1,-1], [-1,-1,-1,-1], [-1,-1,-1,-1]],
		"loop": [0, 0, 0], "skip": [0, 0, 0], "stap_colors": []}]}`), 0o644))
	out, err := run(t, "import", "cadnano", src)
	require.NoError(t, err)
	assert.Equal(t, "1 helices, 1 strands\n", out)
	d, err := design.Load(filepath.Join(dir, "tiny.ens"))
	require.NoError(t, err)
	scaffold, ok := d.Scaffold()
	require.True(t, ok)
	assert.Equal(t, 3, scaffold.Len())
}

func TestBadArguments(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := run(t, "shift")
	assert.Error(t, err, "missing design")
	_, err = run(t, "check", filepath.Join(t.TempDir(), "missing.ens"))
	assert.Error(t, err)
}

func TestDocs(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	dir := t.TempDir()
	_, err := run(t, "docs", dir)
	require.NoError(t, err)
	page, err := os.ReadFile(filepath.Join(dir, "ensnano_export.md"))
	require.NoError(t, err)
	if !strings.HasPrefix(string(page), "---\nlayout: default\ntitle: export\nparent: ensnano\n") {
		t.Errorf("unexpected page header:\n%s", page)
	}
	assert.FileExists(t, filepath.Join(dir, "ensnano_export_oxdna.md"))
}
