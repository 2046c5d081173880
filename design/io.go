package design

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/curve"
	"github.com/titanous/json5"
	"gonum.org/v1/gonum/spatial/r3"
)

// FileVersion is written to every design file.
const FileVersion = "0.5.0"

// Design files hold collections as lists of elements carrying their id.
type designFile struct {
	Version          string             `json:"version"`
	Parameters       *Parameters        `json:"parameters,omitempty"`
	Helices          []helixFile        `json:"helices"`
	Strands          []strandFile       `json:"strands"`
	Grids            []gridFile         `json:"grids,omitempty"`
	BezierPaths      []bezierPathFile   `json:"bezier_paths,omitempty"`
	ScaffoldID       *int               `json:"scaffold_id,omitempty"`
	ScaffoldSequence string             `json:"scaffold_sequence,omitempty"`
	ScaffoldShift    int                `json:"scaffold_shift,omitempty"`
	Discretization   *discretizeOptions `json:"discretization,omitempty"`
}

type discretizeOptions struct {
	NbStep int  `json:"nb_step,omitempty"`
	Legacy bool `json:"legacy,omitempty"`
}

type helixFile struct {
	ID             int               `json:"id"`
	Position       [3]float64        `json:"position"`
	Orientation    [4]float64        `json:"orientation"` // real, i, j, k
	Isometry2D     *ensnano.AT       `json:"isometry2d,omitempty"`
	Symmetry       [2]float64        `json:"symmetry"`
	GridPosition   *GridPosition     `json:"grid_position,omitempty"`
	Roll           float64           `json:"roll"`
	DeltaBBPT      float64           `json:"delta_bbpt,omitempty"`
	Curve          *curve.Descriptor `json:"curve,omitempty"`
	PathID         *int              `json:"path_id,omitempty"`
	InitialNtIndex int               `json:"initial_nt_index,omitempty"`
	SupportHelix   *int              `json:"support_helix,omitempty"`
	Visible        *bool             `json:"visible,omitempty"`
	Locked         bool              `json:"locked_for_simulations,omitempty"`
}

type strandFile struct {
	ID        int            `json:"id"`
	Domains   []domainFile   `json:"domains"`
	Junctions []junctionFile `json:"junctions,omitempty"`
	Cyclic    bool           `json:"cyclic,omitempty"`
	Color     uint32         `json:"color"`
	Name      string         `json:"name,omitempty"`
	Sequence  string         `json:"sequence,omitempty"`
}

// domainFile is a helix interval, or an insertion if Insertion is set.
type domainFile struct {
	Helix            int    `json:"helix,omitempty"`
	Start            int    `json:"start,omitempty"`
	End              int    `json:"end,omitempty"`
	Forward          bool   `json:"forward,omitempty"`
	Sequence         string `json:"sequence,omitempty"`
	Insertion        *int   `json:"insertion,omitempty"`
	AttachedToPrime3 bool   `json:"attached_to_prime3,omitempty"`
}

type junctionFile struct {
	Kind string `json:"kind"`
	ID   *int   `json:"id,omitempty"`
}

type gridFile struct {
	ID          int          `json:"id"`
	Position    [3]float64   `json:"position"`
	Orientation [4]float64   `json:"orientation"`
	Kind        string       `json:"type"`
	Hyperboloid *Hyperboloid `json:"hyperboloid,omitempty"`
}

type bezierPathFile struct {
	Vertices []vertexFile `json:"vertices"`
	Cyclic   bool         `json:"cyclic,omitempty"`
	Section  string       `json:"section,omitempty"`
}

type vertexFile struct {
	Position  [3]float64  `json:"position"`
	VectorIn  *[3]float64 `json:"vector_in,omitempty"`
	VectorOut *[3]float64 `json:"vector_out,omitempty"`
}

func vec3(a [3]float64) r3.Vec { return ensnano.V(a[0], a[1], a[2]) }
func arr3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func rotor(a [4]float64) ensnano.Rotor {
	return ensnano.Rotor{Real: a[0], Imag: a[1], Jmag: a[2], Kmag: a[3]}.Normalized()
}
func arr4(r ensnano.Rotor) [4]float64 { return [4]float64{r.Real, r.Imag, r.Jmag, r.Kmag} }

func kindByName(name string) (GridKind, error) {
	for i, n := range gridKindNames {
		if n == name {
			return GridKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown grid type %q", ErrBadFile, name)
}

func junctionKindByName(name string) (JunctionKind, error) {
	for k := Adjacent; k <= Prime3; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown junction %q", ErrBadFile, name)
}

// Read loads a design in JSON or JSON5. Curves are discretized and
// crossovers identified, keeping the ids of the file.
func Read(r io.Reader) (*Design, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f designFile
	if err := json5.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	d := New()
	if f.Parameters != nil {
		d.Parameters = *f.Parameters
		d.Discretization.Step, d.Discretization.Inclination = d.Parameters.ZStep, d.Parameters.Inclination
	}
	if f.Discretization != nil {
		if f.Discretization.NbStep > 0 {
			d.Discretization.NbStep = f.Discretization.NbStep
		}
		d.Discretization.Legacy = f.Discretization.Legacy
	}
	for _, gf := range f.Grids {
		kind, err := kindByName(gf.Kind)
		if err != nil {
			return nil, err
		}
		g := NewGrid(vec3(gf.Position), rotor(gf.Orientation), kind)
		g.Hyperboloid = gf.Hyperboloid
		d.Grids.Put(gf.ID, g)
	}
	for _, pf := range f.BezierPaths {
		bp := &BezierPath{Cyclic: pf.Cyclic}
		if pf.Section != "" {
			if bp.Section, err = kindByName(pf.Section); err != nil {
				return nil, err
			}
		}
		for _, vf := range pf.Vertices {
			v := curve.Vertex{Position: vec3(vf.Position)}
			if vf.VectorIn != nil {
				in := vec3(*vf.VectorIn)
				v.VectorIn = &in
			}
			if vf.VectorOut != nil {
				out := vec3(*vf.VectorOut)
				v.VectorOut = &out
			}
			bp.Vertices = append(bp.Vertices, v)
		}
		d.BezierPaths = append(d.BezierPaths, bp)
	}
	for _, hf := range f.Helices {
		h := NewHelix(vec3(hf.Position), rotor(hf.Orientation))
		h.Isometry2D, h.GridPosition = hf.Isometry2D, hf.GridPosition
		if hf.Symmetry != [2]float64{} {
			h.Symmetry = ensnano.P(hf.Symmetry[0], hf.Symmetry[1])
		}
		h.Roll, h.DeltaBBPT, h.Curve, h.PathID = hf.Roll, hf.DeltaBBPT, hf.Curve, hf.PathID
		h.InitialNtIndex, h.SupportHelix, h.Locked = hf.InitialNtIndex, hf.SupportHelix, hf.Locked
		if hf.Visible != nil {
			h.Visible = *hf.Visible
		}
		d.Helices.Put(hf.ID, h)
	}
	for _, sf := range f.Strands {
		s, err := sf.strand()
		if err != nil {
			return nil, fmt.Errorf("strand %d: %w", sf.ID, err)
		}
		d.Strands.Put(sf.ID, s)
	}
	d.ScaffoldID, d.ScaffoldSequence, d.ScaffoldShift = f.ScaffoldID, f.ScaffoldSequence, f.ScaffoldShift
	if err := d.UpdateCurves(); err != nil {
		return nil, err
	}
	if err := d.IdentifyXovers(); err != nil {
		return nil, err
	}
	tracer().Infof("read design with %d helices, %d strands, %d crossovers",
		d.Helices.Len(), d.Strands.Len(), d.Xovers.Len())
	return d, nil
}

func (sf strandFile) strand() (*Strand, error) {
	s := &Strand{Cyclic: sf.Cyclic, Color: sf.Color, Name: sf.Name, Sequence: sf.Sequence}
	for _, df := range sf.Domains {
		if df.Insertion != nil {
			if *df.Insertion < 0 {
				return nil, fmt.Errorf("%w: insertion of %d nucleotides", ErrInvariant, *df.Insertion)
			}
			s.Domains = append(s.Domains, Insertion{
				NbNucl:           *df.Insertion,
				AttachedToPrime3: df.AttachedToPrime3,
				Sequence:         df.Sequence,
			})
			continue
		}
		s.Domains = append(s.Domains, HelixInterval{
			Helix: df.Helix, Start: df.Start, End: df.End, Forward: df.Forward, Sequence: df.Sequence,
		})
	}
	for _, jf := range sf.Junctions {
		kind, err := junctionKindByName(jf.Kind)
		if err != nil {
			return nil, err
		}
		j := Junction{Kind: kind}
		if kind == IdentifiedXover {
			if jf.ID == nil {
				return nil, fmt.Errorf("%w: crossover without id", ErrBadFile)
			}
			j.ID = *jf.ID
		}
		s.Junctions = append(s.Junctions, j)
	}
	if err := s.Sanitize(); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Write saves the design as indented JSON.
func (d *Design) Write(w io.Writer) error {
	p := d.Parameters
	f := designFile{
		Version:          FileVersion,
		Parameters:       &p,
		ScaffoldID:       d.ScaffoldID,
		ScaffoldSequence: d.ScaffoldSequence,
		ScaffoldShift:    d.ScaffoldShift,
		Discretization:   &discretizeOptions{NbStep: d.Discretization.NbStep, Legacy: d.Discretization.Legacy},
	}
	d.Grids.Each(func(id int, g *Grid) {
		f.Grids = append(f.Grids, gridFile{
			ID: id, Position: arr3(g.Position), Orientation: arr4(g.Orientation),
			Kind: g.Kind.String(), Hyperboloid: g.Hyperboloid,
		})
	})
	for _, bp := range d.BezierPaths {
		pf := bezierPathFile{Cyclic: bp.Cyclic, Section: bp.Section.String()}
		for _, v := range bp.Vertices {
			vf := vertexFile{Position: arr3(v.Position)}
			if v.VectorIn != nil {
				in := arr3(*v.VectorIn)
				vf.VectorIn = &in
			}
			if v.VectorOut != nil {
				out := arr3(*v.VectorOut)
				vf.VectorOut = &out
			}
			pf.Vertices = append(pf.Vertices, vf)
		}
		f.BezierPaths = append(f.BezierPaths, pf)
	}
	d.Helices.Each(func(id int, h *Helix) {
		visible := h.Visible
		f.Helices = append(f.Helices, helixFile{
			ID: id, Position: arr3(h.Position), Orientation: arr4(h.Orientation),
			Isometry2D: h.Isometry2D, Symmetry: [2]float64{h.Symmetry.X(), h.Symmetry.Y()},
			GridPosition: h.GridPosition, Roll: h.Roll, DeltaBBPT: h.DeltaBBPT, Curve: h.Curve,
			PathID: h.PathID, InitialNtIndex: h.InitialNtIndex, SupportHelix: h.SupportHelix,
			Visible: &visible, Locked: h.Locked,
		})
	})
	d.Strands.Each(func(id int, s *Strand) {
		sf := strandFile{ID: id, Cyclic: s.Cyclic, Color: s.Color, Name: s.Name, Sequence: s.Sequence}
		for _, dom := range s.Domains {
			switch x := dom.(type) {
			case HelixInterval:
				sf.Domains = append(sf.Domains, domainFile{
					Helix: x.Helix, Start: x.Start, End: x.End, Forward: x.Forward, Sequence: x.Sequence,
				})
			case Insertion:
				n := x.NbNucl
				sf.Domains = append(sf.Domains, domainFile{
					Insertion: &n, AttachedToPrime3: x.AttachedToPrime3, Sequence: x.Sequence,
				})
			}
		}
		for _, j := range s.Junctions {
			jf := junctionFile{Kind: j.Kind.String()}
			if j.Kind == IdentifiedXover {
				id := j.ID
				jf.ID = &id
			}
			sf.Junctions = append(sf.Junctions, jf)
		}
		f.Strands = append(f.Strands, sf)
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// Load reads a design file.
func Load(path string) (*Design, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Save writes a design file.
func (d *Design) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadScaffoldSequence reads a sequence in FASTA format or as plain text.
// Header and comment lines are skipped; only the first record is read.
func ReadScaffoldSequence(r io.Reader) (string, error) {
	var b strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	records := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ">") {
			if records++; records > 1 {
				break
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		for _, c := range strings.ToUpper(line) {
			switch c {
			case 'A', 'C', 'G', 'T', 'U', 'N':
				b.WriteRune(c)
			case ' ', '\t', '*':
			default:
				return "", fmt.Errorf("%w: invalid base %q in sequence", ErrBadFile, c)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty sequence", ErrBadFile)
	}
	return b.String(), nil
}
