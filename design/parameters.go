package design

import (
	"fmt"
	"math"
	"strings"
)

// Parameters are the geometric constants of a double helix. Lengths are in
// nanometers, angles in radians.
type Parameters struct {
	ZStep         float64 `json:"z_step" mapstructure:"z-step"`
	HelixRadius   float64 `json:"helix_radius" mapstructure:"helix-radius"`
	BasesPerTurn  float64 `json:"bases_per_turn" mapstructure:"bases-per-turn"`
	GrooveAngle   float64 `json:"groove_angle" mapstructure:"groove-angle"`
	InterHelixGap float64 `json:"inter_helix_gap" mapstructure:"inter-helix-gap"`
	Inclination   float64 `json:"inclination,omitempty" mapstructure:"inclination"`
}

// InterCenterGap is the distance between the axes of two neighbouring
// helices in the legacy model; newer presets keep it.
const InterCenterGap = 2*1.0 + 0.65

// Presets
var (
	// LegacyENSnano is the model of early designs, without inclination.
	LegacyENSnano = Parameters{
		ZStep:         0.332,
		HelixRadius:   1,
		BasesPerTurn:  10.44,
		GrooveAngle:   2 * math.Pi * 12 / 34,
		InterHelixGap: 0.65,
	}
	// Geary2014DNA is the default DNA model.
	Geary2014DNA = Parameters{
		ZStep:         0.332,
		HelixRadius:   0.93,
		BasesPerTurn:  10.44,
		GrooveAngle:   170.4 / 180 * math.Pi,
		Inclination:   0.375,
		InterHelixGap: InterCenterGap - 2*0.93,
	}
	// Geary2014RNA is an RNA model with a negative inclination.
	Geary2014RNA = Parameters{
		ZStep:         0.281,
		HelixRadius:   0.87,
		BasesPerTurn:  11,
		GrooveAngle:   139.9 / 180 * math.Pi,
		Inclination:   -0.745,
		InterHelixGap: InterCenterGap - 2*0.87,
	}
)

// DefaultParameters returns Geary2014DNA.
func DefaultParameters() Parameters {
	return Geary2014DNA
}

// NamedParameters lists the presets by their configuration names.
var NamedParameters = []struct {
	Name  string
	Value Parameters
}{
	{"ensnano-legacy", LegacyENSnano},
	{"geary2014-dna", Geary2014DNA},
	{"geary2014-rna", Geary2014RNA},
}

// ParametersByName looks up a preset.
func ParametersByName(name string) (Parameters, error) {
	for _, np := range NamedParameters {
		if np.Name == name {
			return np.Value, nil
		}
	}
	return Parameters{}, fmt.Errorf("%w: no parameter preset %q", ErrNotFound, name)
}

// Name returns the name of the closest preset.
func (p Parameters) Name() string {
	best, delta := NamedParameters[0].Name, math.Inf(1)
	for _, np := range NamedParameters {
		if d := p.distance(np.Value); d < delta {
			best, delta = np.Name, d
		}
	}
	return best
}

func (p Parameters) distance(q Parameters) float64 {
	return math.Abs(p.Inclination-q.Inclination) +
		math.Abs(p.HelixRadius-q.HelixRadius) +
		math.Abs(p.InterHelixGap-q.InterHelixGap) +
		math.Abs(p.GrooveAngle-q.GrooveAngle) +
		math.Abs(p.ZStep-q.ZStep) +
		math.Abs(p.BasesPerTurn-q.BasesPerTurn)
}

// Spacing is the distance between the axes of two neighbouring helices.
func (p Parameters) Spacing() float64 {
	return 2*p.HelixRadius + p.InterHelixGap
}

// DistAC2 is the distance between two consecutive nucleotides of a strand,
// projected on a section of the helix.
func (p Parameters) DistAC2() float64 {
	return math.Sqrt2 * math.Sqrt(1-math.Cos(2*math.Pi/p.BasesPerTurn)) * p.HelixRadius
}

// DistAC is the distance between two consecutive nucleotides of a strand,
// which is also the ideal length of a crossover.
func (p Parameters) DistAC() float64 {
	d2 := p.DistAC2()
	return math.Sqrt(d2*d2 + p.ZStep*p.ZStep)
}

func (p Parameters) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Radius: %.3f nm\n", p.HelixRadius)
	fmt.Fprintf(&b, "  Rise: %.3f nm\n", p.ZStep)
	fmt.Fprintf(&b, "  Inclination %.3f nm\n", p.Inclination)
	fmt.Fprintf(&b, "  Helicity: %.2f bp\n", p.BasesPerTurn)
	fmt.Fprintf(&b, "  Axis: %.1f°\n", p.GrooveAngle*180/math.Pi)
	fmt.Fprintf(&b, "  Inter helix gap: %.2f nm\n", p.InterHelixGap)
	fmt.Fprintf(&b, " Expected xover length: %.2f nm\n", p.DistAC())
	return b.String()
}
