package config

import (
	"strings"
	"testing"

	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/ensnano/roller"
	"github.com/npillmayer/ensnano/shift"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settings(t *testing.T, yaml string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return FromViper(v)
}

func TestDefaults(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	c, err := settings(t, "")
	require.NoError(t, err)
	assert.Equal(t, "", c.Parameters)
	assert.True(t, c.Suggest.IncludeScaffold)
	assert.True(t, c.Suggest.IncludeIntraStrand)
	assert.False(t, c.Suggest.IncludeXoverEnds)
	assert.Equal(t, roller.DefaultMaxSteps, c.Roller.MaxSteps)
	assert.Equal(t, shift.DefaultProgressEvery, c.Shift.ProgressEvery)
	assert.Nil(t, c.Discretization.Inclination)
	p := c.HelixParameters(design.Geary2014RNA)
	assert.Equal(t, design.Geary2014RNA, p, "no preset keeps the parameters of a design")
	opts := c.DiscretizeOptions(p)
	assert.Equal(t, p.ZStep, opts.Step)
	assert.Equal(t, p.Inclination, opts.Inclination)
}

func TestSettingsFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	tests := []struct {
		name  string
		yaml  string
		check func(*testing.T, Config)
	}{
		{
			"preset",
			"parameters: ensnano-legacy\n",
			func(t *testing.T, c Config) {
				assert.Equal(t, design.LegacyENSnano, c.HelixParameters(design.Geary2014DNA))
			},
		},
		{
			"discretization",
			"discretization:\n  step: 0.5\n  nb-step: 20\n  inclination: 0\n  legacy: true\n",
			func(t *testing.T, c Config) {
				opts := c.DiscretizeOptions(design.Geary2014DNA)
				assert.Equal(t, 0.5, opts.Step)
				assert.Equal(t, 20, opts.NbStep)
				assert.Equal(t, 0.0, opts.Inclination, "explicit zero inclination")
				assert.True(t, opts.Legacy)
			},
		},
		{
			"suggest filters",
			"suggest:\n  include-scaffold: false\n  ignore-groups: true\n",
			func(t *testing.T, c Config) {
				assert.False(t, c.Suggest.IncludeScaffold)
				assert.True(t, c.Suggest.IncludeIntraStrand)
				assert.True(t, c.Suggest.IgnoreGroups)
			},
		},
		{
			"roller",
			"roller:\n  max-steps: 50\n",
			func(t *testing.T, c Config) {
				opts := c.RollerOptions([]int{3})
				assert.Equal(t, 50, opts.MaxSteps)
				assert.Equal(t, roller.DefaultDT, opts.DT)
				assert.Equal(t, []int{3}, opts.Targets)
			},
		},
		{
			"trace level",
			"trace-level: Debug\n",
			func(t *testing.T, c Config) {
				level, err := c.Level()
				require.NoError(t, err)
				assert.Equal(t, tracing.LevelDebug, level)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := settings(t, tt.yaml)
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestBadSettings(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	if _, err := settings(t, "parameters: b-dna\n"); err == nil {
		t.Errorf("expected unknown preset to be rejected")
	}
	_, err := settings(t, "trace-level: loud\n")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	c, err := settings(t, "parameters: geary2014-rna\n")
	require.NoError(t, err)
	d := design.New()
	d.Discretization.Legacy = true
	require.NoError(t, c.Apply(d))
	assert.Equal(t, design.Geary2014RNA, d.Parameters)
	assert.Equal(t, design.Geary2014RNA.ZStep, d.Discretization.Step)
	assert.True(t, d.Discretization.Legacy)
}
