/*
Package config holds the application wide settings, unmarshalled from Viper
(see package cmd). Settings come from defaults, an optional settings file
and command line flags, in increasing order of precedence.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/npillmayer/ensnano/curve"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/ensnano/roller"
	"github.com/npillmayer/ensnano/shift"
	"github.com/npillmayer/ensnano/suggest"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/viper"
)

// Tracers are the trace keys of the packages of this module.
var Tracers = []string{
	"ensnano",
	"ensnano.equations",
	"ensnano.jhobby",
	"ensnano.polygon",
	"ensnano.curve",
	"ensnano.design",
	"ensnano.shift",
	"ensnano.suggest",
	"ensnano.roller",
	"ensnano.export",
	"ensnano.cadnano",
}

// DiscretizationConfig are the settings of curve discretization.
type DiscretizationConfig struct {
	// arc length between nucleotides, 0 for the rise of the helix model
	Step float64 `mapstructure:"step"`

	// parameter sub-steps per nucleotide
	NbStep int `mapstructure:"nb-step"`

	// inclination of backward nucleotides, nil for the helix model's
	Inclination *float64 `mapstructure:"inclination"`

	// use the walk of old designs
	Legacy bool `mapstructure:"legacy"`
}

// RollerConfig are the settings of roll simulations.
type RollerConfig struct {
	MaxSteps int     `mapstructure:"max-steps"`
	DT       float64 `mapstructure:"dt"`
}

// ShiftConfig are the settings of the scaffold shift search.
type ShiftConfig struct {
	// report progress every n shifts
	ProgressEvery int `mapstructure:"progress-every"`
}

// Config is the root-level settings struct.
type Config struct {
	// name of a helix parameter preset; empty keeps the parameters of a design
	Parameters string `mapstructure:"parameters"`

	Discretization DiscretizationConfig `mapstructure:"discretization"`
	Suggest        suggest.Parameters   `mapstructure:"suggest"`
	Roller         RollerConfig         `mapstructure:"roller"`
	Shift          ShiftConfig          `mapstructure:"shift"`

	// one of error, info, debug
	TraceLevel string `mapstructure:"trace-level"`
}

// SetDefaults registers the default settings with v.
func SetDefaults(v *viper.Viper) {
	opts := curve.DefaultDiscretizeOptions()
	sp := suggest.DefaultParameters()
	v.SetDefault("parameters", "")
	v.SetDefault("discretization.step", 0.0)
	v.SetDefault("discretization.nb-step", opts.NbStep)
	v.SetDefault("discretization.legacy", false)
	v.SetDefault("suggest.include-scaffold", sp.IncludeScaffold)
	v.SetDefault("suggest.include-intra-strand", sp.IncludeIntraStrand)
	v.SetDefault("suggest.include-xover-ends", sp.IncludeXoverEnds)
	v.SetDefault("suggest.ignore-groups", sp.IgnoreGroups)
	v.SetDefault("roller.max-steps", roller.DefaultMaxSteps)
	v.SetDefault("roller.dt", roller.DefaultDT)
	v.SetDefault("shift.progress-every", shift.DefaultProgressEvery)
	v.SetDefault("trace-level", "error")
}

func init() {
	SetDefaults(viper.GetViper())
}

// FromViper unmarshals the settings of v.
func FromViper(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode settings: %w", err)
	}
	if c.Parameters != "" {
		if _, err := design.ParametersByName(c.Parameters); err != nil {
			return c, err
		}
	}
	if _, err := c.Level(); err != nil {
		return c, err
	}
	return c, nil
}

// NewConfig returns the settings of the global Viper instance.
func NewConfig() Config {
	c, err := FromViper(viper.GetViper())
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

// HelixParameters returns the configured preset, or fallback if no preset
// is configured.
func (c Config) HelixParameters(fallback design.Parameters) design.Parameters {
	if c.Parameters == "" {
		return fallback
	}
	p, err := design.ParametersByName(c.Parameters)
	if err != nil {
		tracing.Select("ensnano.design").Errorf("%v", err)
		return fallback
	}
	return p
}

// DiscretizeOptions derives discretization options for helix model p.
func (c Config) DiscretizeOptions(p design.Parameters) curve.DiscretizeOptions {
	opts := curve.DefaultDiscretizeOptions()
	opts.Step, opts.Inclination = p.ZStep, p.Inclination
	if c.Discretization.Step > 0 {
		opts.Step = c.Discretization.Step
	}
	if c.Discretization.NbStep > 0 {
		opts.NbStep = c.Discretization.NbStep
	}
	if c.Discretization.Inclination != nil {
		opts.Inclination = *c.Discretization.Inclination
	}
	opts.Legacy = c.Discretization.Legacy
	return opts
}

// RollerOptions are the simulation options for targets.
func (c Config) RollerOptions(targets []int) roller.Options {
	return roller.Options{Targets: targets, MaxSteps: c.Roller.MaxSteps, DT: c.Roller.DT}
}

// Apply sets helix model and discretization of d and rediscretizes its
// curved helices. A design discretized with the legacy walk keeps it.
func (c Config) Apply(d *design.Design) error {
	legacy := d.Discretization.Legacy
	d.Parameters = c.HelixParameters(d.Parameters)
	d.Discretization = c.DiscretizeOptions(d.Parameters)
	d.Discretization.Legacy = d.Discretization.Legacy || legacy
	return d.UpdateCurves()
}

// Level parses the trace level.
func (c Config) Level() (tracing.TraceLevel, error) {
	switch strings.ToLower(c.TraceLevel) {
	case "", "error":
		return tracing.LevelError, nil
	case "info":
		return tracing.LevelInfo, nil
	case "debug":
		return tracing.LevelDebug, nil
	}
	return tracing.LevelError, fmt.Errorf("unknown trace level %q", c.TraceLevel)
}

// SetTraceLevel sets the trace level of all tracers of this module.
func (c Config) SetTraceLevel() {
	level, _ := c.Level()
	for _, key := range Tracers {
		tracing.Select(key).SetTraceLevel(level)
	}
}
