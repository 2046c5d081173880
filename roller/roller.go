/*
Package roller turns helices around their axes until the crossovers of a
design have their ideal length.

Every crossover acts as a linear spring between its two backbone
positions. The torque the spring exerts on a helix is its force projected
onto the tangent of the helix's circle at the nucleotide. Roll angles and
angular velocities are integrated with explicit Euler steps and viscous
damping.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package roller

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/npillmayer/ensnano"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'ensnano.roller'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.roller")
}

// Physical constants of the simulation.
const (
	MassHelix = 2.
	KSpring   = 1000.
	Friction  = 100.
)

// Defaults of the integration.
const (
	DefaultDT       = 1e-3
	DefaultMaxSteps = 10000
	Stable          = 0.1 // largest gradient of a stabilized system
)

// System is the state of the simulation: one roll, speed and acceleration
// per helix.
type System struct {
	params   design.Parameters
	ids      []int
	helices  []*design.Helix
	index    map[int]int
	xovers   []design.XoverPair
	speed    []float64
	accel    []float64
	mustRoll []float64
}

// NewSystem builds the system on the helices of d. d is modified by the
// simulation; pass a clone to keep it. Without targets every helix rolls,
// otherwise only the target helices do.
func NewSystem(d *design.Design, targets []int) (*System, error) {
	sys := &System{
		params: d.Parameters,
		index:  make(map[int]int, d.Helices.Len()),
	}
	d.Helices.Each(func(id int, h *design.Helix) {
		sys.index[id] = len(sys.ids)
		sys.ids = append(sys.ids, id)
		sys.helices = append(sys.helices, h)
	})
	n := len(sys.ids)
	sys.speed = make([]float64, n)
	sys.accel = make([]float64, n)
	sys.mustRoll = make([]float64, n)
	if len(targets) == 0 {
		floats.AddConst(1, sys.mustRoll)
	}
	for _, t := range targets {
		i, ok := sys.index[t]
		if !ok {
			return nil, fmt.Errorf("%w: %d", design.ErrNoSuchHelix, t)
		}
		sys.mustRoll[i] = 1
	}
	d.Xovers.Each(func(id int, xp design.XoverPair) {
		_, ok1 := sys.index[xp.Prime5.Helix]
		_, ok2 := sys.index[xp.Prime3.Helix]
		if !ok1 || !ok2 {
			tracer().Infof("crossover %d links a missing helix, ignored", id)
			return
		}
		sys.xovers = append(sys.xovers, xp)
	})
	tracer().Debugf("roll system with %d helices and %d crossovers", n, len(sys.xovers))
	return sys, nil
}

// tangent is the derivative of the position of a nucleotide with respect
// to the roll of its helix, for a unit radius. On a curved helix it is
// taken in the frame of the curve at the nucleotide.
func (sys *System) tangent(h *design.Helix, n design.Nucl) r3.Vec {
	if t, ok := sys.curveTangent(h, n); ok {
		return t
	}
	theta := h.Theta(sys.params, n.Position+h.InitialNtIndex, n.Forward)
	sin, cos := math.Sincos(theta)
	return h.Orientation.Rotate(ensnano.V(0, cos, -sin))
}

func (sys *System) curveTangent(h *design.Helix, n design.Nucl) (r3.Vec, bool) {
	disc, ok := h.Discretized()
	if !ok {
		return r3.Vec{}, false
	}
	idx := n.Position + h.InitialNtIndex
	if _, ok := disc.AxisAt(idx, n.Forward); !ok {
		return r3.Vec{}, false
	}
	// a quarter turn ahead minus a quarter turn behind
	ahead := h.ShiftedSpacePos(sys.params, n.Position, n.Forward, math.Pi/2)
	behind := h.ShiftedSpacePos(sys.params, n.Position, n.Forward, -math.Pi/2)
	t := r3.Sub(ahead, behind)
	norm := r3.Norm(t)
	if norm < ensnano.Epsilon {
		return r3.Vec{}, false
	}
	return r3.Scale(1/norm, t), true
}

// torques returns the torques exerted by a crossover on its two helices.
func (sys *System) torques(xp design.XoverPair) (float64, float64) {
	h1 := sys.helices[sys.index[xp.Prime5.Helix]]
	h2 := sys.helices[sys.index[xp.Prime3.Helix]]
	p1 := h1.SpacePos(sys.params, xp.Prime5.Position, xp.Prime5.Forward)
	p2 := h2.SpacePos(sys.params, xp.Prime3.Position, xp.Prime3.Forward)
	dist := r3.Norm(r3.Sub(p2, p1))
	if dist < ensnano.Epsilon {
		return 0, 0
	}
	norm := KSpring * (dist - sys.params.DistAC()) / dist
	t1 := norm * r3.Dot(sys.tangent(h1, xp.Prime5), r3.Sub(p2, p1))
	t2 := norm * r3.Dot(sys.tangent(h2, xp.Prime3), r3.Sub(p1, p2))
	return t1, t2
}

func (sys *System) updateAcceleration() {
	for i := range sys.accel {
		sys.accel[i] = -sys.speed[i] * Friction / MassHelix
	}
	for _, xp := range sys.xovers {
		i1, i2 := sys.index[xp.Prime5.Helix], sys.index[xp.Prime3.Helix]
		t1, t2 := sys.torques(xp)
		sys.accel[i1] += t1 / MassHelix * sys.mustRoll[i1]
		sys.accel[i2] += t2 / MassHelix * sys.mustRoll[i2]
	}
}

// Step performs one Euler step of length dt and returns the gradient, the
// largest absolute acceleration or speed before the step.
func (sys *System) Step(dt float64) float64 {
	sys.updateAcceleration()
	grad := 0.
	if len(sys.accel) > 0 {
		grad = math.Max(floats.Norm(sys.accel, math.Inf(1)), floats.Norm(sys.speed, math.Inf(1)))
	}
	floats.AddScaled(sys.speed, dt, sys.accel)
	for i, h := range sys.helices {
		h.AddRoll(sys.speed[i] * dt)
	}
	return grad
}

// Rolls returns the roll of every helix.
func (sys *System) Rolls() map[int]float64 {
	rolls := make(map[int]float64, len(sys.ids))
	for i, id := range sys.ids {
		rolls[id] = sys.helices[i].Roll
	}
	return rolls
}

// XoverMismatch is the largest difference between the length of a
// crossover and the ideal length.
func (sys *System) XoverMismatch() float64 {
	worst := 0.
	for _, xp := range sys.xovers {
		h1 := sys.helices[sys.index[xp.Prime5.Helix]]
		h2 := sys.helices[sys.index[xp.Prime3.Helix]]
		dist := ensnano.Dist(h1.SpacePos(sys.params, xp.Prime5.Position, xp.Prime5.Forward),
			h2.SpacePos(sys.params, xp.Prime3.Position, xp.Prime3.Forward))
		worst = math.Max(worst, math.Abs(dist-sys.params.DistAC()))
	}
	return worst
}

// State is published after every step.
type State struct {
	Step       int
	Rolls      map[int]float64
	Grad       float64
	Stabilized bool
	Design     uuid.UUID // snapshot the simulation runs on
}

// Options of a simulation.
type Options struct {
	Targets  []int   // helices allowed to roll, all if empty
	MaxSteps int     // 0 for DefaultMaxSteps
	DT       float64 // 0 for DefaultDT
}

func (opts Options) normalized() Options {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.DT <= 0 {
		opts.DT = DefaultDT
	}
	return opts
}

// Solve steps the system until it is stabilized, opts.MaxSteps is reached
// or ctx is cancelled. publish, if not nil, receives the state after every
// step.
func (sys *System) Solve(ctx context.Context, opts Options, publish func(State)) (State, error) {
	opts = opts.normalized()
	var st State
	for step := 1; step <= opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		grad := sys.Step(opts.DT)
		st = State{Step: step, Rolls: sys.Rolls(), Grad: grad, Stabilized: grad < Stable}
		if publish != nil {
			publish(st)
		}
		if st.Stabilized {
			tracer().Infof("rolls stabilized after %d steps", step)
			break
		}
	}
	return st, nil
}

// Job is a simulation running on its own goroutine. States delivers the
// latest state; the consumer may miss intermediate ones. The channel is
// closed when the simulation ends.
type Job struct {
	states chan State
	done   chan struct{}
	last   State
	err    error
	cancel context.CancelFunc
}

// Start launches a simulation on a snapshot. The helices of the snapshot
// are rolled in place.
func Start(ctx context.Context, snap design.Snapshot, opts Options) *Job {
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		states: make(chan State, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(job.done)
		defer close(job.states)
		defer cancel()
		sys, err := NewSystem(snap.Design, opts.Targets)
		if err != nil {
			job.err = err
			return
		}
		job.last, job.err = sys.Solve(ctx, opts, func(st State) {
			st.Design = snap.ID
			job.publish(st)
		})
		job.last.Design = snap.ID
	}()
	return job
}

// publish replaces a pending state by st.
func (job *Job) publish(st State) {
	for {
		select {
		case job.states <- st:
			return
		default:
		}
		select {
		case <-job.states:
		default:
		}
	}
}

// States is the channel of simulation states.
func (job *Job) States() <-chan State { return job.states }

// Cancel stops the simulation after the current step.
func (job *Job) Cancel() { job.cancel() }

// Wait blocks until the simulation has ended and returns the last state.
// A cancelled simulation returns context.Canceled.
func (job *Job) Wait() (State, error) {
	for range job.states {
	}
	<-job.done
	return job.last, job.err
}

// Apply sets the rolls of a state on the helices of d.
func Apply(d *design.Design, st State) error {
	for id, roll := range st.Rolls {
		h, ok := d.Helices.Get(id)
		if !ok {
			return fmt.Errorf("%w: %d", design.ErrNoSuchHelix, id)
		}
		h.SetRoll(roll)
	}
	return nil
}
