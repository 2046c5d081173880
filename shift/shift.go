/*
Package shift searches the rotation of the scaffold sequence which leaves
the fewest bad patterns in the staples.

A scaffold sequence of length M may start at any of M positions of the
scaffold strand. For every shift the staple sequences are read off the
scaffold and scored; runs of A/T and of G or C count against a shift,
long G/C runs far more than A/T runs. The search runs as a job on its own
goroutine, reporting progress and a final result on separate channels.

# BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package shift

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/npillmayer/ensnano/design"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ensnano.shift'
func tracer() tracing.Trace {
	return tracing.Select("ensnano.shift")
}

// Errors reported before the search starts
var (
	ErrEmptyScaffoldSequence = errors.New("scaffold sequence is empty")
	ErrNoScaffoldSet         = errors.New("no scaffold strand set")
	ErrStrandDoesNotExist    = errors.New("scaffold strand does not exist")
)

// Weights of the bad patterns.
const (
	WeightAT = 1
	WeightG4 = 100
	WeightG5 = 10_000
	WeightG6 = 1_000_000
)

// DefaultProgressEvery is the number of shifts between progress reports.
const DefaultProgressEvery = 100

// The lazy patterns count every complete run of 7 (resp. 4) once, so a run
// of 14 A/T counts twice.
var (
	badAT = regexp.MustCompile(`[AT]{7,}?`)
	badG4 = regexp.MustCompile(`G{4,}?|C{4,}?`)
	badG5 = regexp.MustCompile(`G{5,}|C{5,}`)
	badG6 = regexp.MustCompile(`G{6,}|C{6,}`)
)

// Counts holds the number of occurrences of each bad pattern.
type Counts struct {
	AT, G4, G5, G6 int
}

// Score weighs the counts.
func (c Counts) Score() int {
	return c.AT*WeightAT + c.G4*WeightG4 + c.G5*WeightG5 + c.G6*WeightG6
}

func (c *Counts) add(o Counts) {
	c.AT += o.AT
	c.G4 += o.G4
	c.G5 += o.G5
	c.G6 += o.G6
}

// Report is the human readable breakdown of the counts, one line per
// pattern found, or "No bad pattern".
func (c Counts) Report() string {
	if c.Score() == 0 {
		return "No bad pattern"
	}
	var b strings.Builder
	if c.G6 > 0 {
		fmt.Fprintf(&b, "%d times G^6 or C^6\n", c.G6)
	}
	if c.G5 > 0 {
		fmt.Fprintf(&b, "%d times G^5 or C^5\n", c.G5)
	}
	if c.G4 > 0 {
		fmt.Fprintf(&b, "%d times G^4 or C^4\n", c.G4)
	}
	if c.AT > 0 {
		fmt.Fprintf(&b, "%d times (A or T)^7\n", c.AT)
	}
	return b.String()
}

// CountPatterns counts the bad patterns of one staple sequence.
func CountPatterns(seq string) Counts {
	return Counts{
		AT: len(badAT.FindAllStringIndex(seq, -1)),
		G4: len(badG4.FindAllStringIndex(seq, -1)),
		G5: len(badG5.FindAllStringIndex(seq, -1)),
		G6: len(badG6.FindAllStringIndex(seq, -1)),
	}
}

// Result is the outcome of a search.
type Result struct {
	Shift  int
	Counts Counts
	Err    error
	Design uuid.UUID // snapshot the result was computed on
}

// Score is the weighted score of the winning shift.
func (r Result) Score() int { return r.Counts.Score() }

// Report is the breakdown of the winning shift.
func (r Result) Report() string { return r.Counts.Report() }

// Optimizer evaluates shifts of a scaffold sequence against one design.
// The pairing of staples with the scaffold is computed once.
type Optimizer struct {
	seq     string
	pairing *design.Pairing
}

// NewOptimizer prepares the search on d with the scaffold sequence of d.
func NewOptimizer(d *design.Design) (*Optimizer, error) {
	if d.ScaffoldID == nil {
		return nil, ErrNoScaffoldSet
	}
	if !d.Strands.Has(*d.ScaffoldID) {
		return nil, fmt.Errorf("%w: strand %d", ErrStrandDoesNotExist, *d.ScaffoldID)
	}
	if len(d.ScaffoldSequence) == 0 {
		return nil, ErrEmptyScaffoldSequence
	}
	pr, err := d.Pairing()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStrandDoesNotExist, err)
	}
	return &Optimizer{seq: strings.ToUpper(d.ScaffoldSequence), pairing: pr}, nil
}

// Len is the number of shifts to try.
func (o *Optimizer) Len() int {
	return len(o.seq)
}

// Evaluate counts the bad patterns of all staples for a shift.
func (o *Optimizer) Evaluate(shift int) Counts {
	var total Counts
	for i := range o.pairing.Staples {
		slots := &o.pairing.Staples[i]
		if len(slots.Partner) == 0 {
			continue
		}
		total.add(CountPatterns(o.pairing.Staple(slots, o.seq, shift)))
	}
	return total
}

// Run tries every shift in order, keeping the first one with the lowest
// score, and stops early at a score of 0. progress is called with the
// fraction of shifts done every progressEvery shifts; it may be nil.
// Run returns ctx.Err() if ctx is cancelled between two shifts.
func (o *Optimizer) Run(ctx context.Context, progressEvery int, progress func(float64)) (Result, error) {
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}
	best := Result{Shift: 0}
	bestScore := math.MaxInt
	n := o.Len()
	for s := 0; s < n; s++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		if s%progressEvery == 0 && progress != nil {
			progress(float64(s) / float64(n))
		}
		c := o.Evaluate(s)
		if score := c.Score(); score < bestScore {
			tracer().Debugf("shift %d score %d", s, score)
			bestScore = score
			best.Shift, best.Counts = s, c
		}
		if bestScore == 0 {
			tracer().Infof("shift %d leaves no bad pattern", s)
			break
		}
	}
	return best, nil
}

// Job is a search running on its own goroutine. Progress delivers the
// latest fraction of shifts done; older values are dropped if not read in
// time. Result delivers exactly one value and is closed afterwards.
type Job struct {
	progress chan float64
	result   chan Result
	cancel   context.CancelFunc
}

// Start launches the search on a snapshot. The snapshot's design must not
// be changed while the job runs.
func Start(ctx context.Context, snap design.Snapshot, progressEvery int) *Job {
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		progress: make(chan float64, 1),
		result:   make(chan Result, 1),
		cancel:   cancel,
	}
	go func() {
		defer close(job.result)
		defer close(job.progress)
		defer cancel()
		res := Result{Design: snap.ID}
		o, err := NewOptimizer(snap.Design)
		if err != nil {
			res.Err = err
			job.result <- res
			return
		}
		best, err := o.Run(ctx, progressEvery, job.publish)
		best.Design, best.Err = snap.ID, err
		job.result <- best
	}()
	return job
}

// publish replaces a pending progress value by f.
func (job *Job) publish(f float64) {
	for {
		select {
		case job.progress <- f:
			return
		default:
		}
		select {
		case <-job.progress:
		default:
		}
	}
}

// Progress is the channel of progress fractions.
func (job *Job) Progress() <-chan float64 { return job.progress }

// Result is the channel of the final result.
func (job *Job) Result() <-chan Result { return job.result }

// Cancel stops the search at the next shift. The job then delivers a
// result carrying context.Canceled.
func (job *Job) Cancel() { job.cancel() }

// Wait blocks until the job has finished and returns its result.
func (job *Job) Wait() Result {
	for range job.progress {
	}
	return <-job.result
}

// Apply sets the scaffold shift of d to the winning shift of r.
func Apply(d *design.Design, r Result) error {
	if r.Err != nil {
		return r.Err
	}
	d.ScaffoldShift = r.Shift
	return nil
}
