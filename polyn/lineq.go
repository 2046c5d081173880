package polyn

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/ensnano"
)

var (
	// ErrEmptyEquationList indicates no equations were supplied to AddEqs.
	ErrEmptyEquationList = errors.New("empty list of equations")
	// ErrInconsistentEquation indicates an equation reduced to 0 = c with c != 0.
	ErrInconsistentEquation = errors.New("inconsistent equation")
)

/*
----------------------------------------------------------------------

Objects for solving systems of linear equations (LEQ).

Equations are linear polynomials read as 0 = p, where key i > 0 of p
denotes the variable x.i and key 0 the constant. Equations may be added
one at a time; after each one, every variable determined by the system
so far is known. The elimination scheme follows MetaFont's: each new
equation is solved for its free variable with the largest coefficient,
and the result is substituted into all dependent equations.
*/

// LinEqSolver is a container for linear equations. Used to incrementally solve
// systems of linear equations.
type LinEqSolver struct {
	dependents  map[int]Polynomial // x.i = p(i), p free of x.i and of solved variables
	solved      map[int]float64    // x.i = c
	varresolver VariableResolver   // to resolve variable names from term positions
}

// NewLinEqSolver creates a new system of linear equations.
func NewLinEqSolver() *LinEqSolver {
	return &LinEqSolver{
		dependents: make(map[int]Polynomial),
		solved:     make(map[int]float64),
	}
}

// SetVariableResolver sets a variable resolver. Within the LEQ variables are
// encoded by their serial ID, i.e. by the term key i.
func (leq *LinEqSolver) SetVariableResolver(resolver VariableResolver) {
	leq.varresolver = resolver
}

// Solved returns the value of x.i, if the system determines it.
func (leq *LinEqSolver) Solved(i int) (float64, bool) {
	c, ok := leq.solved[i]
	return c, ok
}

// SolvedCount is the number of determined variables.
func (leq *LinEqSolver) SolvedCount() int {
	return len(leq.solved)
}

// AddEqs adds a set of linear equations to the LEQ system.
// See AddEq.
func (leq *LinEqSolver) AddEqs(plist []Polynomial) error {
	if len(plist) == 0 {
		T().Errorf("given empty list of equations")
		return ErrEmptyEquationList
	}
	for i, p := range plist {
		T().Debugf("adding equation %d/%d: 0 = %s", i+1, len(plist), leq.PolynString(p))
		if err := leq.AddEq(p); err != nil {
			return err
		}
	}
	return nil
}

// AddEq adds a new equation 0 = p to a system of linear equations.
// Immediately solves the -- possibly incomplete -- system as far as possible.
func (leq *LinEqSolver) AddEq(p Polynomial) error {
	p = leq.reduce(p.CopyPolynomial().Zap())
	T().P("op", "new equation").Debugf("0 = %s", leq.PolynString(p))
	if c, isconst := p.IsConstant(); isconst {
		if !ensnano.Is0(c) {
			return fmt.Errorf("%w: 0 = %s (off by %g)", ErrInconsistentEquation, leq.PolynString(p), c)
		}
		return nil // redundant
	}
	i, a := p.maxCoeff()
	rhs := p.SetTerm(i, 0).Zap().Scale(-1 / a) // x.i = -1/a * (p - a x.i)
	leq.dependents[i] = rhs
	for j, q := range leq.dependents {
		if j != i {
			leq.dependents[j] = substitute(q, i, rhs)
		}
	}
	leq.harvestSolved()
	return nil
}

// reduce replaces every solved and dependent variable in p.
func (leq *LinEqSolver) reduce(p Polynomial) Polynomial {
	for _, i := range p.Exponents() {
		if i == 0 {
			continue
		}
		if c, ok := leq.solved[i]; ok {
			p = substitute(p, i, NewConstantPolynomial(c))
		} else if q, ok := leq.dependents[i]; ok {
			p = substitute(p, i, q)
		}
	}
	return p
}

// harvestSolved moves dependents with constant right hand side to the set
// of solved variables, until no more can be moved.
func (leq *LinEqSolver) harvestSolved() {
	for changed := true; changed; {
		changed = false
		for _, i := range sortedKeys(leq.dependents) {
			q := leq.dependents[i]
			c, isconst := q.IsConstant()
			if !isconst {
				continue
			}
			delete(leq.dependents, i)
			leq.setSolved(i, ensnano.Round(c))
			for j, r := range leq.dependents {
				leq.dependents[j] = substitute(r, i, NewConstantPolynomial(c))
			}
			changed = true
		}
	}
}

// substitute replaces x.i in p by q.
func substitute(p Polynomial, i int, q Polynomial) Polynomial {
	a := p.Coeff(i)
	if ensnano.Is0(a) {
		return p
	}
	p = p.CopyPolynomial()
	p.Terms.Remove(i)
	return p.Add(q.Scale(a))
}

// maxCoeff finds the variable with the coefficient of maximum absolute value.
func (p Polynomial) maxCoeff() (int, float64) {
	var maxp int
	var maxc, coeff float64
	for _, i := range p.Exponents() {
		if i == 0 {
			continue
		}
		if c := p.Coeff(i); math.Abs(c) > maxc {
			maxc, maxp, coeff = math.Abs(c), i, c
		}
	}
	return maxp, coeff
}

// Mark a variable as solved. Sends a message to the variable resolver.
func (leq *LinEqSolver) setSolved(i int, c float64) {
	T().P("var", leq.VarString(i)).Debugf("#### %s = %g", leq.VarString(i), c)
	leq.solved[i] = c
	if leq.varresolver != nil {
		leq.varresolver.SetVariableSolved(i, c)
	}
}

// VarString returns a readable variable name for an internal variable.
// Uses a VariableResolver, if present.
func (leq *LinEqSolver) VarString(i int) string {
	return TraceStringVar(i, leq.varresolver)
}

// PolynString outputs a polynomial as string. Uses VariableResolver, if present.
func (leq *LinEqSolver) PolynString(p Polynomial) string {
	return p.TraceString(leq.varresolver)
}

func sortedKeys(m map[int]Polynomial) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
