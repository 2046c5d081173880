package polyn

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

type res map[int]float64 // a variable resolver for testing purposes

func (r res) GetVariableName(n int) string { // get real-life name of x.i
	return string(rune(n + 96)) // 'a', 'b', ...
}

func (r res) SetVariableSolved(n int, v float64) { // message: x.i is solved
	r[n] = v // remember the value to assert test conditions
}

func mustAddEq(t *testing.T, leq *LinEqSolver, p Polynomial) {
	t.Helper()
	assert.NoError(t, leq.AddEq(p))
}

func TestLEQSingle(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	leq := NewLinEqSolver()
	r := res{}
	leq.SetVariableResolver(r)
	mustAddEq(t, leq, Must(New(6, X{1, -2}))) // 0 = 6 - 2a
	v, ok := leq.Solved(1)
	if !ok {
		t.Fatalf("expected a to be solved")
	}
	assert.InDelta(t, 3.0, v, 1e-9)
	assert.InDelta(t, 3.0, r[1], 1e-9)
}

func TestLEQIncremental(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	leq := NewLinEqSolver()
	mustAddEq(t, leq, Must(New(-10, X{1, 1}, X{2, 1}))) // a + b = 10
	if _, ok := leq.Solved(1); ok {
		t.Errorf("a must not be known after one equation")
	}
	mustAddEq(t, leq, Must(New(-2, X{1, 1}, X{2, -1}))) // a - b = 2
	a, _ := leq.Solved(1)
	b, _ := leq.Solved(2)
	assert.InDelta(t, 6.0, a, 1e-9)
	assert.InDelta(t, 4.0, b, 1e-9)
}

func TestLEQTridiagonal(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// 2a + b = 3, a + 4b + c = 6, b + 2c = 3  =>  a = b = c = 1
	leq := NewLinEqSolver()
	err := leq.AddEqs([]Polynomial{
		Must(New(-3, X{1, 2}, X{2, 1})),
		Must(New(-6, X{1, 1}, X{2, 4}, X{3, 1})),
		Must(New(-3, X{2, 1}, X{3, 2})),
	})
	assert.NoError(t, err)
	for i := 1; i <= 3; i++ {
		v, ok := leq.Solved(i)
		assert.True(t, ok)
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestLEQInconsistent(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	leq := NewLinEqSolver()
	mustAddEq(t, leq, Must(New(-1, X{1, 1}))) // a = 1
	err := leq.AddEq(Must(New(-2, X{1, 1})))  // a = 2
	if !errors.Is(err, ErrInconsistentEquation) {
		t.Fatalf("expected ErrInconsistentEquation, got %v", err)
	}
	assert.NoError(t, leq.AddEq(Must(New(-1, X{1, 1}))), "redundant equation is accepted")
	assert.True(t, errors.Is(leq.AddEqs(nil), ErrEmptyEquationList))
}
