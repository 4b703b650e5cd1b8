package mip

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarGridNamingAndOrder(t *testing.T) {
	m := NewModel("grid")
	x := m.IntegerVarGrid("X", 2, 3)
	g := m.BinaryVarGrid("G", 2, 3)

	require.Len(t, x, 2)
	require.Len(t, x[1], 3)
	assert.Equal(t, 12, m.NumVars())
	assert.Equal(t, 0, x[0][0].ID())
	assert.Equal(t, 5, x[1][2].ID())
	assert.Equal(t, 6, g[0][0].ID())

	info := m.Var(x[1][2])
	assert.Equal(t, "X_1_2", info.Name)
	assert.Equal(t, Integer, info.Type)
	assert.Equal(t, 0.0, info.Lower)
	assert.True(t, math.IsInf(info.Upper, 1))

	bin := m.Var(g[1][0])
	assert.Equal(t, "G_1_0", bin.Name)
	assert.Equal(t, Binary, bin.Type)
	assert.Equal(t, 1.0, bin.Upper)
}

func TestExprDropsZeroAndEvaluates(t *testing.T) {
	m := NewModel("expr")
	a := m.ContinuousVar("a", 0, 10)
	b := m.ContinuousVar("b", 0, 10)

	var e Expr
	e.Add(a, 2).Add(b, 0).Add(b, -1).AddConstant(3)
	assert.Len(t, e.Terms, 2)
	assert.Equal(t, 2*4.0-1*5+3, e.Eval([]float64{4, 5}))
	assert.Equal(t, map[int]float64{0: 2, 1: -1}, e.Coefficients())

	var sum Expr
	sum.AddExpr(e).AddExpr(e)
	assert.Equal(t, 2*e.Eval([]float64{1, 1}), sum.Eval([]float64{1, 1}))
}

func TestAddIndicatorRequiresBinary(t *testing.T) {
	m := NewModel("ind")
	x := m.IntegerVar("x", 0, math.Inf(1))
	g := m.BinaryVar("g")

	var e Expr
	e.Add(x, 1)
	require.Error(t, m.AddIndicator("bad", x, false, e, Equal, 0))
	require.NoError(t, m.AddIndicator("ok", g, false, e, Equal, 0))

	inds := m.Indicators()
	require.Len(t, inds, 1)
	assert.Equal(t, 0.0, inds[0].ActiveValue())
	assert.Equal(t, "ok", inds[0].Then.Name)
}

func TestForeignVariableRejected(t *testing.T) {
	other := NewModel("other")
	other.ContinuousVar("a", 0, 1)
	foreign := other.ContinuousVar("b", 0, 1)

	m := NewModel("m")
	m.ContinuousVar("a", 0, 1)
	var e Expr
	e.Add(foreign, 1)
	assert.Error(t, m.AddConstraint("c", e, LessEqual, 1))
	assert.Error(t, m.AddKPI("k", e))
}

func TestKPIRegistration(t *testing.T) {
	m := NewModel("kpi")
	x := m.ContinuousVar("x", 0, 1)
	var e Expr
	e.Add(x, 3)
	require.NoError(t, m.AddKPI("triple", e))
	assert.Error(t, m.AddKPI("triple", e))

	k, ok := m.KPI("triple")
	require.True(t, ok)
	assert.Equal(t, "triple", k.Name)
	_, ok = m.KPI("missing")
	assert.False(t, ok)
}

func TestNewSolutionEvaluatesObjectiveAndKPIs(t *testing.T) {
	m := NewModel("sol")
	x := m.IntegerVar("x", 0, 10)
	y := m.IntegerVar("y", 0, 10)
	var obj Expr
	obj.Add(x, 2).Add(y, 3).AddConstant(1)
	m.Minimize(obj)
	var k Expr
	k.Add(x, 1).Add(y, 1)
	require.NoError(t, m.AddKPI("total", k))

	sol := NewSolution(m, StatusOptimal, []float64{2, 4}, 7)
	assert.Equal(t, 17.0, sol.Objective)
	assert.Equal(t, 4.0, sol.Value(y))
	v, ok := sol.KPI("total")
	require.True(t, ok)
	assert.Equal(t, 6.0, v)
	assert.Equal(t, 7, sol.Nodes)

	empty := NewSolution(m, StatusInfeasible, nil, 3)
	assert.True(t, math.IsNaN(empty.Objective))
	assert.True(t, math.IsNaN(empty.Value(x)))
	assert.False(t, empty.Status.HasSolution())
}

func TestStatusErrAndText(t *testing.T) {
	assert.NoError(t, StatusOptimal.Err())
	assert.ErrorIs(t, StatusFeasible.Err(), ErrLimit)
	assert.ErrorIs(t, StatusInfeasible.Err(), ErrInfeasible)
	assert.ErrorIs(t, StatusUnbounded.Err(), ErrUnbounded)
	assert.ErrorIs(t, StatusError.Err(), ErrSolver)

	for st := StatusUnknown; st <= StatusError; st++ {
		b, err := st.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, st, back)
	}
	_, err := ParseStatus("bogus")
	assert.Error(t, err)
}

func TestModelSolveDelegates(t *testing.T) {
	m := NewModel("delegate")
	called := false
	s := SolverFunc(func(_ context.Context, got *Model) (*Solution, error) {
		called = got == m
		return NewSolution(got, StatusInfeasible, nil, 0), nil
	})
	sol, err := m.Solve(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StatusInfeasible, sol.Status)
}
