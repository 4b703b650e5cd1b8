package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clsprm/core/mip"
)

func TestBuiltinSolver(t *testing.T) {
	assert.Contains(t, Solvers(), "bnb")

	s, err := NewSolver("bnb", map[string]any{"max_nodes": "10"})
	require.NoError(t, err)
	require.NotNil(t, s)

	m := mip.NewModel("tiny")
	x := m.BinaryVar("x")
	var obj mip.Expr
	obj.Add(x, 1)
	m.Maximize(obj)
	sol, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, mip.StatusOptimal, sol.Status)
	assert.Equal(t, 1.0, sol.Value(x))
}

func TestNewSolverErrors(t *testing.T) {
	_, err := NewSolver("gurobi", nil)
	assert.Error(t, err)
	_, err = NewSolver("bnb", map[string]any{"max_nodes": -1})
	assert.Error(t, err)
	_, err = NewSolver("bnb", map[string]any{"threads": 4})
	assert.Error(t, err)
	assert.Error(t, RegisterSolver("bnb", func(map[string]any) (mip.Solver, error) { return nil, nil }))
}
