package mip

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible is returned by Status.Err for infeasible models.
	ErrInfeasible = errors.New("mip: model is infeasible")
	// ErrUnbounded is returned by Status.Err for unbounded models.
	ErrUnbounded = errors.New("mip: model is unbounded")
	// ErrSolver reports a failure inside the solver.
	ErrSolver = errors.New("mip: solver error")
	// ErrLimit reports a search stopped by a node limit or a cancelled context
	// before optimality was proven.
	ErrLimit = errors.New("mip: search limit reached")
)

// Status is the terminal state of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	// StatusFeasible means a limit stopped the search with an incumbent.
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for st := StatusUnknown; st <= StatusError; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown status %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// HasSolution reports whether values are available.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Err maps non-optimal statuses to sentinel errors.
func (s Status) Err() error {
	switch s {
	case StatusOptimal:
		return nil
	case StatusFeasible:
		return ErrLimit
	case StatusInfeasible:
		return ErrInfeasible
	case StatusUnbounded:
		return ErrUnbounded
	default:
		return ErrSolver
	}
}

// Solver solves a model. Implementations return a Solution for every terminal
// status they can name and an error (wrapping ErrSolver or a context error)
// only when the solve itself failed.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *Model) (*Solution, error)

// Solve calls f(ctx, m).
func (f SolverFunc) Solve(ctx context.Context, m *Model) (*Solution, error) { return f(ctx, m) }

// Solution is the outcome of a solve.
type Solution struct {
	Status    Status
	Objective float64
	// Values is indexed by Var.ID; nil unless Status.HasSolution().
	Values []float64
	KPIs   map[string]float64
	// Nodes is the number of search nodes explored, when known.
	Nodes int
}

// NewSolution evaluates the objective and KPIs of m at values.
func NewSolution(m *Model, status Status, values []float64, nodes int) *Solution {
	sol := &Solution{Status: status, Nodes: nodes, Objective: math.NaN()}
	if values == nil {
		return sol
	}
	sol.Values = append([]float64(nil), values...)
	obj, _ := m.Objective()
	sol.Objective = obj.Eval(sol.Values)
	sol.KPIs = make(map[string]float64, len(m.kpis))
	for _, k := range m.kpis {
		sol.KPIs[k.Name] = k.Expr.Eval(sol.Values)
	}
	return sol
}

// Value returns the value of v, or NaN when there is no solution.
func (s *Solution) Value(v Var) float64 {
	if s.Values == nil || v.id >= len(s.Values) {
		return math.NaN()
	}
	return s.Values[v.id]
}

// Eval evaluates e on the solution values.
func (s *Solution) Eval(e Expr) float64 {
	if s.Values == nil {
		return math.NaN()
	}
	return e.Eval(s.Values)
}

// KPI returns the named KPI value.
func (s *Solution) KPI(name string) (float64, bool) {
	v, ok := s.KPIs[name]
	return v, ok
}
