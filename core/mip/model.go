package mip

import (
	"context"
	"fmt"
	"math"
)

// VarType is the domain of a decision variable.
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
)

func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("VarType(%d)", int(t))
	}
}

// Var is a handle on a variable of the Model that created it.
type Var struct {
	id int
}

// ID returns the variable's position in its model.
func (v Var) ID() int { return v.id }

// VarInfo describes a declared variable.
type VarInfo struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Holds reports whether lhs (sense) rhs is satisfied within tol.
func (s Sense) Holds(lhs, rhs, tol float64) bool {
	switch s {
	case LessEqual:
		return lhs <= rhs+tol
	case GreaterEqual:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

// Constraint is the linear constraint Expr (Sense) RHS.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Satisfied evaluates the constraint for the given values.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	return c.Sense.Holds(c.Expr.Eval(values), c.RHS, tol)
}

// Indicator enforces Then whenever Binary takes the value Active.
type Indicator struct {
	Name   string
	Binary Var
	Active bool
	Then   Constraint
}

// ActiveValue returns Active as 0 or 1.
func (ind Indicator) ActiveValue() float64 {
	if ind.Active {
		return 1
	}
	return 0
}

// KPI is a named expression evaluated on solutions.
type KPI struct {
	Name string
	Expr Expr
}

// ObjectiveSense selects minimization or maximization.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

func (s ObjectiveSense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Model accumulates a mixed-integer program. It is not safe for concurrent
// mutation.
type Model struct {
	name        string
	vars        []VarInfo
	constraints []Constraint
	indicators  []Indicator
	objective   Expr
	sense       ObjectiveSense
	kpis        []KPI
	kpiIndex    map[string]int
}

// NewModel returns an empty minimization model.
func NewModel(name string) *Model {
	return &Model{name: name, kpiIndex: map[string]int{}}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

func (m *Model) addVar(info VarInfo) Var {
	m.vars = append(m.vars, info)
	return Var{id: len(m.vars) - 1}
}

// ContinuousVar declares a continuous variable in [lb, ub].
func (m *Model) ContinuousVar(name string, lb, ub float64) Var {
	return m.addVar(VarInfo{Name: name, Type: Continuous, Lower: lb, Upper: ub})
}

// IntegerVar declares an integer variable in [lb, ub]. Use math.Inf(1) for no
// upper bound.
func (m *Model) IntegerVar(name string, lb, ub float64) Var {
	return m.addVar(VarInfo{Name: name, Type: Integer, Lower: lb, Upper: ub})
}

// BinaryVar declares a 0/1 variable.
func (m *Model) BinaryVar(name string) Var {
	return m.addVar(VarInfo{Name: name, Type: Binary, Lower: 0, Upper: 1})
}

// IntegerVarGrid declares rows×cols non-negative integer variables named
// name_i_j, created row by row.
func (m *Model) IntegerVarGrid(name string, rows, cols int) [][]Var {
	return m.grid(rows, cols, func(i, j int) Var {
		return m.IntegerVar(fmt.Sprintf("%s_%d_%d", name, i, j), 0, math.Inf(1))
	})
}

// BinaryVarGrid declares rows×cols binary variables named name_i_j.
func (m *Model) BinaryVarGrid(name string, rows, cols int) [][]Var {
	return m.grid(rows, cols, func(i, j int) Var {
		return m.BinaryVar(fmt.Sprintf("%s_%d_%d", name, i, j))
	})
}

func (m *Model) grid(rows, cols int, mk func(i, j int) Var) [][]Var {
	g := make([][]Var, rows)
	for i := range g {
		g[i] = make([]Var, cols)
		for j := range g[i] {
			g[i][j] = mk(i, j)
		}
	}
	return g
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int { return len(m.vars) }

// Var returns the description of v.
func (m *Model) Var(v Var) VarInfo { return m.vars[v.id] }

// Vars returns a copy of all variable descriptions ordered by id.
func (m *Model) Vars() []VarInfo { return append([]VarInfo(nil), m.vars...) }

func (m *Model) checkExpr(e Expr) error {
	for _, t := range e.Terms {
		if t.Var.id < 0 || t.Var.id >= len(m.vars) {
			return fmt.Errorf("variable v%d does not belong to model %s", t.Var.id, m.name)
		}
	}
	return nil
}

// AddConstraint adds lhs (sense) rhs. Constants in lhs are kept in the
// expression.
func (m *Model) AddConstraint(name string, lhs Expr, sense Sense, rhs float64) error {
	if err := m.checkExpr(lhs); err != nil {
		return fmt.Errorf("constraint %s: %w", name, err)
	}
	m.constraints = append(m.constraints, Constraint{Name: name, Expr: lhs, Sense: sense, RHS: rhs})
	return nil
}

// AddIndicator adds the constraint binary == active ⇒ lhs (sense) rhs.
func (m *Model) AddIndicator(name string, binary Var, active bool, lhs Expr, sense Sense, rhs float64) error {
	if binary.id < 0 || binary.id >= len(m.vars) || m.vars[binary.id].Type != Binary {
		return fmt.Errorf("indicator %s: v%d is not a binary variable", name, binary.id)
	}
	if err := m.checkExpr(lhs); err != nil {
		return fmt.Errorf("indicator %s: %w", name, err)
	}
	m.indicators = append(m.indicators, Indicator{
		Name:   name,
		Binary: binary,
		Active: active,
		Then:   Constraint{Name: name, Expr: lhs, Sense: sense, RHS: rhs},
	})
	return nil
}

// Minimize sets the objective to minimize e.
func (m *Model) Minimize(e Expr) { m.objective, m.sense = e, Minimize }

// Maximize sets the objective to maximize e.
func (m *Model) Maximize(e Expr) { m.objective, m.sense = e, Maximize }

// Objective returns the objective expression and its sense.
func (m *Model) Objective() (Expr, ObjectiveSense) { return m.objective, m.sense }

// AddKPI registers a named expression evaluated on every solution.
func (m *Model) AddKPI(name string, e Expr) error {
	if _, ok := m.kpiIndex[name]; ok {
		return fmt.Errorf("kpi %s already registered", name)
	}
	if err := m.checkExpr(e); err != nil {
		return fmt.Errorf("kpi %s: %w", name, err)
	}
	m.kpiIndex[name] = len(m.kpis)
	m.kpis = append(m.kpis, KPI{Name: name, Expr: e})
	return nil
}

// Constraints returns the linear constraints in insertion order.
func (m *Model) Constraints() []Constraint { return append([]Constraint(nil), m.constraints...) }

// Indicators returns the indicator constraints in insertion order.
func (m *Model) Indicators() []Indicator { return append([]Indicator(nil), m.indicators...) }

// KPIs returns the registered KPIs in insertion order.
func (m *Model) KPIs() []KPI { return append([]KPI(nil), m.kpis...) }

// KPI returns the named KPI.
func (m *Model) KPI(name string) (KPI, bool) {
	i, ok := m.kpiIndex[name]
	if !ok {
		return KPI{}, false
	}
	return m.kpis[i], true
}

// Solve hands the model to s. It is a single blocking call.
func (m *Model) Solve(ctx context.Context, s Solver) (*Solution, error) {
	return s.Solve(ctx, m)
}
