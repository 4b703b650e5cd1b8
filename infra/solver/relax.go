package solver

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/clsprm/core/mip"
)

const (
	// fixTol is the bound gap under which a variable counts as fixed.
	fixTol = 1e-9
	// propagationPasses caps the bound propagation sweeps per node.
	propagationPasses = 20
	// maxBound is the largest magnitude a derived bound or indicator
	// coefficient may take before it is ignored.
	maxBound = 1e9
	// pivotTol is the relative size under which an eliminated row counts
	// as zero.
	pivotTol = 1e-9
)

// simplex points to the LP routine used for relaxations. It can be overridden
// in tests to simulate solver failures.
var simplex = lp.Simplex

var errOverdetermined = errors.New("relaxation has more equality rows than free columns")

type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
)

// row is a constraint in sparse form, one entry per variable, with the
// expression constant moved to the right-hand side.
type row struct {
	idx   []int
	coef  []float64
	sense mip.Sense
	rhs   float64
}

func newRow(c mip.Constraint) row {
	coefs := c.Expr.Coefficients()
	r := row{sense: c.Sense, rhs: c.RHS - c.Expr.Constant}
	for j, a := range coefs {
		if a != 0 {
			r.idx = append(r.idx, j)
		}
	}
	sort.Ints(r.idx)
	for _, j := range r.idx {
		r.coef = append(r.coef, coefs[j])
	}
	return r
}

// with returns a copy of r with a·x_j added and the given sense and rhs.
func (r row) with(j int, a float64, sense mip.Sense, rhs float64) row {
	out := row{
		idx:   append([]int(nil), r.idx...),
		coef:  append([]float64(nil), r.coef...),
		sense: sense,
		rhs:   rhs,
	}
	for k, i := range out.idx {
		if i == j {
			out.coef[k] += a
			return out
		}
	}
	out.idx = append(out.idx, j)
	out.coef = append(out.coef, a)
	return out
}

// activity is the range of a row's left-hand side over the current box.
// Infinite contributions are counted instead of summed.
type activity struct {
	min, max       float64
	minInf, maxInf int
}

func termRange(a, lo, up float64) (float64, float64) {
	if a > 0 {
		return a * lo, a * up
	}
	return a * up, a * lo
}

func (r row) activity(lo, up []float64) activity {
	var act activity
	for k, j := range r.idx {
		tmin, tmax := termRange(r.coef[k], lo[j], up[j])
		if math.IsInf(tmin, 0) {
			act.minInf++
		} else {
			act.min += tmin
		}
		if math.IsInf(tmax, 0) {
			act.maxInf++
		} else {
			act.max += tmax
		}
	}
	return act
}

// rest removes one term from an activity total. It reports false when the
// other terms are unbounded.
func rest(total float64, inf int, own float64) (float64, bool) {
	if math.IsInf(own, 0) {
		return total, inf == 1
	}
	return total - own, inf == 0
}

// program is the solver-side view of a mip.Model, built once per solve.
type program struct {
	model      *mip.Model
	vars       []mip.VarInfo
	cost       []float64 // minimization costs
	objConst   float64
	maximize   bool
	rows       []row
	indicators []mip.Indicator
	then       []row // implied constraint of each indicator
}

func newProgram(m *mip.Model) (*program, error) {
	p := &program{
		model:      m,
		vars:       m.Vars(),
		indicators: m.Indicators(),
	}
	for i, v := range p.vars {
		if math.IsInf(v.Lower, -1) || math.IsNaN(v.Lower) {
			return nil, fmt.Errorf("variable %s (v%d) needs a finite lower bound", v.Name, i)
		}
	}
	for _, c := range m.Constraints() {
		p.rows = append(p.rows, newRow(c))
	}
	for _, ind := range p.indicators {
		p.then = append(p.then, newRow(ind.Then))
	}
	obj, sense := m.Objective()
	p.maximize = sense == mip.Maximize
	sign := 1.0
	if p.maximize {
		sign = -1
	}
	p.cost = make([]float64, len(p.vars))
	for _, t := range obj.Terms {
		p.cost[t.Var.ID()] += sign * t.Coef
	}
	p.objConst = sign * obj.Constant
	return p, nil
}

func (p *program) integral(j int) bool {
	return p.vars[j].Type != mip.Continuous
}

// relaxation is the LP optimum of one node, in minimization terms.
type relaxation struct {
	status    relaxStatus
	objective float64
	values    []float64
	// enforced marks the indicators whose implied constraint was imposed.
	enforced []bool
}

// box is the variable domain of a node while its relaxation is built.
type box struct {
	lo, up []float64
	// bounded marks the upper bounds that the node imposes and the LP must
	// carry as rows. Bounds found by propagation are implied by the rows and
	// integrality, so they only serve to tighten the relaxation.
	bounded []bool
}

func newBox(n *node) box {
	b := box{
		lo:      append([]float64(nil), n.lower...),
		up:      append([]float64(nil), n.upper...),
		bounded: make([]bool, len(n.upper)),
	}
	for j, u := range b.up {
		b.bounded[j] = !math.IsInf(u, 1)
	}
	return b
}

// relax solves the LP relaxation of node n. Bounds are first propagated
// through the rows, then every indicator whose binary is still free is
// replaced by its linear relaxation. Variables are shifted to their lower
// bound, fixed variables are substituted out and every remaining row is
// written in the standard form A·x = b, x >= 0 expected by lp.Simplex.
//
//gocyclo:ignore
func (s *BranchAndBound) relax(p *program, n *node) (relaxation, error) {
	nv := len(p.vars)
	bx := newBox(n)
	lo, up := bx.lo, bx.up
	infeasible := relaxation{status: relaxInfeasible}

	// Indicators are imposed when branching asked for it or when their binary
	// is fixed at the active value, possibly by propagation.
	enforced := make([]bool, len(p.indicators))
	for _, i := range n.enforced {
		enforced[i] = true
	}
	applied := make([]bool, len(p.indicators))
	rows := append([]row(nil), p.rows...)
	for propagated := false; ; propagated = true {
		added := false
		for i, ind := range p.indicators {
			b := ind.Binary.ID()
			act := ind.ActiveValue()
			if !enforced[i] && lo[b] == act && up[b] == act {
				enforced[i] = true
			}
			if !enforced[i] || applied[i] {
				continue
			}
			applied[i], added = true, true
			c := p.then[i]
			switch len(c.idx) {
			case 0:
				if !c.sense.Holds(0, c.rhs, s.cfg.FeasibilityTolerance) {
					return infeasible, nil
				}
			case 1:
				bx.tighten(c)
			default:
				rows = append(rows, c)
			}
		}
		if propagated && !added {
			break
		}
		if !s.propagate(p, rows, lo, up) {
			return infeasible, nil
		}
	}

	for i, ind := range p.indicators {
		b := ind.Binary.ID()
		if enforced[i] || lo[b] != 0 || up[b] != 1 {
			continue
		}
		rows = append(rows, s.linearize(p.then[i], b, ind.ActiveValue(), lo, up)...)
	}

	fixed := make([]bool, nv)
	col := make([]int, nv)
	var free []int
	for j := 0; j < nv; j++ {
		if up[j]-lo[j] <= fixTol {
			fixed[j] = true
			col[j] = -1
			continue
		}
		col[j] = len(free)
		free = append(free, j)
	}

	var lpRows []lpRow
	for _, c := range rows {
		r := lpRow{coef: map[int]float64{}, sense: c.sense, rhs: c.rhs}
		for k, j := range c.idx {
			// x_j = lo_j + x'_j, and fixed variables sit at lo_j.
			r.rhs -= c.coef[k] * lo[j]
			if !fixed[j] {
				r.coef[col[j]] += c.coef[k]
			}
		}
		for k, v := range r.coef {
			if v == 0 {
				delete(r.coef, k)
			}
		}
		if len(r.coef) == 0 {
			if !c.sense.Holds(0, r.rhs, s.cfg.FeasibilityTolerance) {
				return infeasible, nil
			}
			continue
		}
		lpRows = append(lpRows, r)
	}
	for k, j := range free {
		if bx.bounded[j] && !math.IsInf(up[j], 1) {
			lpRows = append(lpRows, lpRow{coef: map[int]float64{k: 1}, sense: mip.LessEqual, rhs: up[j] - lo[j]})
		}
	}

	// Columns without any row sit at their lower bound unless their cost
	// pulls them to infinity.
	used := make([]bool, len(free))
	for _, r := range lpRows {
		for k := range r.coef {
			used[k] = true
		}
	}
	lpCol := make([]int, len(free))
	nCols := 0
	for k, j := range free {
		if used[k] {
			lpCol[k] = nCols
			nCols++
			continue
		}
		lpCol[k] = -1
		if p.cost[j] < 0 {
			return relaxation{status: relaxUnbounded}, nil
		}
	}

	values := append([]float64(nil), lo...)
	if len(lpRows) > 0 {
		x, status, err := s.solveStandard(p, lpRows, free, lpCol, nCols)
		if err != nil || status != relaxOptimal {
			return relaxation{status: status}, err
		}
		for k, j := range free {
			if lpCol[k] < 0 {
				continue
			}
			v := x[lpCol[k]]
			if v < 0 {
				v = 0
			}
			values[j] = lo[j] + v
		}
	}

	obj := p.objConst + floats.Dot(p.cost, values)
	return relaxation{status: relaxOptimal, objective: obj, values: values, enforced: enforced}, nil
}

// propagate tightens lo and up until the rows stop improving them, rounding
// the bounds of integral variables. It reports false when a domain empties.
func (s *BranchAndBound) propagate(p *program, rows []row, lo, up []float64) bool {
	for j := range lo {
		if p.integral(j) {
			lo[j] = math.Ceil(lo[j] - s.cfg.IntegralityTolerance)
			up[j] = math.Floor(up[j] + s.cfg.IntegralityTolerance)
		}
		if lo[j] > up[j]+s.cfg.FeasibilityTolerance {
			return false
		}
	}
	for pass := 0; pass < propagationPasses; pass++ {
		changed := false
		for _, r := range rows {
			act := r.activity(lo, up)
			for k, j := range r.idx {
				a := r.coef[k]
				tmin, tmax := termRange(a, lo[j], up[j])
				if r.sense != mip.GreaterEqual {
					if other, ok := rest(act.min, act.minInf, tmin); ok {
						changed = s.setBound(p, j, (r.rhs-other)/a, a > 0, lo, up) || changed
					}
				}
				if r.sense != mip.LessEqual {
					if other, ok := rest(act.max, act.maxInf, tmax); ok {
						changed = s.setBound(p, j, (r.rhs-other)/a, a < 0, lo, up) || changed
					}
				}
			}
		}
		for j := range lo {
			if lo[j] > up[j]+s.cfg.FeasibilityTolerance {
				return false
			}
		}
		if !changed {
			break
		}
	}
	return true
}

// setBound lowers up[j] (upper) or raises lo[j] to v when that is a real
// improvement.
func (s *BranchAndBound) setBound(p *program, j int, v float64, upper bool, lo, up []float64) bool {
	if math.IsNaN(v) || math.Abs(v) > maxBound {
		return false
	}
	step := 1e-7 * math.Max(1, math.Abs(v))
	if upper {
		if p.integral(j) {
			v = math.Floor(v + s.cfg.IntegralityTolerance)
		}
		if up[j]-v <= step {
			return false
		}
		up[j] = v
		return true
	}
	if p.integral(j) {
		v = math.Ceil(v - s.cfg.IntegralityTolerance)
	}
	if v-lo[j] <= step {
		return false
	}
	lo[j] = v
	return true
}

// linearize returns the linear relaxation of "x_b = active ⇒ c" for a free
// binary. Each side of c is relaxed by the largest violation the box allows,
// scaled by the distance of x_b from the active value. Sides that cannot be
// violated, or only by an unbounded amount, are left out.
func (s *BranchAndBound) linearize(c row, b int, active float64, lo, up []float64) []row {
	act := c.activity(lo, up)
	var out []row
	if c.sense != mip.GreaterEqual && act.maxInf == 0 {
		if m := act.max - c.rhs; m > s.cfg.FeasibilityTolerance && m <= maxBound {
			if active == 0 {
				out = append(out, c.with(b, -m, mip.LessEqual, c.rhs))
			} else {
				out = append(out, c.with(b, m, mip.LessEqual, c.rhs+m))
			}
		}
	}
	if c.sense != mip.LessEqual && act.minInf == 0 {
		if m := c.rhs - act.min; m > s.cfg.FeasibilityTolerance && m <= maxBound {
			if active == 0 {
				out = append(out, c.with(b, m, mip.GreaterEqual, c.rhs))
			} else {
				out = append(out, c.with(b, -m, mip.GreaterEqual, c.rhs-m))
			}
		}
	}
	return out
}

// tighten applies a single-variable constraint imposed by the node as a
// bound.
func (bx box) tighten(c row) {
	j, a := c.idx[0], c.coef[0]
	v := c.rhs / a
	sense := c.sense
	if a < 0 {
		switch sense {
		case mip.LessEqual:
			sense = mip.GreaterEqual
		case mip.GreaterEqual:
			sense = mip.LessEqual
		}
	}
	if (sense == mip.LessEqual || sense == mip.Equal) && v < bx.up[j] {
		bx.up[j] = v
		bx.bounded[j] = true
	}
	if sense == mip.GreaterEqual || sense == mip.Equal {
		bx.lo[j] = math.Max(bx.lo[j], v)
	}
}

type lpRow struct {
	coef  map[int]float64 // column -> coefficient
	sense mip.Sense
	rhs   float64
}

// solveStandard assembles [A_free | slacks] and runs the simplex.
func (s *BranchAndBound) solveStandard(p *program, rows []lpRow, free, lpCol []int, nCols int) ([]float64, relaxStatus, error) {
	nSlack := 0
	for _, r := range rows {
		if r.sense != mip.Equal {
			nSlack++
		}
	}
	m, n := len(rows), nCols+nSlack

	a := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	c := make([]float64, n)
	for k, j := range free {
		if lpCol[k] >= 0 {
			c[lpCol[k]] = p.cost[j]
		}
	}
	slack := nCols
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, v := range r.coef {
			a.Set(i, lpCol[k], sign*v)
		}
		switch r.sense {
		case mip.LessEqual:
			a.Set(i, slack, sign)
			slack++
		case mip.GreaterEqual:
			a.Set(i, slack, -sign)
			slack++
		}
		b[i] = sign * r.rhs
	}

	a, b, ok := s.independentRows(a, b)
	if !ok {
		return nil, relaxInfeasible, nil
	}
	m, _ = a.Dims()
	if m > n {
		return nil, relaxOptimal, errOverdetermined
	}
	if m == n {
		return s.solveSquare(a, b)
	}
	_, x, err := simplex(c, a, b, s.cfg.Tolerance, nil)
	switch {
	case err == nil:
		return x, relaxOptimal, nil
	case errors.Is(err, lp.ErrInfeasible):
		return nil, relaxInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, relaxUnbounded, nil
	default:
		return nil, relaxOptimal, err
	}
}

// independentRows drops the rows of A·x = b that are combinations of earlier
// ones, since lp.Simplex needs A to have full row rank. Substituting fixed
// variables can leave two equality rows over the same columns. It reports
// false when a dropped row contradicts the others.
func (s *BranchAndBound) independentRows(a *mat.Dense, b []float64) (*mat.Dense, []float64, bool) {
	m, n := a.Dims()
	type pivot struct {
		row []float64 // reduced [A_i | b_i]
		col int
	}
	var pivots []pivot
	var keep []int
	for i := 0; i < m; i++ {
		r := make([]float64, n+1)
		mat.Row(r[:n], i, a)
		r[n] = b[i]
		scale := math.Max(1, floats.Norm(r, math.Inf(1)))
		for _, pv := range pivots {
			if f := r[pv.col] / pv.row[pv.col]; f != 0 {
				floats.AddScaled(r, -f, pv.row)
			}
		}
		best := floats.MaxIdx(absCopy(r[:n]))
		if math.Abs(r[best]) <= pivotTol*scale {
			if math.Abs(r[n]) > s.cfg.FeasibilityTolerance*scale {
				return nil, nil, false
			}
			continue
		}
		pivots = append(pivots, pivot{row: r, col: best})
		keep = append(keep, i)
	}
	if len(keep) == m {
		return a, b, true
	}
	ra := mat.NewDense(len(keep), n, nil)
	rb := make([]float64, len(keep))
	for k, i := range keep {
		ra.SetRow(k, a.RawRowView(i))
		rb[k] = b[i]
	}
	return ra, rb, true
}

func absCopy(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

// solveSquare handles a fully determined system, which lp.Simplex would
// reject on round-off below zero.
func (s *BranchAndBound) solveSquare(a *mat.Dense, b []float64) ([]float64, relaxStatus, error) {
	m, _ := a.Dims()
	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(m, b)); err != nil {
		return nil, relaxOptimal, fmt.Errorf("square relaxation: %w", err)
	}
	out := make([]float64, m)
	for i := range out {
		v := x.AtVec(i)
		if v < -s.cfg.FeasibilityTolerance {
			return nil, relaxInfeasible, nil
		}
		out[i] = v
	}
	return out, relaxOptimal, nil
}
