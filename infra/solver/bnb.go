package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/clsprm/core/logger"
	"github.com/kilianp07/clsprm/core/mip"
	"github.com/kilianp07/clsprm/internal/eventbus"
)

// BranchAndBound is an exact MIP solver. It explores LP relaxations depth
// first, branching on fractional binaries, then on violated indicator
// constraints, then on fractional integers. Indicators are handled natively:
// a violated "b = v ⇒ c" splits into b = 1-v and b = v with c imposed. While
// b is free its relaxation carries c loosened in proportion to |b - v|.
//
// A BranchAndBound holds no per-solve state and may serve concurrent solves;
// their incumbents share one event stream, told apart by tag.
type BranchAndBound struct {
	cfg    Config
	log    logger.Logger
	events *eventbus.Bus[Incumbent]
}

// Incumbent reports an improved integer solution found during a search.
// Tag is the label of the solve's context, see WithTag.
type Incumbent struct {
	Tag       string
	Model     string
	Objective float64
	Node      int
	Depth     int
	Elapsed   time.Duration
}

// New returns a solver with cfg defaults applied.
func New(cfg Config, log logger.Logger) (*BranchAndBound, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BranchAndBound{cfg: cfg, log: logger.OrNop(log), events: eventbus.New[Incumbent](16)}, nil
}

type tagKey struct{}

// WithTag labels the incumbents published by solves run with ctx, so that a
// subscriber can tell concurrent searches apart.
func WithTag(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, tagKey{}, tag)
}

// Tag returns the label set by WithTag, or "".
func Tag(ctx context.Context) string {
	tag, _ := ctx.Value(tagKey{}).(string)
	return tag
}

// Incumbents subscribes to the incumbents of every search run by s. Filter
// on Incumbent.Tag to follow one search. The returned function ends the
// subscription and closes the channel.
func (s *BranchAndBound) Incumbents() (<-chan Incumbent, func()) {
	ch := s.events.Subscribe()
	return ch, func() { s.events.Unsubscribe(ch) }
}

type node struct {
	lower, upper []float64
	enforced     []int
	depth        int
}

func (n *node) child() *node {
	return &node{
		lower:    append([]float64(nil), n.lower...),
		upper:    append([]float64(nil), n.upper...),
		enforced: append([]int(nil), n.enforced...),
		depth:    n.depth + 1,
	}
}

// Solve runs the search. Infeasible and unbounded models are reported through
// the solution status. An error is returned when a relaxation fails, or when
// the node limit or ctx stops the search before any incumbent was found.
func (s *BranchAndBound) Solve(ctx context.Context, m *mip.Model) (*mip.Solution, error) {
	start := time.Now()
	tag := Tag(ctx)
	p, err := newProgram(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mip.ErrSolver, err)
	}

	root := &node{lower: make([]float64, len(p.vars)), upper: make([]float64, len(p.vars))}
	for j, v := range p.vars {
		root.lower[j], root.upper[j] = v.Lower, v.Upper
	}

	var (
		best    []float64
		bestObj = math.Inf(1)
		nodes   int
		stack   = []*node{root}
	)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return s.stop(p, best, nodes, err)
		}
		if nodes >= s.cfg.MaxNodes {
			return s.stop(p, best, nodes, fmt.Errorf("node limit %d", s.cfg.MaxNodes))
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		r, err := s.relax(p, n)
		if err != nil {
			return nil, fmt.Errorf("%w: model %s node %d: %v", mip.ErrSolver, m.Name(), nodes, err)
		}
		switch r.status {
		case relaxInfeasible:
			continue
		case relaxUnbounded:
			s.log.Infof("model %s is unbounded (node %d)", m.Name(), nodes)
			return mip.NewSolution(m, mip.StatusUnbounded, nil, nodes), nil
		}
		if r.objective >= bestObj-pruneGap(bestObj) {
			continue
		}

		children := s.branch(p, n, r)
		if children == nil {
			best = s.round(p, r.values)
			bestObj = r.objective
			s.log.Debugw("new incumbent", map[string]any{
				"model": m.Name(), "objective": p.external(bestObj), "node": nodes, "depth": n.depth,
			})
			s.events.Publish(Incumbent{
				Tag:       tag,
				Model:     m.Name(),
				Objective: p.external(bestObj),
				Node:      nodes,
				Depth:     n.depth,
				Elapsed:   time.Since(start),
			})
			continue
		}
		stack = append(stack, children...)
	}

	if best == nil {
		s.log.Infof("model %s is infeasible after %d nodes", m.Name(), nodes)
		return mip.NewSolution(m, mip.StatusInfeasible, nil, nodes), nil
	}
	sol := mip.NewSolution(m, mip.StatusOptimal, best, nodes)
	s.log.Infof("model %s optimal: objective %g, %d nodes in %s", m.Name(), sol.Objective, nodes, time.Since(start))
	return sol, nil
}

// stop ends a search interrupted by a limit.
func (s *BranchAndBound) stop(p *program, best []float64, nodes int, cause error) (*mip.Solution, error) {
	if best == nil {
		return nil, fmt.Errorf("%w after %d nodes without incumbent: %w", mip.ErrLimit, nodes, cause)
	}
	s.log.Warnf("model %s: search stopped after %d nodes (%v), returning incumbent", p.model.Name(), nodes, cause)
	return mip.NewSolution(p.model, mip.StatusFeasible, best, nodes), nil
}

// branch returns the children of n, last one explored first, or nil when the
// relaxation is feasible for the MIP.
func (s *BranchAndBound) branch(p *program, n *node, r relaxation) []*node {
	x := r.values
	if j, ok := s.fractional(p, x, mip.Binary); ok {
		return s.splitVar(n, j, x[j])
	}
	for i, ind := range p.indicators {
		if r.enforced[i] {
			continue
		}
		b := ind.Binary.ID()
		if math.Abs(x[b]-ind.ActiveValue()) > s.cfg.IntegralityTolerance {
			continue
		}
		if ind.Then.Satisfied(x, s.cfg.FeasibilityTolerance) {
			continue
		}
		imposed := n.child()
		imposed.lower[b], imposed.upper[b] = ind.ActiveValue(), ind.ActiveValue()
		imposed.enforced = append(imposed.enforced, i)
		flipped := n.child()
		flipped.lower[b], flipped.upper[b] = 1-ind.ActiveValue(), 1-ind.ActiveValue()
		return []*node{imposed, flipped}
	}
	if j, ok := s.fractional(p, x, mip.Integer); ok {
		return s.splitVar(n, j, x[j])
	}
	return nil
}

func (s *BranchAndBound) fractional(p *program, x []float64, typ mip.VarType) (int, bool) {
	for j, v := range p.vars {
		if v.Type != typ {
			continue
		}
		if math.Abs(x[j]-math.Round(x[j])) > s.cfg.IntegralityTolerance {
			return j, true
		}
	}
	return 0, false
}

// splitVar creates x_j <= floor(v) and x_j >= ceil(v), ordered so the side
// closer to v is explored first.
func (s *BranchAndBound) splitVar(n *node, j int, v float64) []*node {
	down := n.child()
	down.upper[j] = math.Floor(v)
	up := n.child()
	up.lower[j] = math.Ceil(v)
	if v-math.Floor(v) >= 0.5 {
		return []*node{down, up}
	}
	return []*node{up, down}
}

// round snaps integral variables of an accepted relaxation to integers.
func (s *BranchAndBound) round(p *program, x []float64) []float64 {
	out := append([]float64(nil), x...)
	for j := range out {
		if p.integral(j) {
			out[j] = math.Round(out[j])
		}
		if out[j] == 0 {
			out[j] = 0 // drop negative zero
		}
	}
	return out
}

// external converts a minimization objective back to the model's sense.
func (p *program) external(v float64) float64 {
	if p.maximize {
		return -v
	}
	return v
}

func pruneGap(best float64) float64 {
	if math.IsInf(best, 1) {
		return 0
	}
	return 1e-9 * math.Max(1, math.Abs(best))
}
