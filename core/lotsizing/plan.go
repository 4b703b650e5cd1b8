package lotsizing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/clsprm/core/mip"
)

// Entry is the solved plan of one product in one period.
type Entry struct {
	Product              int     `json:"product"`
	Period               int     `json:"period"`
	Produced             float64 `json:"x"`
	Remanufactured       float64 `json:"x_r"`
	Inventory            float64 `json:"l"`
	ReturnsInventory     float64 `json:"l_r"`
	ProductionSetup      float64 `json:"gamma"`
	RemanufacturingSetup float64 `json:"gamma_r"`
}

// Plan is the outcome of solving a Formulation. Objective, entries,
// utilization and KPIs are only set when Status.HasSolution().
type Plan struct {
	RunID     string        `json:"run_id"`
	Status    mip.Status    `json:"status"`
	Objective float64       `json:"objective"`
	Nodes     int           `json:"nodes"`
	Duration  time.Duration `json:"duration_ns"`
	Periods   int           `json:"periods"`
	Products  int           `json:"products"`

	Entries             []Entry            `json:"entries,omitempty"`
	UsedProduction      []float64          `json:"used_production,omitempty"`
	UsedRemanufacturing []float64          `json:"used_remanufacturing,omitempty"`
	KPIs                map[string]float64 `json:"kpis,omitempty"`
}

// Entry returns the plan of product p in period t.
func (pl *Plan) Entry(p, t int) Entry { return pl.Entries[p*pl.Periods+t] }

// Solve runs one blocking solve and reads the plan out of the solution. The
// solver's status is reported as is and solver errors are returned
// unchanged; nothing is retried.
func (f *Formulation) Solve(ctx context.Context, s mip.Solver) (*Plan, error) {
	start := time.Now()
	sol, err := f.Model.Solve(ctx, s)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, fmt.Errorf("%w: backend returned neither a solution nor an error", mip.ErrSolver)
	}
	plan := f.Extract(sol)
	plan.Duration = time.Since(start)
	f.log.Infof("plan %s: status %s objective %g nodes %d", plan.RunID, plan.Status, plan.Objective, plan.Nodes)
	return plan, nil
}

// Extract builds a Plan from a solution of f.Model.
func (f *Formulation) Extract(sol *mip.Solution) *Plan {
	np, nt := f.Problem.NProducts(), f.Problem.NPeriods()
	plan := &Plan{
		RunID:    uuid.NewString(),
		Status:   sol.Status,
		Nodes:    sol.Nodes,
		Periods:  nt,
		Products: np,
	}
	if !sol.Status.HasSolution() {
		return plan
	}
	plan.Objective = sol.Objective
	plan.Entries = make([]Entry, 0, np*nt)
	for p := 0; p < np; p++ {
		for t := 0; t < nt; t++ {
			plan.Entries = append(plan.Entries, Entry{
				Product:              p,
				Period:               t,
				Produced:             sol.Value(f.X[p][t]),
				Remanufactured:       sol.Value(f.XR[p][t]),
				Inventory:            sol.Value(f.L[p][t]),
				ReturnsInventory:     sol.Value(f.LR[p][t]),
				ProductionSetup:      sol.Value(f.Gamma[p][t]),
				RemanufacturingSetup: sol.Value(f.GammaR[p][t]),
			})
		}
	}
	plan.UsedProduction = make([]float64, nt)
	plan.UsedRemanufacturing = make([]float64, nt)
	for t := 0; t < nt; t++ {
		plan.UsedProduction[t] = sol.KPIs[UsedProductionKPI(t)]
		plan.UsedRemanufacturing[t] = sol.KPIs[UsedRemanufacturingKPI(t)]
	}
	plan.KPIs = make(map[string]float64, len(sol.KPIs))
	for k, v := range sol.KPIs {
		plan.KPIs[k] = v
	}
	return plan
}
