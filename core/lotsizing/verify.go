package lotsizing

import (
	"errors"
	"fmt"

	"github.com/kilianp07/clsprm/core/model"
)

const verifyTol = 1e-6

// ErrPlanViolation is matched by errors returned from Verify.
var ErrPlanViolation = errors.New("plan violates model constraints")

// Verify checks a solved plan against p: flow balance of both inventories,
// per-period capacities, setup linkage and non-negativity. All violations are
// reported together.
func Verify(p *model.Problem, plan *Plan) error {
	if !plan.Status.HasSolution() {
		return fmt.Errorf("plan %s has no solution (status %s)", plan.RunID, plan.Status)
	}
	if plan.Products != p.NProducts() || plan.Periods != p.NPeriods() || len(plan.Entries) != p.NProducts()*p.NPeriods() {
		return fmt.Errorf("%w: plan shape %dx%d does not match problem %dx%d",
			ErrPlanViolation, plan.Products, plan.Periods, p.NProducts(), p.NPeriods())
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	usedProd := make([]float64, p.NPeriods())
	usedRM := make([]float64, p.NPeriods())
	for i, prod := range p.Products() {
		prevL, prevLR := 0.0, 0.0
		for _, t := range p.Periods() {
			e := plan.Entry(i, t)
			for name, v := range map[string]float64{"X": e.Produced, "X_r": e.Remanufactured, "L": e.Inventory, "L_r": e.ReturnsInventory} {
				if v < -verifyTol {
					fail("%s[%d,%d] = %g is negative", name, i, t, v)
				}
			}
			if want := prevL + e.Produced + e.Remanufactured - float64(prod.Demand[t]); !near(e.Inventory, want) {
				fail("L[%d,%d] = %g, balance gives %g", i, t, e.Inventory, want)
			}
			if want := prevLR + float64(prod.Returns[t]) - e.Remanufactured; !near(e.ReturnsInventory, want) {
				fail("L_r[%d,%d] = %g, balance gives %g", i, t, e.ReturnsInventory, want)
			}
			if e.Produced > verifyTol && !near(e.ProductionSetup, 1) {
				fail("X[%d,%d] = %g without production setup", i, t, e.Produced)
			}
			if e.Remanufactured > verifyTol && !near(e.RemanufacturingSetup, 1) {
				fail("X_r[%d,%d] = %g without remanufacturing setup", i, t, e.Remanufactured)
			}
			usedProd[t] += prod.ProductionTime*e.Produced + prod.ProductionSetupTime*e.ProductionSetup
			usedRM[t] += prod.RemanufacturingTime*e.Remanufactured + prod.RemanufacturingSetupTime*e.RemanufacturingSetup
			prevL, prevLR = e.Inventory, e.ReturnsInventory
		}
	}
	for _, t := range p.Periods() {
		if usedProd[t] > p.ProductionCapacity(t)+verifyTol {
			fail("period %d uses %g production capacity of %g", t, usedProd[t], p.ProductionCapacity(t))
		}
		if usedRM[t] > p.RemanufacturingCapacity(t)+verifyTol {
			fail("period %d uses %g remanufacturing capacity of %g", t, usedRM[t], p.RemanufacturingCapacity(t))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPlanViolation, errors.Join(errs...))
}

func near(a, b float64) bool {
	d := a - b
	return d <= verifyTol && d >= -verifyTol
}
