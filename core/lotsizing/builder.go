package lotsizing

import (
	"fmt"
	"math"

	"github.com/kilianp07/clsprm/core/logger"
	"github.com/kilianp07/clsprm/core/mip"
	"github.com/kilianp07/clsprm/core/model"
)

// ModelName is the name given to built models.
const ModelName = "clsp-r"

// Formulation is a CLSP-R model built from one Problem. Variable grids are
// indexed [product][period].
type Formulation struct {
	Problem *model.Problem
	Model   *mip.Model
	Config  Config

	X      [][]mip.Var // new production
	XR     [][]mip.Var // remanufactured quantity
	L      [][]mip.Var // serviceable inventory
	LR     [][]mip.Var // recoverable inventory
	Gamma  [][]mip.Var // production setup
	GammaR [][]mip.Var // remanufacturing setup

	log logger.Logger
}

// Build creates variables, objective, constraints and KPIs for p on a fresh
// model. The Problem is only read.
func Build(p *model.Problem, cfg Config, log logger.Logger) (*Formulation, error) {
	if p == nil {
		return nil, fmt.Errorf("nil problem")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Linkage == LinkageBigM {
		// the bounds assume excess stock never pays off
		for i, prod := range p.Products() {
			if prod.Negative() {
				return nil, fmt.Errorf("big_m linkage needs non-negative costs and times, product %d has a negative one", i)
			}
		}
	}
	f := &Formulation{Problem: p, Model: mip.NewModel(ModelName), Config: cfg, log: logger.OrNop(log)}
	f.buildVars()
	f.addObjective()
	if err := f.addConstraints(); err != nil {
		return nil, err
	}
	if err := f.addKPIs(); err != nil {
		return nil, err
	}
	f.log.Debugw("model built", map[string]any{
		"products":    p.NProducts(),
		"periods":     p.NPeriods(),
		"variables":   f.Model.NumVars(),
		"constraints": len(f.Model.Constraints()),
		"indicators":  len(f.Model.Indicators()),
		"setup_cost":  string(cfg.SetupCostMode),
		"linkage":     string(cfg.Linkage),
	})
	return f, nil
}

func (f *Formulation) buildVars() {
	np, nt := f.Problem.NProducts(), f.Problem.NPeriods()
	f.X = f.Model.IntegerVarGrid("X", np, nt)
	f.XR = f.Model.IntegerVarGrid("X_r", np, nt)
	f.L = f.Model.IntegerVarGrid("L", np, nt)
	f.LR = f.Model.IntegerVarGrid("L_r", np, nt)
	f.Gamma = f.Model.BinaryVarGrid("G", np, nt)
	f.GammaR = f.Model.BinaryVarGrid("Gr", np, nt)
}

func (f *Formulation) addObjective() {
	var obj mip.Expr
	for p, prod := range f.Problem.Products() {
		for _, t := range f.Problem.Periods() {
			remanSetup := f.Gamma[p][t]
			if f.Config.SetupCostMode == SetupCostCorrected {
				remanSetup = f.GammaR[p][t]
			}
			obj.Add(f.L[p][t], prod.InventoryCostNew).
				Add(f.LR[p][t], prod.InventoryCostOld).
				Add(f.X[p][t], prod.ProductionCost).
				Add(f.XR[p][t], prod.RemanufacturingCost).
				Add(f.Gamma[p][t], prod.ProductionSetupCost).
				Add(remanSetup, prod.RemanufacturingSetupCost)
		}
	}
	f.Model.Minimize(obj)
}

func (f *Formulation) addConstraints() error {
	m := f.Model
	products := f.Problem.Products()
	for p, prod := range products {
		for _, t := range f.Problem.Periods() {
			// L[p,t] = L[p,t-1] + X + X_r - demand
			var bal mip.Expr
			bal.Add(f.L[p][t], 1).Add(f.X[p][t], -1).Add(f.XR[p][t], -1)
			if t > 0 {
				bal.Add(f.L[p][t-1], -1)
			}
			if err := m.AddConstraint(fmt.Sprintf("balance_new_%d_%d", p, t), bal, mip.Equal, -float64(prod.Demand[t])); err != nil {
				return err
			}

			// L_r[p,t] = L_r[p,t-1] + returns - X_r
			var rm mip.Expr
			rm.Add(f.LR[p][t], 1).Add(f.XR[p][t], 1)
			if t > 0 {
				rm.Add(f.LR[p][t-1], -1)
			}
			if err := m.AddConstraint(fmt.Sprintf("balance_rm_%d_%d", p, t), rm, mip.Equal, float64(prod.Returns[t])); err != nil {
				return err
			}
		}
	}

	for _, t := range f.Problem.Periods() {
		if err := m.AddConstraint(fmt.Sprintf("capacity_prod_%d", t), f.UsedProduction(t), mip.LessEqual, f.Problem.ProductionCapacity(t)); err != nil {
			return err
		}
		if err := m.AddConstraint(fmt.Sprintf("capacity_rm_%d", t), f.UsedRemanufacturing(t), mip.LessEqual, f.Problem.RemanufacturingCapacity(t)); err != nil {
			return err
		}
	}

	for p := range products {
		for _, t := range f.Problem.Periods() {
			if err := f.addSetupLink(fmt.Sprintf("setup_prod_%d_%d", p, t), f.X[p][t], f.Gamma[p][t], f.productionBigM(p, t)); err != nil {
				return err
			}
			if err := f.addSetupLink(fmt.Sprintf("setup_rm_%d_%d", p, t), f.XR[p][t], f.GammaR[p][t], f.remanufacturingBigM(p, t)); err != nil {
				return err
			}
		}
	}
	return nil
}

// addSetupLink forces setup to 1 whenever qty is positive.
func (f *Formulation) addSetupLink(name string, qty, setup mip.Var, bigM float64) error {
	var e mip.Expr
	e.Add(qty, 1)
	if f.Config.Linkage == LinkageIndicator {
		return f.Model.AddIndicator(name, setup, false, e, mip.Equal, 0)
	}
	// Add drops zero coefficients, so M = 0 leaves qty <= 0.
	e.Add(setup, -bigM)
	return f.Model.AddConstraint(name, e, mip.LessEqual, 0)
}

// productionBigM bounds X[p,t] by the demand left in the horizon and, when
// production takes time, by what the period's capacity allows.
func (f *Formulation) productionBigM(p, t int) float64 {
	prod := f.Problem.Product(p)
	remaining := 0
	for s := t; s < f.Problem.NPeriods(); s++ {
		remaining += prod.Demand[s]
	}
	m := float64(remaining)
	if prod.ProductionTime > 0 {
		m = math.Min(m, f.Problem.ProductionCapacity(t)/prod.ProductionTime)
	}
	return m
}

// remanufacturingBigM bounds X_r[p,t] by the returns received so far and,
// when remanufacturing takes time, by the period's capacity.
func (f *Formulation) remanufacturingBigM(p, t int) float64 {
	prod := f.Problem.Product(p)
	received := 0
	for s := 0; s <= t; s++ {
		received += prod.Returns[s]
	}
	m := float64(received)
	if prod.RemanufacturingTime > 0 {
		m = math.Min(m, f.Problem.RemanufacturingCapacity(t)/prod.RemanufacturingTime)
	}
	return m
}

// UsedProduction is the production capacity consumed in period t.
func (f *Formulation) UsedProduction(t int) mip.Expr {
	var e mip.Expr
	for p, prod := range f.Problem.Products() {
		e.Add(f.X[p][t], prod.ProductionTime).Add(f.Gamma[p][t], prod.ProductionSetupTime)
	}
	return e
}

// UsedRemanufacturing is the remanufacturing capacity consumed in period t.
func (f *Formulation) UsedRemanufacturing(t int) mip.Expr {
	var e mip.Expr
	for p, prod := range f.Problem.Products() {
		e.Add(f.XR[p][t], prod.RemanufacturingTime).Add(f.GammaR[p][t], prod.RemanufacturingSetupTime)
	}
	return e
}

// UsedProductionKPI names the production utilization KPI of period t.
func UsedProductionKPI(t int) string { return fmt.Sprintf("UsedProd_%d", t) }

// UsedRemanufacturingKPI names the remanufacturing utilization KPI of period t.
func UsedRemanufacturingKPI(t int) string { return fmt.Sprintf("UsedRM_%d", t) }

func (f *Formulation) addKPIs() error {
	for _, t := range f.Problem.Periods() {
		if err := f.Model.AddKPI(UsedProductionKPI(t), f.UsedProduction(t)); err != nil {
			return err
		}
		if err := f.Model.AddKPI(UsedRemanufacturingKPI(t), f.UsedRemanufacturing(t)); err != nil {
			return err
		}
	}
	return nil
}
