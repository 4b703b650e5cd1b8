package lotsizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clsprm/core/mip"
	"github.com/kilianp07/clsprm/core/model"
)

func loadProblem(t *testing.T, path string) *model.Problem {
	t.Helper()
	p, err := model.Load(path)
	require.NoError(t, err)
	return p
}

func constraintByName(t *testing.T, m *mip.Model, name string) mip.Constraint {
	t.Helper()
	for _, c := range m.Constraints() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("constraint %s not found", name)
	return mip.Constraint{}
}

func TestBuildVariables(t *testing.T) {
	p := loadProblem(t, "testdata/two_products.json")
	f, err := Build(p, Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 6*2*2, f.Model.NumVars())
	assert.Equal(t, ModelName, f.Model.Name())
	assert.Equal(t, "X_1_0", f.Model.Var(f.X[1][0]).Name)
	assert.Equal(t, "L_r_0_1", f.Model.Var(f.LR[0][1]).Name)

	for _, grid := range [][][]mip.Var{f.X, f.XR, f.L, f.LR} {
		info := f.Model.Var(grid[0][1])
		assert.Equal(t, mip.Integer, info.Type)
		assert.Equal(t, 0.0, info.Lower)
	}
	assert.Equal(t, mip.Binary, f.Model.Var(f.Gamma[1][1]).Type)
	assert.Equal(t, mip.Binary, f.Model.Var(f.GammaR[0][0]).Type)
}

func TestBuildDefaults(t *testing.T) {
	p := loadProblem(t, "testdata/301_single_product.json")
	f, err := Build(p, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, SetupCostBaseline, f.Config.SetupCostMode)
	assert.Equal(t, LinkageIndicator, f.Config.Linkage)

	// Two balances and two capacities; setups are indicators.
	assert.Len(t, f.Model.Constraints(), 4)
	require.Len(t, f.Model.Indicators(), 2)
	ind := f.Model.Indicators()[0]
	assert.Equal(t, "setup_prod_0_0", ind.Name)
	assert.Equal(t, f.Gamma[0][0], ind.Binary)
	assert.False(t, ind.Active)
	assert.Equal(t, mip.Equal, ind.Then.Sense)
	assert.Equal(t, 0.0, ind.Then.RHS)
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Build(nil, Config{}, nil)
	assert.Error(t, err)

	p := loadProblem(t, "testdata/301_single_product.json")
	_, err = Build(p, Config{Linkage: "sos1"}, nil)
	assert.Error(t, err)
	_, err = Build(p, Config{SetupCostMode: "free"}, nil)
	assert.Error(t, err)
}

func TestBigMRejectsNegativeCoefficients(t *testing.T) {
	products := []model.Product{{
		InventoryCostNew: -1, Demand: []int{5}, Returns: []int{0}, ProductionTime: 1,
	}}
	p, err := model.NewProblem(products, model.Scalar(10), model.Scalar(10))
	require.NoError(t, err)

	_, err = Build(p, Config{Linkage: LinkageBigM}, nil)
	assert.ErrorContains(t, err, "non-negative")
	_, err = Build(p, Config{Linkage: LinkageIndicator}, nil)
	assert.NoError(t, err)
}

func TestObjectiveSetupCostMode(t *testing.T) {
	p := loadProblem(t, "testdata/301_single_product.json")

	base, err := Build(p, Config{SetupCostMode: SetupCostBaseline}, nil)
	require.NoError(t, err)
	obj, sense := base.Model.Objective()
	assert.Equal(t, mip.Minimize, sense)
	coef := obj.Coefficients()
	assert.Equal(t, 360.0, coef[base.Gamma[0][0].ID()])
	assert.NotContains(t, coef, base.GammaR[0][0].ID())
	assert.Equal(t, 10.0, coef[base.X[0][0].ID()])
	assert.Equal(t, 6.0, coef[base.XR[0][0].ID()])
	assert.Equal(t, 1.0, coef[base.L[0][0].ID()])
	assert.Equal(t, 1.0, coef[base.LR[0][0].ID()])

	corr, err := Build(p, Config{SetupCostMode: SetupCostCorrected}, nil)
	require.NoError(t, err)
	obj, _ = corr.Model.Objective()
	coef = obj.Coefficients()
	assert.Equal(t, 300.0, coef[corr.Gamma[0][0].ID()])
	assert.Equal(t, 60.0, coef[corr.GammaR[0][0].ID()])
}

func TestBalanceConstraints(t *testing.T) {
	p := loadProblem(t, "testdata/two_products.json")
	f, err := Build(p, Config{}, nil)
	require.NoError(t, err)

	first := constraintByName(t, f.Model, "balance_new_0_0")
	assert.Equal(t, mip.Equal, first.Sense)
	assert.Equal(t, -10.0, first.RHS)
	assert.Equal(t, map[int]float64{
		f.L[0][0].ID():  1,
		f.X[0][0].ID():  -1,
		f.XR[0][0].ID(): -1,
	}, first.Expr.Coefficients())

	next := constraintByName(t, f.Model, "balance_new_1_1")
	assert.Equal(t, -5.0, next.RHS)
	assert.Equal(t, -1.0, next.Expr.Coefficients()[f.L[1][0].ID()])

	rm := constraintByName(t, f.Model, "balance_rm_1_1")
	assert.Equal(t, 10.0, rm.RHS)
	assert.Equal(t, map[int]float64{
		f.LR[1][1].ID(): 1,
		f.XR[1][1].ID(): 1,
		f.LR[1][0].ID(): -1,
	}, rm.Expr.Coefficients())
}

func TestCapacityScalarMatchesList(t *testing.T) {
	products := []model.Product{{
		ProductionCost: 1, Demand: []int{3, 4, 5}, Returns: []int{1, 1, 1},
		ProductionTime: 2, ProductionSetupTime: 1, RemanufacturingTime: 1,
	}}
	scalar, err := model.NewProblem(products, model.Scalar(50), model.Scalar(20))
	require.NoError(t, err)
	list, err := model.NewProblem(products, model.PerPeriod(50, 50, 50), model.PerPeriod(20, 20, 20))
	require.NoError(t, err)

	fs, err := Build(scalar, Config{Linkage: LinkageBigM}, nil)
	require.NoError(t, err)
	fl, err := Build(list, Config{Linkage: LinkageBigM}, nil)
	require.NoError(t, err)
	assert.Equal(t, fs.Model.Constraints(), fl.Model.Constraints())

	capProd := constraintByName(t, fs.Model, "capacity_prod_2")
	assert.Equal(t, mip.LessEqual, capProd.Sense)
	assert.Equal(t, 50.0, capProd.RHS)
	assert.Equal(t, map[int]float64{fs.X[0][2].ID(): 2, fs.Gamma[0][2].ID(): 1}, capProd.Expr.Coefficients())
}

func TestBigMLinkage(t *testing.T) {
	p := loadProblem(t, "testdata/two_products.json")
	f, err := Build(p, Config{Linkage: LinkageBigM}, nil)
	require.NoError(t, err)
	assert.Empty(t, f.Model.Indicators())

	cases := []struct {
		name  string
		qty   mip.Var
		setup mip.Var
		m     float64
	}{
		// remaining demand 30 below capacity 200
		{"setup_prod_0_0", f.X[0][0], f.Gamma[0][0], 30},
		// remaining demand 20 below capacity 200/2
		{"setup_prod_1_0", f.X[1][0], f.Gamma[1][0], 20},
		{"setup_prod_1_1", f.X[1][1], f.Gamma[1][1], 5},
		// returns received so far
		{"setup_rm_0_1", f.XR[0][1], f.GammaR[0][1], 10},
		{"setup_rm_1_1", f.XR[1][1], f.GammaR[1][1], 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := constraintByName(t, f.Model, tc.name)
			assert.Equal(t, mip.LessEqual, c.Sense)
			assert.Equal(t, 0.0, c.RHS)
			assert.Equal(t, map[int]float64{tc.qty.ID(): 1, tc.setup.ID(): -tc.m}, c.Expr.Coefficients())
		})
	}

	// No returns yet: the quantity is pinned to zero.
	c := constraintByName(t, f.Model, "setup_rm_1_0")
	assert.Equal(t, map[int]float64{f.XR[1][0].ID(): 1}, c.Expr.Coefficients())
}

func TestBigMCappedByCapacity(t *testing.T) {
	products := []model.Product{{
		Demand: []int{500}, Returns: []int{400},
		ProductionTime: 4, RemanufacturingTime: 8,
	}}
	p, err := model.NewProblem(products, model.Scalar(100), model.Scalar(80))
	require.NoError(t, err)
	f, err := Build(p, Config{Linkage: LinkageBigM}, nil)
	require.NoError(t, err)
	assert.Equal(t, 25.0, f.productionBigM(0, 0))
	assert.Equal(t, 10.0, f.remanufacturingBigM(0, 0))
}

func TestKPIs(t *testing.T) {
	p := loadProblem(t, "testdata/two_products.json")
	f, err := Build(p, Config{}, nil)
	require.NoError(t, err)
	require.Len(t, f.Model.KPIs(), 4)

	k, ok := f.Model.KPI("UsedProd_1")
	require.True(t, ok)
	assert.Equal(t, map[int]float64{
		f.X[0][1].ID():     1,
		f.Gamma[0][1].ID(): 2,
		f.X[1][1].ID():     2,
		f.Gamma[1][1].ID(): 3,
	}, k.Expr.Coefficients())

	k, ok = f.Model.KPI(UsedRemanufacturingKPI(0))
	require.True(t, ok)
	assert.Equal(t, map[int]float64{
		f.XR[0][0].ID():     1,
		f.GammaR[0][0].ID(): 2,
		f.XR[1][0].ID():     1,
		f.GammaR[1][0].ID(): 1,
	}, k.Expr.Coefficients())
}
