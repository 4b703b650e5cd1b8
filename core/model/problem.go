package model

import (
	"fmt"
)

// Problem is a validated planning horizon. Every product shares the same
// number of periods and capacities are stored per period, so consumers may
// index products and periods without bounds checks.
type Problem struct {
	products        []Product
	productionCap   []float64
	remanufacturing []float64
	nPeriods        int
}

// NewProblem validates the input and normalizes scalar capacities into
// per-period sequences. No Problem is returned on failure.
func NewProblem(products []Product, production, remanufacturing Capacity) (*Problem, error) {
	if len(products) == 0 {
		return nil, invalid("products", "at least one product is required")
	}
	n := len(products[0].Demand)
	if n == 0 {
		return nil, invalid(productField(0, "demand"), "must cover at least one period")
	}
	for i, p := range products {
		if len(p.Demand) != n {
			return nil, invalid(productField(i, "demand"),
				"has %d periods, expected %d: every product's demand must have the same length", len(p.Demand), n)
		}
	}
	nRet := len(products[0].Returns)
	for i, p := range products {
		if len(p.Returns) != nRet {
			return nil, invalid(productField(i, "n_returns"),
				"has %d periods, expected %d: every product's returns must have the same length", len(p.Returns), nRet)
		}
	}
	if nRet != n {
		return nil, invalid("n_returns", "returns cover %d periods but demand covers %d", nRet, n)
	}
	for i, p := range products {
		if err := p.validate(i); err != nil {
			return nil, err
		}
	}

	prod, err := production.expand("production_capacity", n)
	if err != nil {
		return nil, err
	}
	reman, err := remanufacturing.expand("remanufacturing_capacity", n)
	if err != nil {
		return nil, err
	}
	for t := 0; t < n; t++ {
		if err := nonNegative(fmt.Sprintf("production_capacity[%d]", t), prod[t]); err != nil {
			return nil, err
		}
		if err := nonNegative(fmt.Sprintf("remanufacturing_capacity[%d]", t), reman[t]); err != nil {
			return nil, err
		}
	}

	ps := make([]Product, len(products))
	for i, p := range products {
		ps[i] = p.clone()
	}
	return &Problem{products: ps, productionCap: prod, remanufacturing: reman, nPeriods: n}, nil
}

// NPeriods returns the length of the planning horizon.
func (p *Problem) NPeriods() int { return p.nPeriods }

// NProducts returns the number of products.
func (p *Problem) NProducts() int { return len(p.products) }

// Periods returns the period indices 0..NPeriods()-1.
func (p *Problem) Periods() []int { return indices(p.nPeriods) }

// ProductIndices returns the product indices 0..NProducts()-1.
func (p *Problem) ProductIndices() []int { return indices(len(p.products)) }

// Product returns a copy of the i-th product.
func (p *Problem) Product(i int) Product { return p.products[i].clone() }

// Products returns copies of all products in order.
func (p *Problem) Products() []Product {
	out := make([]Product, len(p.products))
	for i, prod := range p.products {
		out[i] = prod.clone()
	}
	return out
}

// ProductionCapacity returns the production capacity of period t.
func (p *Problem) ProductionCapacity(t int) float64 { return p.productionCap[t] }

// RemanufacturingCapacity returns the remanufacturing capacity of period t.
func (p *Problem) RemanufacturingCapacity(t int) float64 { return p.remanufacturing[t] }

// ProductionCapacities returns a copy of the normalized production capacities.
func (p *Problem) ProductionCapacities() []float64 {
	return append([]float64(nil), p.productionCap...)
}

// RemanufacturingCapacities returns a copy of the normalized remanufacturing capacities.
func (p *Problem) RemanufacturingCapacities() []float64 {
	return append([]float64(nil), p.remanufacturing...)
}

// Demand returns the demand of product i in period t.
func (p *Problem) Demand(i, t int) int { return p.products[i].Demand[t] }

// Returns returns the forecast returns of product i in period t.
func (p *Problem) Returns(i, t int) int { return p.products[i].Returns[t] }

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func productField(i int, name string) string {
	return fmt.Sprintf("products[%d].%s", i, name)
}
