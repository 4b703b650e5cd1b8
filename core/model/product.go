package model

import (
	"math"
)

// Product holds the cost, time and series data of one SKU.
type Product struct {
	// Holding cost per unit of serviceable (new or remanufactured) stock.
	InventoryCostNew float64 `json:"inventory_cost_new"`
	// Holding cost per unit of returned, recoverable stock.
	InventoryCostOld float64 `json:"inventory_cost_old"`

	ProductionCost           float64 `json:"production_cost"`
	ProductionSetupCost      float64 `json:"production_setup_cost"`
	RemanufacturingCost      float64 `json:"remanufacturing_cost"`
	RemanufacturingSetupCost float64 `json:"remanufacturing_setup_cost"`

	// Demand per period.
	Demand []int `json:"demand"`
	// Returns is the forecast number of units returned per period.
	Returns []int `json:"n_returns"`

	ProductionTime           float64 `json:"production_time"`
	RemanufacturingTime      float64 `json:"remanufacturing_time"`
	ProductionSetupTime      float64 `json:"production_setup_time"`
	RemanufacturingSetupTime float64 `json:"remanufacturing_setup_time"`
}

// clone returns a deep copy so a Problem never shares series with its caller.
func (p Product) clone() Product {
	cp := p
	cp.Demand = append([]int(nil), p.Demand...)
	cp.Returns = append([]int(nil), p.Returns...)
	return cp
}

// validate requires finite coefficients and non-negative series. Costs and
// times may be negative.
func (p Product) validate(idx int) error {
	coefs := []struct {
		name string
		v    float64
	}{
		{"inventory_cost_new", p.InventoryCostNew},
		{"inventory_cost_old", p.InventoryCostOld},
		{"production_cost", p.ProductionCost},
		{"production_setup_cost", p.ProductionSetupCost},
		{"remanufacturing_cost", p.RemanufacturingCost},
		{"remanufacturing_setup_cost", p.RemanufacturingSetupCost},
		{"production_time", p.ProductionTime},
		{"remanufacturing_time", p.RemanufacturingTime},
		{"production_setup_time", p.ProductionSetupTime},
		{"remanufacturing_setup_time", p.RemanufacturingSetupTime},
	}
	for _, c := range coefs {
		if err := finite(productField(idx, c.name), c.v); err != nil {
			return err
		}
	}
	for t, d := range p.Demand {
		if d < 0 {
			return invalid(productField(idx, "demand"), "period %d is negative (%d)", t, d)
		}
	}
	for t, r := range p.Returns {
		if r < 0 {
			return invalid(productField(idx, "n_returns"), "period %d is negative (%d)", t, r)
		}
	}
	return nil
}

// Negative returns true when any cost or time coefficient is below zero.
func (p Product) Negative() bool {
	for _, v := range []float64{
		p.InventoryCostNew, p.InventoryCostOld,
		p.ProductionCost, p.ProductionSetupCost,
		p.RemanufacturingCost, p.RemanufacturingSetupCost,
		p.ProductionTime, p.RemanufacturingTime,
		p.ProductionSetupTime, p.RemanufacturingSetupTime,
	} {
		if v < 0 {
			return true
		}
	}
	return false
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be finite")
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return invalid(field, "must not be negative (%g)", v)
	}
	return nil
}
