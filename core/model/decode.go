package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// input is the raw planning payload before validation. Every field is
// required; pointers tell an absent or null field apart from a zero.
type input struct {
	Products                []rawProduct `json:"products"`
	ProductionCapacity      *Capacity    `json:"production_capacity"`
	RemanufacturingCapacity *Capacity    `json:"remanufacturing_capacity"`
}

type rawProduct struct {
	InventoryCostNew         *float64 `json:"inventory_cost_new"`
	InventoryCostOld         *float64 `json:"inventory_cost_old"`
	ProductionCost           *float64 `json:"production_cost"`
	ProductionSetupCost      *float64 `json:"production_setup_cost"`
	RemanufacturingCost      *float64 `json:"remanufacturing_cost"`
	RemanufacturingSetupCost *float64 `json:"remanufacturing_setup_cost"`
	Demand                   []*int   `json:"demand"`
	Returns                  []*int   `json:"n_returns"`
	ProductionTime           *float64 `json:"production_time"`
	RemanufacturingTime      *float64 `json:"remanufacturing_time"`
	ProductionSetupTime      *float64 `json:"production_setup_time"`
	RemanufacturingSetupTime *float64 `json:"remanufacturing_setup_time"`
}

func (r rawProduct) product(idx int) (Product, error) {
	var p Product
	coefs := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"inventory_cost_new", r.InventoryCostNew, &p.InventoryCostNew},
		{"inventory_cost_old", r.InventoryCostOld, &p.InventoryCostOld},
		{"production_cost", r.ProductionCost, &p.ProductionCost},
		{"production_setup_cost", r.ProductionSetupCost, &p.ProductionSetupCost},
		{"remanufacturing_cost", r.RemanufacturingCost, &p.RemanufacturingCost},
		{"remanufacturing_setup_cost", r.RemanufacturingSetupCost, &p.RemanufacturingSetupCost},
		{"production_time", r.ProductionTime, &p.ProductionTime},
		{"remanufacturing_time", r.RemanufacturingTime, &p.RemanufacturingTime},
		{"production_setup_time", r.ProductionSetupTime, &p.ProductionSetupTime},
		{"remanufacturing_setup_time", r.RemanufacturingSetupTime, &p.RemanufacturingSetupTime},
	}
	for _, c := range coefs {
		if c.src == nil {
			return Product{}, invalid(productField(idx, c.name), "is required")
		}
		*c.dst = *c.src
	}
	var err error
	if p.Demand, err = series(productField(idx, "demand"), r.Demand); err != nil {
		return Product{}, err
	}
	if p.Returns, err = series(productField(idx, "n_returns"), r.Returns); err != nil {
		return Product{}, err
	}
	return p, nil
}

func series(field string, vs []*int) ([]int, error) {
	if vs == nil {
		return nil, invalid(field, "is required")
	}
	out := make([]int, len(vs))
	for t, v := range vs {
		if v == nil {
			return nil, invalid(field, "period %d is null", t)
		}
		out[t] = *v
	}
	return out, nil
}

// problem checks that every field is present, then validates the payload.
func (in input) problem() (*Problem, error) {
	if in.Products == nil {
		return nil, invalid("products", "is required")
	}
	if in.ProductionCapacity == nil {
		return nil, invalid("production_capacity", "is required")
	}
	if in.RemanufacturingCapacity == nil {
		return nil, invalid("remanufacturing_capacity", "is required")
	}
	products := make([]Product, len(in.Products))
	for i, r := range in.Products {
		p, err := r.product(i)
		if err != nil {
			return nil, err
		}
		products[i] = p
	}
	return NewProblem(products, *in.ProductionCapacity, *in.RemanufacturingCapacity)
}

// Decode reads one JSON problem record and validates it.
func Decode(r io.Reader) (*Problem, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var in input
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode problem: %w", err)
	}
	return in.problem()
}

// Load decodes the problem stored at path.
func Load(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
