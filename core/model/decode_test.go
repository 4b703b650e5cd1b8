package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPeriodPayload = `{
  "products": [{
    "inventory_cost_new": 1, "inventory_cost_old": 0.5,
    "production_cost": 10, "production_setup_cost": 100,
    "remanufacturing_cost": 5, "remanufacturing_setup_cost": 40,
    "demand": [10, 20], "n_returns": [5, 5],
    "production_time": 1, "remanufacturing_time": 2,
    "production_setup_time": 3, "remanufacturing_setup_time": 4
  }],
  "production_capacity": 100,
  "remanufacturing_capacity": [50, 60]
}`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(twoPeriodPayload))
	require.NoError(t, err)

	assert.Equal(t, 2, p.NPeriods())
	assert.Equal(t, []float64{100, 100}, p.ProductionCapacities())
	assert.Equal(t, []float64{50, 60}, p.RemanufacturingCapacities())
	prod := p.Product(0)
	assert.Equal(t, 0.5, prod.InventoryCostOld)
	assert.Equal(t, 40.0, prod.RemanufacturingSetupCost)
	assert.Equal(t, []int{5, 5}, prod.Returns)
	assert.Equal(t, 4.0, prod.RemanufacturingSetupTime)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"products": [], "capacity": 1}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestDecodeValidates(t *testing.T) {
	payload := strings.Replace(twoPeriodPayload, `[50, 60]`, `[50]`, 1)
	_, err := Decode(strings.NewReader(payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// payload returns twoPeriodPayload after edit has modified its decoded form.
func payload(t *testing.T, edit func(doc map[string]any, prod map[string]any)) string {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(twoPeriodPayload), &doc))
	edit(doc, doc["products"].([]any)[0].(map[string]any))
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(out)
}

func TestDecodeRequiresEveryField(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(doc, prod map[string]any)
		field string
	}{
		{"empty product", func(doc, _ map[string]any) { doc["products"] = []any{map[string]any{}} }, "products[0].inventory_cost_new"},
		{"missing cost", func(_, prod map[string]any) { delete(prod, "remanufacturing_setup_cost") }, "products[0].remanufacturing_setup_cost"},
		{"null time", func(_, prod map[string]any) { prod["production_time"] = nil }, "products[0].production_time"},
		{"missing demand", func(_, prod map[string]any) { delete(prod, "demand") }, "products[0].demand"},
		{"null returns", func(_, prod map[string]any) { prod["n_returns"] = nil }, "products[0].n_returns"},
		{"null demand entry", func(_, prod map[string]any) { prod["demand"] = []any{10, nil} }, "products[0].demand"},
		{"empty horizon", func(_, prod map[string]any) { prod["demand"], prod["n_returns"] = []any{}, []any{} }, "products[0].demand"},
		{"missing products", func(doc, _ map[string]any) { delete(doc, "products") }, "products"},
		{"null production capacity", func(doc, _ map[string]any) { doc["production_capacity"] = nil }, "production_capacity"},
		{"missing remanufacturing capacity", func(doc, _ map[string]any) { delete(doc, "remanufacturing_capacity") }, "remanufacturing_capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(strings.NewReader(payload(t, tt.edit)))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidInput)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDecodeRejectsNullCapacityEntry(t *testing.T) {
	in := payload(t, func(doc, _ map[string]any) { doc["remanufacturing_capacity"] = []any{50, nil} })
	_, err := Decode(strings.NewReader(in))
	assert.ErrorContains(t, err, "must not be null")
}

func TestCapacityJSON(t *testing.T) {
	var c Capacity
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &c))
	assert.True(t, c.IsScalar())
	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `12.5`, string(out))

	require.NoError(t, json.Unmarshal([]byte(` [1, 2, 3]`), &c))
	assert.False(t, c.IsScalar())
	out, err = json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`null`), &c))
}
