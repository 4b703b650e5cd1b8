package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNullCapacity = errors.New("capacity must not be null")

// Capacity is a per-period capacity given either as one value for the whole
// horizon or as an explicit sequence. It only exists at the input boundary;
// a Problem stores the normalized sequence.
type Capacity struct {
	scalar   float64
	values   []float64
	isScalar bool
}

// Scalar returns a capacity broadcast to every period.
func Scalar(v float64) Capacity { return Capacity{scalar: v, isScalar: true} }

// PerPeriod returns an explicit capacity sequence.
func PerPeriod(vs ...float64) Capacity {
	cp := make([]float64, len(vs))
	copy(cp, vs)
	return Capacity{values: cp}
}

// IsScalar reports whether the capacity was given as a single value.
func (c Capacity) IsScalar() bool { return c.isScalar }

// expand returns the capacity as a sequence of n periods.
func (c Capacity) expand(field string, n int) ([]float64, error) {
	if c.isScalar {
		out := make([]float64, n)
		for i := range out {
			out[i] = c.scalar
		}
		return out, nil
	}
	if len(c.values) != n {
		return nil, invalid(field, "has %d entries, expected one per period (%d)", len(c.values), n)
	}
	out := make([]float64, n)
	copy(out, c.values)
	return out, nil
}

// UnmarshalJSON accepts a number or an array of numbers. null is rejected,
// alone or as a list entry.
func (c *Capacity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return errNullCapacity
	}
	if len(data) > 0 && data[0] == '[' {
		var raw []*float64
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("capacity list: %w", err)
		}
		vs := make([]float64, len(raw))
		for t, v := range raw {
			if v == nil {
				return fmt.Errorf("capacity list: period %d: %w", t, errNullCapacity)
			}
			vs[t] = *v
		}
		*c = PerPeriod(vs...)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("capacity must be a number or a list of numbers: %w", err)
	}
	*c = Scalar(v)
	return nil
}

// MarshalJSON writes the capacity in the same shape it was given.
func (c Capacity) MarshalJSON() ([]byte, error) {
	if c.isScalar {
		return json.Marshal(c.scalar)
	}
	if c.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.values)
}
