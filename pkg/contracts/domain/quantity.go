package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Tolerance is the absolute tolerance used when comparing aggregated figures.
const Tolerance = 1e-6

// Quantity is an optional numeric figure taken from a report cell.
// The zero value is absent, which is distinct from a present zero:
// exchanges publish true zero positions and those must survive aggregation.
type Quantity struct {
	value float64
	valid bool
}

// Some returns a present quantity.
func Some(v float64) Quantity {
	return Quantity{value: v, valid: true}
}

// None returns an absent quantity.
func None() Quantity {
	return Quantity{}
}

// Valid reports whether the quantity is present.
func (q Quantity) Valid() bool { return q.valid }

// Get returns the value and whether it is present.
func (q Quantity) Get() (float64, bool) { return q.value, q.valid }

// Or returns the value, or def when absent.
func (q Quantity) Or(def float64) float64 {
	if !q.valid {
		return def
	}
	return q.value
}

// Ptr returns a pointer copy of the value, nil when absent.
func (q Quantity) Ptr() *float64 {
	if !q.valid {
		return nil
	}
	v := q.value
	return &v
}

// FromPtr converts a nullable float into a Quantity.
func FromPtr(p *float64) Quantity {
	if p == nil {
		return None()
	}
	return Some(*p)
}

// Add sums two quantities. Absent operands are skipped; the result is
// absent only when both operands are absent.
func (q Quantity) Add(o Quantity) Quantity {
	switch {
	case q.valid && o.valid:
		return Some(q.value + o.value)
	case q.valid:
		return q
	default:
		return o
	}
}

// Sub subtracts o from q with the same absence rule as Add.
func (q Quantity) Sub(o Quantity) Quantity {
	if o.valid {
		o.value = -o.value
	}
	return q.Add(o)
}

// Equal compares two quantities within Tolerance.
func (q Quantity) Equal(o Quantity) bool {
	if q.valid != o.valid {
		return false
	}
	return !q.valid || math.Abs(q.value-o.value) <= Tolerance
}

// String renders the value, or an empty string when absent.
func (q Quantity) String() string {
	if !q.valid {
		return ""
	}
	return strconv.FormatFloat(q.value, 'f', -1, 64)
}

// MarshalJSON encodes an absent quantity as null.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.valid {
		return []byte("null"), nil
	}
	return json.Marshal(q.value)
}

// UnmarshalJSON decodes null as absent.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = Some(v)
	return nil
}

// SumQuantities adds every present quantity; absent when none is present.
func SumQuantities(qs ...Quantity) Quantity {
	total := None()
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}
