package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LooseString accepts a JSON string or number. Room numbers arrive both ways.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = LooseString(strings.TrimSpace(raw))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(num.String())
	return nil
}

func (s LooseString) String() string {
	return string(s)
}

// Quantity is a line-item count. Numbers and numeric strings are accepted;
// anything else (booleans, words, null) coerces to zero. Valid reports
// whether the value is a whole, non-negative count.
type Quantity struct {
	Value   float64
	Present bool
	Numeric bool
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*q = Quantity{Present: true}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	q.Value = value
	q.Numeric = true
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Value)
}

// NewQuantity builds a numeric quantity.
func NewQuantity(n int) Quantity {
	return Quantity{Value: float64(n), Present: true, Numeric: true}
}

// Valid reports whether the quantity is a whole, non-negative number (or coerced zero).
func (q Quantity) Valid() bool {
	return q.Value >= 0 && q.Value == math.Trunc(q.Value) && q.Value <= math.MaxInt32
}

// Int returns the whole count; callers check Valid first.
func (q Quantity) Int() int {
	return int(q.Value)
}
