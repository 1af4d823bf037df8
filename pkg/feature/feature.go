package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	EmailEngagement = "emailEngagement"
	VisitFrequency  = "visitFrequency"
	PricingInterest = "pricingInterest"
	DemoInterest    = "demoInterest"
)

var (
	// Columns is the column order the models were trained with.
	Columns = []string{
		EmailEngagement,
		VisitFrequency,
		PricingInterest,
		DemoInterest,
	}

	ErrInputShape = errors.New("Input must be a JSON object or array of objects")
)

// InvalidJSONError is returned when the input is not parsable JSON.
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("Invalid JSON input: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Err
}

// Set is a single feature set as supplied by the caller. Values are kept
// raw so that non-numeric input surfaces at matrix build time.
type Set map[string]any

// Vector returns the set's values in column order, 0 for missing keys.
func (s Set) Vector() ([]float64, error) {
	v := make([]float64, len(Columns))
	for i, name := range Columns {
		raw, ok := s[name]
		if !ok {
			continue
		}
		f, err := toFloat(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %s", name)
		}
		v[i] = f
	}
	return v, nil
}

// Matrix builds one row per set, preserving input order.
func Matrix(sets []Set) ([][]float64, error) {
	x := make([][]float64, len(sets))
	for i, s := range sets {
		row, err := s.Vector()
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		x[i] = row
	}
	return x, nil
}

// ParseInput accepts either one JSON object or an array of objects.
func ParseInput(b []byte) ([]Set, error) {
	b = bytes.TrimSpace(b)

	var raw any
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&raw); err != nil {
		return nil, &InvalidJSONError{Err: err}
	}
	if _, err := d.Token(); err != io.EOF {
		return nil, &InvalidJSONError{Err: errors.New("extra data after JSON value")}
	}

	switch v := raw.(type) {
	case map[string]any:
		return []Set{v}, nil
	case []any:
		sets := make([]Set, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, ErrInputShape
			}
			sets = append(sets, m)
		}
		return sets, nil
	default:
		return nil, ErrInputShape
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.Wrapf(err, "invalid number %q", n.String())
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, errors.Errorf("non-numeric value %v (%T)", v, v)
	}
}
