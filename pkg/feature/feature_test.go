package feature

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput_Object(t *testing.T) {
	sets, err := ParseInput([]byte(`{"emailEngagement":5,"visitFrequency":2,"pricingInterest":1,"demoInterest":0}`))
	require.NoError(t, err)
	require.Len(t, sets, 1)

	v, err := sets[0].Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 2, 1, 0}, v)
}

func TestParseInput_Array(t *testing.T) {
	sets, err := ParseInput([]byte(`[{"emailEngagement":1},{"visitFrequency":2},{"demoInterest":3}]`))
	require.NoError(t, err)
	require.Len(t, sets, 3)

	x, err := Matrix(sets)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{
		{1, 0, 0, 0},
		{0, 2, 0, 0},
		{0, 0, 0, 3},
	}, x)
}

func TestParseInput_EmptyArray(t *testing.T) {
	sets, err := ParseInput([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestParseInput_InvalidJSON(t *testing.T) {
	tests := []string{"not json", "", "{", `{"a":1} trailing`, `{} 1`, `{}]`, `{}}`, `[{}]]`}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseInput([]byte(in))
			require.Error(t, err)

			var jerr *InvalidJSONError
			require.True(t, errors.As(err, &jerr))
			assert.Contains(t, err.Error(), "Invalid JSON input: ")
		})
	}
}

func TestParseInput_WrongShape(t *testing.T) {
	tests := []string{`42`, `"text"`, `null`, `[1, 2]`, `[{"a":1}, "b"]`}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseInput([]byte(in))
			assert.ErrorIs(t, err, ErrInputShape)
		})
	}
}

func TestVector_MissingDefaultsToZero(t *testing.T) {
	empty, err := Set{}.Vector()
	require.NoError(t, err)

	zeros, err := Set{
		EmailEngagement: 0.0,
		VisitFrequency:  0.0,
		PricingInterest: 0.0,
		DemoInterest:    0.0,
	}.Vector()
	require.NoError(t, err)

	assert.Equal(t, zeros, empty)
}

func TestVector_IgnoresUnknownKeys(t *testing.T) {
	v, err := Set{"somethingElse": "x", PricingInterest: 1.5}.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1.5, 0}, v)
}

func TestVector_Bool(t *testing.T) {
	v, err := Set{DemoInterest: true, EmailEngagement: false}.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1}, v)
}

func TestVector_NonNumeric(t *testing.T) {
	_, err := Set{VisitFrequency: "often"}.Vector()
	assert.Error(t, err)

	_, err = Set{VisitFrequency: nil}.Vector()
	assert.Error(t, err)
}

func TestMatrix_ReportsRow(t *testing.T) {
	_, err := Matrix([]Set{{}, {DemoInterest: "yes"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}
