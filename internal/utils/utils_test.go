package utils

import (
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func TestFloatToWire(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0.0, expected: "0"},
		{name: "negative zero", input: math.Copysign(0.0, -1.0), expected: "0"},
		{name: "trailing zeros trimmed", input: 1.23, expected: "1.23"},
		{name: "full 8 decimals", input: 1.23456789, expected: "1.23456789"},
		{name: "smallest unit", input: 0.00000001, expected: "0.00000001"},
		{name: "integer", input: 42, expected: "42"},
		{name: "order price", input: 1670.1, expected: "1670.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FloatToWire(tt.input)
			td.CmpNoError(t, err)
			td.Cmp(t, got, tt.expected)
		})
	}
}

func TestFloatToWireRejects(t *testing.T) {
	t.Parallel()
	for name, input := range map[string]float64{
		"NaN":            math.NaN(),
		"+Inf":           math.Inf(1),
		"-Inf":           math.Inf(-1),
		"precision loss": 1.00000000001,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FloatToWire(input)
			td.CmpError(t, err)
		})
	}
}

func TestFloatToInt(t *testing.T) {
	t.Parallel()

	got, err := FloatToUsdInt(12.5)
	td.CmpNoError(t, err)
	td.Cmp(t, got, int64(12_500_000))

	_, err = FloatToUsdInt(0.0000001)
	td.CmpError(t, err)

	wei, err := FloatToWei(1.5)
	td.CmpNoError(t, err)
	td.Cmp(t, wei, uint64(150_000_000))

	_, err = FloatToWei(-1)
	td.CmpErrorIs(t, err, ErrNotPositive)
}

func TestRequirePositive(t *testing.T) {
	t.Parallel()

	td.CmpNoError(t, RequirePositive(0.01))
	td.CmpErrorIs(t, RequirePositive(0), ErrNotPositive)
	td.CmpErrorIs(t, RequirePositive(-5), ErrNotPositive)
	td.CmpErrorIs(t, RequirePositive(math.NaN()), ErrNotFinite)
	td.CmpErrorIs(t, RequirePositive(math.Inf(1)), ErrNotFinite)
}

func TestParsePositive(t *testing.T) {
	t.Parallel()

	v, err := ParsePositive(" 10.25 ")
	td.CmpNoError(t, err)
	td.Cmp(t, v, 10.25)

	for _, in := range []string{"0", "-5", "abc", "", "NaN", "Inf"} {
		_, err := ParsePositive(in)
		td.CmpError(t, err, in)
	}
}
