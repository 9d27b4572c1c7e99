package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNotFinite   = errors.New("value is not finite")
	ErrNotPositive = errors.New("value must be greater than zero")
)

// FloatToWire converts a float64 to the exchange's decimal string format:
// at most 8 decimals, trailing zeros trimmed.
func FloatToWire(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("invalid float value: %v", x)
	}

	rounded := math.Round(x*1e8) / 1e8
	if math.Abs(x-rounded) > 1e-12 {
		return "", fmt.Errorf(
			"float precision loss: %v rounds to %v",
			x,
			rounded,
		)
	}

	formatted := strconv.FormatFloat(rounded, 'f', 8, 64)
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}

	if formatted == "-0" {
		formatted = "0"
	}

	return formatted, nil
}

// FloatToInt scales x by 10^power and converts it to int64.
// Returns an error if the scaled value is not within 1e-3 of an integer.
func FloatToInt(x float64, power int64) (int64, error) {
	withDecimals := x * math.Pow10(int(power))
	rounded := math.Round(withDecimals)

	if math.Abs(rounded-withDecimals) >= 1e-3 {
		return 0, fmt.Errorf("%v cannot be represented with %d decimals", x, power)
	}
	if rounded > math.MaxInt64 || rounded < math.MinInt64 {
		return 0, fmt.Errorf("%v overflows int64 at %d decimals", x, power)
	}

	return int64(rounded), nil
}

// FloatToUsdInt converts a USD float to an int scaled by 1e6.
func FloatToUsdInt(x float64) (int64, error) {
	return FloatToInt(x, 6)
}

// FloatToWei converts a staking token amount to its integer wei form
// (8 decimals for the native token).
func FloatToWei(x float64) (uint64, error) {
	v, err := FloatToInt(x, 8)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrNotPositive
	}
	return uint64(v), nil
}

// StringToFloat converts a decimal string to float64.
func StringToFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// RequirePositive returns an error unless x is finite and strictly positive.
func RequirePositive(x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ErrNotFinite
	}
	if x <= 0 {
		return ErrNotPositive
	}
	return nil
}

// ParsePositive parses s and applies RequirePositive.
func ParsePositive(s string) (float64, error) {
	x, err := StringToFloat(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if err := RequirePositive(x); err != nil {
		return 0, err
	}
	return x, nil
}
