package exchange

import (
	"math"
	"strings"
)

// DEFAULT_SLIPPAGE is the default max slippage for market orders (5%)
const DEFAULT_SLIPPAGE = 0.05

// agentRejections are the exchange's answers to actions signed by an agent
// it no longer accepts. Every fragment of a rule must appear.
var agentRejections = [][]string{
	{"user or api wallet", "does not exist"},
	{"api wallet", "expired"},
	{"agent", "expired"},
}

func isAgentUnauthorized(reason string) bool {
	r := strings.ToLower(reason)
	for _, rule := range agentRejections {
		if containsAll(r, rule) {
			return true
		}
	}
	return false
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}

// SlippagePrice turns a mid price into the aggressive limit price of a
// market order: slippage applied in the trade's direction, then 5
// significant figures, then at most (6 or 8 for spot) - szDecimals
// decimals.
func SlippagePrice(mid float64, isBuy bool, slippage float64, szDecimals int, isSpot bool) float64 {
	px := mid
	if isBuy {
		px = px * (1 + slippage)
	} else {
		px = px * (1 - slippage)
	}

	px = roundToSigfig(px, 5)

	baseDecimals := 6
	if isSpot {
		baseDecimals = 8
	}

	return roundToDecimals(px, baseDecimals-szDecimals)
}

// roundToSigfig rounds x to n significant figures.
func roundToSigfig(x float64, n int) float64 {
	if x == 0 {
		return 0
	}
	d := math.Ceil(math.Log10(math.Abs(x)))
	power := float64(n) - d
	factor := math.Pow(10, power)
	return math.Round(x*factor) / factor
}

// roundToDecimals rounds half to even, and to tens, hundreds, ... for
// negative ndigits.
func roundToDecimals(x float64, ndigits int) float64 {
	if ndigits >= 0 {
		factor := math.Pow(10, float64(ndigits))
		return math.RoundToEven(x*factor) / factor
	}

	factor := math.Pow(10, float64(-ndigits))
	return math.RoundToEven(x/factor) * factor
}
