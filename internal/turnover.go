package internal

import (
	"math"
	"stockbacktest/internal/domain"
)

// Turnover measures the reallocation between two consecutive weight
// vectors under the one-way convention: half the sum of absolute
// weight changes over the union of symbols, so a full portfolio
// replacement is 1.0, not 2.0. Day 0 passes an empty prev vector and
// the initial deployment counts as turnover.
func Turnover(prevWeights, newWeights domain.WeightVector) float64 {
	totalChange := 0.0
	for symbol, newWeight := range newWeights {
		totalChange += math.Abs(newWeight - prevWeights[symbol])
	}
	for symbol, prevWeight := range prevWeights {
		if _, ok := newWeights[symbol]; !ok {
			totalChange += math.Abs(prevWeight)
		}
	}
	return totalChange / 2.0
}

// TransactionCost charges a flat fee rate per unit of notional traded.
func TransactionCost(turnover, feeRate float64) float64 {
	return turnover * feeRate
}
