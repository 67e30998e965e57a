package internal

import (
	"stockbacktest/internal/domain"
	"time"
)

type ComposeDailyReturnInput struct {
	Date    time.Time
	Weights domain.WeightVector
	// ForwardReturns maps symbol -> realized next-period return. A
	// nil entry for a symbol holding weight is a data-integrity
	// failure, never a silent zero.
	ForwardReturns map[string]*float64
	Cost           float64
	// BenchmarkReturn nil means no excess return for the day
	BenchmarkReturn *float64
}

type ComposeDailyReturnResult struct {
	GrossReturn  float64
	NetReturn    float64
	ExcessReturn *float64
}

// ComposeDailyReturn turns one day's weights and realized forward
// returns into the cost-adjusted portfolio return, and the
// benchmark-relative return when a benchmark value is present.
func ComposeDailyReturn(in ComposeDailyReturnInput) (*ComposeDailyReturnResult, error) {
	gross := 0.0
	for symbol, weight := range in.Weights {
		if weight == 0 {
			continue
		}
		forwardReturn, ok := in.ForwardReturns[symbol]
		if !ok || forwardReturn == nil {
			return nil, domain.MissingReturnDataError{Date: in.Date, Symbol: symbol}
		}
		gross += weight * *forwardReturn
	}

	net := gross - in.Cost

	result := &ComposeDailyReturnResult{
		GrossReturn: gross,
		NetReturn:   net,
	}
	if in.BenchmarkReturn != nil {
		excess := net - *in.BenchmarkReturn
		result.ExcessReturn = &excess
	}
	return result, nil
}
