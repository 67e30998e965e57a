package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DailyResult is one day of the backtest output: the cost-adjusted
// return and everything needed to reconstruct it. ExcessReturn is nil
// when no benchmark return was supplied for the day.
type DailyResult struct {
	Date         time.Time
	GrossReturn  float64
	NetReturn    float64
	ExcessReturn *float64
	Turnover     float64
	Cost         float64
	NumHoldings  int
	// NetValue is the compounded value of one unit of starting
	// capital through the end of this day
	NetValue decimal.Decimal
}

// ReturnSeries accumulates one DailyResult per trading day in
// chronological order, threading the compounded net value through each
// append. It must be finalized before metrics are computed over it.
type ReturnSeries struct {
	Days      []DailyResult
	finalized bool
}

func NewReturnSeries() *ReturnSeries {
	return &ReturnSeries{Days: []DailyResult{}}
}

// Append records a day and compounds the running net value:
// value_t = value_{t-1} * (1 + netReturn_t), starting from 1.0.
func (s *ReturnSeries) Append(result DailyResult) error {
	if s.finalized {
		return fmt.Errorf("cannot append to finalized return series")
	}
	if len(s.Days) > 0 && !s.Days[len(s.Days)-1].Date.Before(result.Date) {
		return fmt.Errorf("return series must be appended in chronological order: %v then %v", s.Days[len(s.Days)-1].Date, result.Date)
	}

	lastValue := decimal.NewFromInt(1)
	if len(s.Days) > 0 {
		lastValue = s.Days[len(s.Days)-1].NetValue
	}
	result.NetValue = lastValue.Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(result.NetReturn)))

	s.Days = append(s.Days, result)
	return nil
}

// Finalize freezes the series. Metrics computation requires a
// finalized series so identical inputs always produce identical
// reports.
func (s *ReturnSeries) Finalize() {
	s.finalized = true
}

func (s *ReturnSeries) Finalized() bool {
	return s.finalized
}

func (s *ReturnSeries) Len() int {
	return len(s.Days)
}

// NetReturns returns the net daily returns in order.
func (s *ReturnSeries) NetReturns() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.NetReturn
	}
	return out
}

// ExcessReturns returns the benchmark-relative daily returns for the
// days that have one, preserving order.
func (s *ReturnSeries) ExcessReturns() []float64 {
	out := []float64{}
	for _, d := range s.Days {
		if d.ExcessReturn != nil {
			out = append(out, *d.ExcessReturn)
		}
	}
	return out
}
