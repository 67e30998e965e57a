package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// tolerance for weight-sum checks. weights come out of float division
// so exact comparisons against 1 are too strict
const weightSumEpsilon = 1e-9

// WeightVector maps a security symbol to its portfolio weight on one
// day. Symbols absent from the map hold implicit weight zero. The
// residual (1 - sum of weights) is cash.
type WeightVector map[string]float64

func NewWeightVector() WeightVector {
	return WeightVector{}
}

func (w WeightVector) TotalWeight() float64 {
	sum := 0.0
	for _, weight := range w {
		sum += weight
	}
	return sum
}

// HeldSymbols returns the symbols with nonzero weight, sorted so
// downstream exports are deterministic.
func (w WeightVector) HeldSymbols() []string {
	symbols := []string{}
	for symbol, weight := range w {
		if weight > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

func (w WeightVector) NumHoldings() int {
	n := 0
	for _, weight := range w {
		if weight > 0 {
			n++
		}
	}
	return n
}

func (w WeightVector) DeepCopy() WeightVector {
	newVector := make(WeightVector, len(w))
	for symbol, weight := range w {
		newVector[symbol] = weight
	}
	return newVector
}

// Validate checks the long-only invariants: no negative weight, no
// NaN, and total weight at most 1 (cash residual is allowed).
func (w WeightVector) Validate() error {
	sum := 0.0
	for symbol, weight := range w {
		if math.IsNaN(weight) {
			return fmt.Errorf("invalid weight NaN for %s", symbol)
		}
		if weight < 0 {
			return fmt.Errorf("negative weight %f for %s", weight, symbol)
		}
		sum += weight
	}
	if sum > 1+weightSumEpsilon {
		return fmt.Errorf("weights should sum to at most 1, got %f", sum)
	}
	return nil
}

// SecurityRecord is one (day, security) row of pre-materialized market
// data. NextReturn is the realized next-period return; nil means the
// value is missing, which is only an error if the security ends up
// holding weight. A nil Tradable defaults to tradable.
type SecurityRecord struct {
	Symbol     string
	NextReturn *float64
	Tradable   *bool
	Factors    map[string]float64
}

func (r SecurityRecord) IsTradable() bool {
	if r.Tradable == nil {
		return true
	}
	return *r.Tradable
}

// UniverseSnapshot is everything known about the eligible universe on
// one trading day, assembled by a market data source before the run.
type UniverseSnapshot struct {
	Date            time.Time
	Securities      map[string]SecurityRecord
	BenchmarkReturn *float64
}

// Symbols returns the universe symbols in sorted order.
func (s UniverseSnapshot) Symbols() []string {
	symbols := make([]string, 0, len(s.Securities))
	for symbol := range s.Securities {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Selection is a strategy's output for one day: the chosen symbols and
// optionally a score per symbol. A nil Scores map means every selected
// symbol is equally preferred.
type Selection struct {
	Symbols []string
	Scores  map[string]float64
}

// DailyHoldings pairs a day with the weight vector emitted for it.
// Vectors are treated as immutable once recorded.
type DailyHoldings struct {
	Date    time.Time
	Weights WeightVector
}
