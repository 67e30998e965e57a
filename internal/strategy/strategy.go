package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"stockbacktest/internal/domain"

	"github.com/maja42/goval"
	"github.com/montanaflynn/stats"
)

// Strategy produces one day's selection and optional scores from the
// universe snapshot. Implementations must be pure per day: the day
// loop owns all cross-day state.
type Strategy interface {
	ProduceSelection(snapshot domain.UniverseSnapshot) (*domain.Selection, error)
}

// TopN selects the N securities with the highest value of one factor
// and scores them by that value.
type TopN struct {
	Factor     string
	NumTickers int
}

func (s TopN) ProduceSelection(snapshot domain.UniverseSnapshot) (*domain.Selection, error) {
	if s.NumTickers <= 0 {
		return nil, fmt.Errorf("topN strategy requires a positive ticker count, got %d", s.NumTickers)
	}

	type scored struct {
		Symbol string
		Value  float64
	}
	candidates := []scored{}
	for _, symbol := range snapshot.Symbols() {
		record := snapshot.Securities[symbol]
		value, ok := record.Factors[s.Factor]
		if !ok {
			continue
		}
		candidates = append(candidates, scored{Symbol: symbol, Value: value})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Value != candidates[j].Value {
			return candidates[i].Value > candidates[j].Value
		}
		// break score ties by symbol so runs are reproducible
		return candidates[i].Symbol < candidates[j].Symbol
	})

	if len(candidates) > s.NumTickers {
		candidates = candidates[:s.NumTickers]
	}

	selection := &domain.Selection{
		Symbols: make([]string, 0, len(candidates)),
		Scores:  make(map[string]float64, len(candidates)),
	}
	for _, c := range candidates {
		selection.Symbols = append(selection.Symbols, c.Symbol)
		selection.Scores[c.Symbol] = c.Value
	}
	return selection, nil
}

// FactorRule awards Points to every security whose factor value is at
// or above the day's cross-sectional quantile cutoff.
type FactorRule struct {
	Factor   string
	Quantile float64
	Points   float64
}

// CompositeScore scores each security by summing the points of the
// rules it clears and selects everything scoring at or above the
// threshold. Securities missing a rule's factor get no points for it.
type CompositeScore struct {
	Rules           []FactorRule
	SelectThreshold float64
}

func (s CompositeScore) ProduceSelection(snapshot domain.UniverseSnapshot) (*domain.Selection, error) {
	if len(s.Rules) == 0 {
		return nil, fmt.Errorf("composite score strategy requires at least one rule")
	}

	symbols := snapshot.Symbols()
	scores := make(map[string]float64, len(symbols))

	for _, rule := range s.Rules {
		if rule.Quantile <= 0 || rule.Quantile > 1 {
			return nil, fmt.Errorf("rule for factor %s has quantile %f outside (0, 1]", rule.Factor, rule.Quantile)
		}

		values := []float64{}
		for _, symbol := range symbols {
			if value, ok := snapshot.Securities[symbol].Factors[rule.Factor]; ok {
				values = append(values, value)
			}
		}
		if len(values) == 0 {
			continue
		}

		cutoff, err := stats.Percentile(values, rule.Quantile*100)
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s quantile cutoff on %v: %w", rule.Factor, snapshot.Date, err)
		}

		for _, symbol := range symbols {
			if value, ok := snapshot.Securities[symbol].Factors[rule.Factor]; ok && value >= cutoff {
				scores[symbol] += rule.Points
			}
		}
	}

	selection := &domain.Selection{
		Symbols: []string{},
		Scores:  map[string]float64{},
	}
	for _, symbol := range symbols {
		score := scores[symbol]
		if score >= s.SelectThreshold {
			selection.Symbols = append(selection.Symbols, symbol)
			selection.Scores[symbol] = score
		}
	}
	return selection, nil
}

var errFactorNotFound = errors.New("factor not found")

// ExpressionScore scores each security by evaluating a user-supplied
// expression over its factor values, e.g.
// `factor("momentum") - 0.5 * factor("volatility")`, and selects the N
// highest. Securities missing a referenced factor are skipped; any
// other evaluation failure aborts the day.
type ExpressionScore struct {
	Expression string
	NumTickers int
}

func (s ExpressionScore) ProduceSelection(snapshot domain.UniverseSnapshot) (*domain.Selection, error) {
	if s.Expression == "" {
		return nil, fmt.Errorf("expression strategy requires an expression")
	}
	if s.NumTickers <= 0 {
		return nil, fmt.Errorf("expression strategy requires a positive ticker count, got %d", s.NumTickers)
	}

	eval := goval.NewEvaluator()

	type scored struct {
		Symbol string
		Value  float64
	}
	candidates := []scored{}
	for _, symbol := range snapshot.Symbols() {
		record := snapshot.Securities[symbol]

		functions := map[string]goval.ExpressionFunction{
			"factor": func(args ...interface{}) (interface{}, error) {
				if len(args) < 1 {
					return 0, fmt.Errorf("factor needs 1 arg, got %d", len(args))
				}
				name, ok := args[0].(string)
				if !ok {
					return 0, fmt.Errorf("factor needs a string arg, got %v", args[0])
				}
				value, ok := record.Factors[name]
				if !ok {
					return 0, fmt.Errorf("%w: %s", errFactorNotFound, name)
				}
				return value, nil
			},
		}

		result, err := eval.Evaluate(s.Expression, nil, functions)
		if err != nil {
			if errors.Is(err, errFactorNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to evaluate score expression for %s on %v: %w", symbol, snapshot.Date, err)
		}

		value, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("score expression for %s did not produce a number, got %v", symbol, result)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("score expression for %s produced %f", symbol, value)
		}
		candidates = append(candidates, scored{Symbol: symbol, Value: value})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Value != candidates[j].Value {
			return candidates[i].Value > candidates[j].Value
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})

	if len(candidates) > s.NumTickers {
		candidates = candidates[:s.NumTickers]
	}

	selection := &domain.Selection{
		Symbols: make([]string, 0, len(candidates)),
		Scores:  make(map[string]float64, len(candidates)),
	}
	for _, c := range candidates {
		selection.Symbols = append(selection.Symbols, c.Symbol)
		selection.Scores[c.Symbol] = c.Value
	}
	return selection, nil
}
