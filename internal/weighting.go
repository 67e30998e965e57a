package internal

import (
	"fmt"
	"stockbacktest/internal/domain"
	"strings"
	"time"
)

// Figure out what the portfolio should hold today given
// the strategy's picks and yesterday's weights.

/**
the partition is the whole trick here. every symbol touched today falls
into exactly one of three groups:

  (a) selected and tradable      -> gets a computed target weight
  (b) held, unselected, tradable -> liquidated (weight 0, so omitted)
  (c) held and NOT tradable      -> frozen at yesterday's weight

group (c) is carried even if the symbol dropped out of the selection,
so the capital available to group (a) is whatever the frozen carries
leave behind. we do NOT renormalize that excess away - tradability
constraints take priority over full capital deployment.
*/

type WeightingMode string

const (
	// split the deployable capital evenly across selected names
	WeightingMode_EqualWeight WeightingMode = "EQUAL"
	// split proportionally to each name's score
	WeightingMode_ScoreProportional WeightingMode = "SCORE_PROPORTIONAL"
)

func NewWeightingMode(s string) (*WeightingMode, error) {
	m := map[string]WeightingMode{
		"EQUAL":              WeightingMode_EqualWeight,
		"SCORE_PROPORTIONAL": WeightingMode_ScoreProportional,
	}
	for k, v := range m {
		if normalizeEnum(k) == normalizeEnum(s) {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("could not convert '%s' to known weighting mode", s)
}

func normalizeEnum(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "_", ""))
}

type AllocateWeightsInput struct {
	Date        time.Time
	PrevWeights domain.WeightVector
	Selected    []string
	// ScoresBySymbol may be nil - all selected symbols are then
	// equally weighted regardless of Mode
	ScoresBySymbol map[string]float64
	// TradableBySymbol entries absent from the map default to tradable
	TradableBySymbol map[string]bool
	Mode             WeightingMode
}

// AllocateWeights produces the day's weight vector from yesterday's
// weights and today's selection, honoring tradability. An empty
// selection goes fully to cash except for frozen non-tradable carries.
func AllocateWeights(in AllocateWeightsInput) (domain.WeightVector, error) {
	newWeights := domain.NewWeightVector()

	// carry forward positions that cannot be traded today,
	// selected or not
	frozenTotal := 0.0
	for symbol, prevWeight := range in.PrevWeights {
		if prevWeight <= 0 {
			continue
		}
		if tradable, ok := in.TradableBySymbol[symbol]; ok && !tradable {
			newWeights[symbol] = prevWeight
			frozenTotal += prevWeight
		}
	}

	investable := []string{}
	for _, symbol := range in.Selected {
		if tradable, ok := in.TradableBySymbol[symbol]; ok && !tradable {
			// cannot open or resize the position today; if it was
			// held it is already frozen above
			continue
		}
		investable = append(investable, symbol)
	}

	deployable := 1.0 - frozenTotal
	if len(investable) == 0 || deployable <= 0 {
		if err := newWeights.Validate(); err != nil {
			return nil, fmt.Errorf("allocation on %v produced invalid weights: %w", in.Date, err)
		}
		return newWeights, nil
	}

	targets := scoreProportions(investable, in.ScoresBySymbol, in.Mode)
	for symbol, proportion := range targets {
		if proportion <= 0 {
			continue
		}
		newWeights[symbol] += deployable * proportion
	}

	if err := newWeights.Validate(); err != nil {
		return nil, fmt.Errorf("allocation on %v produced invalid weights: %w", in.Date, err)
	}
	return newWeights, nil
}

// scoreProportions converts scores into proportions of deployable
// capital that sum to 1 across the investable symbols. Negative scores
// are clamped to zero; if every score is zero (or scores are absent)
// the split is equal.
func scoreProportions(investable []string, scoresBySymbol map[string]float64, mode WeightingMode) map[string]float64 {
	proportions := make(map[string]float64, len(investable))

	if mode == WeightingMode_ScoreProportional && scoresBySymbol != nil {
		scoreTotal := 0.0
		for _, symbol := range investable {
			if score := scoresBySymbol[symbol]; score > 0 {
				scoreTotal += score
			}
		}
		if scoreTotal > 0 {
			for _, symbol := range investable {
				score := scoresBySymbol[symbol]
				if score < 0 {
					score = 0
				}
				proportions[symbol] = score / scoreTotal
			}
			return proportions
		}
	}

	for _, symbol := range investable {
		proportions[symbol] = 1.0 / float64(len(investable))
	}
	return proportions
}
