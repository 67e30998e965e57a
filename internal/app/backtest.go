package app

import (
	"context"
	"fmt"
	"sort"
	"stockbacktest/internal"
	"stockbacktest/internal/calculator"
	"stockbacktest/internal/domain"
	"stockbacktest/internal/logger"
	"stockbacktest/internal/strategy"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BacktestHandler struct {
	Strategy strategy.Strategy
	Log      *zap.SugaredLogger
}

type RunBacktestInput struct {
	// Snapshots must cover the run window with one entry per trading
	// day; they are sorted by date before the loop starts
	Snapshots      []domain.UniverseSnapshot
	FeeRate        float64
	PeriodsPerYear int
	Mode           internal.WeightingMode
}

type RunBacktestResult struct {
	RunID    uuid.UUID
	Series   *domain.ReturnSeries
	Holdings []domain.DailyHoldings
	Metrics  *domain.MetricsReport
}

// Run executes the day loop. Each day's weights depend on the previous
// day's, so this is a strict fold over the snapshots: the running
// weight vector is threaded explicitly from one step to the next, and
// the run either completes in full or fails at the first violation.
func (h BacktestHandler) Run(ctx context.Context, in RunBacktestInput) (*RunBacktestResult, error) {
	log := h.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}

	if in.FeeRate < 0 {
		return nil, domain.ConfigurationError{Field: "feeRate", Reason: fmt.Sprintf("must be >= 0, got %f", in.FeeRate)}
	}
	if in.PeriodsPerYear <= 0 {
		return nil, domain.ConfigurationError{Field: "periodsPerYear", Reason: fmt.Sprintf("must be > 0, got %d", in.PeriodsPerYear)}
	}

	snapshots := make([]domain.UniverseSnapshot, len(in.Snapshots))
	copy(snapshots, in.Snapshots)
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Date.Before(snapshots[j].Date)
	})

	runID := uuid.New()
	log.Infow("starting backtest run",
		"runID", runID,
		"days", len(snapshots),
		"feeRate", in.FeeRate,
		"weightingMode", in.Mode,
	)

	series := domain.NewReturnSeries()
	holdings := make([]domain.DailyHoldings, 0, len(snapshots))
	prevWeights := domain.NewWeightVector()

	for _, snapshot := range snapshots {
		newWeights, result, err := h.runDay(snapshot, prevWeights, in)
		if err != nil {
			return nil, err
		}

		if err := series.Append(*result); err != nil {
			return nil, fmt.Errorf("failed to record result for %v: %w", snapshot.Date, err)
		}
		holdings = append(holdings, domain.DailyHoldings{
			Date:    snapshot.Date,
			Weights: newWeights,
		})
		prevWeights = newWeights
	}

	series.Finalize()

	metrics, err := calculator.ComputeMetrics(calculator.ComputeMetricsInput{
		Series:         series,
		PeriodsPerYear: in.PeriodsPerYear,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	}

	log.Infow("backtest run complete",
		"runID", runID,
		"annualizedReturn", metrics.AnnualizedReturn,
		"sharpe", metrics.SharpeRatio,
		"maxDrawdown", metrics.MaxDrawdown,
	)

	return &RunBacktestResult{
		RunID:    runID,
		Series:   series,
		Holdings: holdings,
		Metrics:  metrics,
	}, nil
}

// runDay advances the fold by one trading day: selection, allocation,
// turnover, and the cost-adjusted return.
func (h BacktestHandler) runDay(
	snapshot domain.UniverseSnapshot,
	prevWeights domain.WeightVector,
	in RunBacktestInput,
) (domain.WeightVector, *domain.DailyResult, error) {
	selection, err := h.Strategy.ProduceSelection(snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("strategy failed on %v: %w", snapshot.Date, err)
	}

	// the strategy is an external collaborator; validate its output
	// against the universe before trusting it
	for _, symbol := range selection.Symbols {
		if _, ok := snapshot.Securities[symbol]; !ok {
			return nil, nil, domain.SelectionIntegrityError{Date: snapshot.Date, Symbol: symbol}
		}
	}

	tradableBySymbol := make(map[string]bool, len(snapshot.Securities))
	forwardReturns := make(map[string]*float64, len(snapshot.Securities))
	for symbol, record := range snapshot.Securities {
		tradableBySymbol[symbol] = record.IsTradable()
		forwardReturns[symbol] = record.NextReturn
	}

	newWeights, err := internal.AllocateWeights(internal.AllocateWeightsInput{
		Date:             snapshot.Date,
		PrevWeights:      prevWeights,
		Selected:         selection.Symbols,
		ScoresBySymbol:   selection.Scores,
		TradableBySymbol: tradableBySymbol,
		Mode:             in.Mode,
	})
	if err != nil {
		return nil, nil, err
	}

	turnover := internal.Turnover(prevWeights, newWeights)
	cost := internal.TransactionCost(turnover, in.FeeRate)

	composed, err := internal.ComposeDailyReturn(internal.ComposeDailyReturnInput{
		Date:            snapshot.Date,
		Weights:         newWeights,
		ForwardReturns:  forwardReturns,
		Cost:            cost,
		BenchmarkReturn: snapshot.BenchmarkReturn,
	})
	if err != nil {
		return nil, nil, err
	}

	return newWeights, &domain.DailyResult{
		Date:         snapshot.Date,
		GrossReturn:  composed.GrossReturn,
		NetReturn:    composed.NetReturn,
		ExcessReturn: composed.ExcessReturn,
		Turnover:     turnover,
		Cost:         cost,
		NumHoldings:  newWeights.NumHoldings(),
	}, nil
}

// ClipToWindow drops snapshots outside [start, end].
func ClipToWindow(snapshots []domain.UniverseSnapshot, start, end time.Time) []domain.UniverseSnapshot {
	out := []domain.UniverseSnapshot{}
	for _, s := range snapshots {
		if !s.Date.Before(start) && !s.Date.After(end) {
			out = append(out, s)
		}
	}
	return out
}
