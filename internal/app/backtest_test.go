package app

import (
	"context"
	"errors"
	"stockbacktest/internal"
	"stockbacktest/internal/domain"
	"stockbacktest/internal/util"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStrategy replays a canned selection per date so the day loop can
// be exercised without a real factor model.
type fakeStrategy struct {
	selections map[string]*domain.Selection
}

func (s fakeStrategy) ProduceSelection(snapshot domain.UniverseSnapshot) (*domain.Selection, error) {
	if selection, ok := s.selections[snapshot.Date.Format(time.DateOnly)]; ok {
		return selection, nil
	}
	return &domain.Selection{Symbols: []string{}, Scores: map[string]float64{}}, nil
}

func floatPtr(f float64) *float64 {
	return &f
}

func boolPtr(b bool) *bool {
	return &b
}

func record(symbol string, nextReturn *float64, tradable *bool) domain.SecurityRecord {
	return domain.SecurityRecord{
		Symbol:     symbol,
		NextReturn: nextReturn,
		Tradable:   tradable,
	}
}

func selectionOf(symbols ...string) *domain.Selection {
	scores := map[string]float64{}
	for _, s := range symbols {
		scores[s] = 1
	}
	return &domain.Selection{Symbols: symbols, Scores: scores}
}

func Test_BacktestHandler_Run(t *testing.T) {
	log := zap.NewNop().Sugar()

	t.Run("two day run with a rebalance", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("AAPL", "MSFT"),
				"2020-01-03": selectionOf("AAPL"),
			}},
			Log: log,
		}

		out, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.02), nil),
						"MSFT": record("MSFT", floatPtr(-0.01), nil),
					},
				},
				{
					Date: util.NewDate(2020, 1, 3),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.01), nil),
						"MSFT": record("MSFT", floatPtr(0.03), nil),
					},
				},
			},
			FeeRate:        0.001,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(t, 2, out.Series.Len())

		day0 := out.Series.Days[0]
		require.InDelta(t, 0.5, day0.Turnover, 1e-12)
		require.InDelta(t, 0.0005, day0.Cost, 1e-12)
		require.InDelta(t, 0.005, day0.GrossReturn, 1e-12)
		require.InDelta(t, 0.0045, day0.NetReturn, 1e-12)
		require.Equal(t, 2, day0.NumHoldings)
		require.InDelta(t, 1.0045, day0.NetValue.InexactFloat64(), 1e-9)

		day1 := out.Series.Days[1]
		require.InDelta(t, 0.5, day1.Turnover, 1e-12)
		require.InDelta(t, 0.01, day1.GrossReturn, 1e-12)
		require.InDelta(t, 0.0095, day1.NetReturn, 1e-12)
		require.Equal(t, 1, day1.NumHoldings)

		require.Len(t, out.Holdings, 2)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out.Holdings[0].Weights,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 1.0},
				out.Holdings[1].Weights,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)

		require.NotNil(t, out.Metrics)
		require.Equal(t, 2, out.Metrics.NumDays)
	})

	t.Run("non-tradable position is carried instead of sold", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("AAPL", "MSFT"),
				"2020-01-03": selectionOf("AAPL"),
			}},
			Log: log,
		}

		out, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.02), nil),
						"MSFT": record("MSFT", floatPtr(-0.01), nil),
					},
				},
				{
					Date: util.NewDate(2020, 1, 3),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.01), nil),
						// suspended: the position is frozen at its prior weight
						"MSFT": record("MSFT", floatPtr(0.0), boolPtr(false)),
					},
				},
			},
			FeeRate:        0.001,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.NoError(t, err)

		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out.Holdings[1].Weights,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
		require.InDelta(t, 0.0, out.Series.Days[1].Turnover, 1e-12)
		require.InDelta(t, 0.0, out.Series.Days[1].Cost, 1e-12)
	})

	t.Run("snapshots are sorted before the loop", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("AAPL"),
				"2020-01-03": selectionOf("AAPL"),
			}},
			Log: log,
		}

		out, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 3),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.01), nil),
					},
				},
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.02), nil),
					},
				},
			},
			FeeRate:        0,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(t, util.NewDate(2020, 1, 2), out.Series.Days[0].Date)
		require.Equal(t, util.NewDate(2020, 1, 3), out.Series.Days[1].Date)
	})

	t.Run("benchmark days flow into excess metrics", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("AAPL"),
				"2020-01-03": selectionOf("AAPL"),
			}},
			Log: log,
		}

		out, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.02), nil),
					},
					BenchmarkReturn: floatPtr(0.005),
				},
				{
					Date: util.NewDate(2020, 1, 3),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.01), nil),
					},
					BenchmarkReturn: floatPtr(0.002),
				},
			},
			FeeRate:        0,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.NotNil(t, out.Series.Days[0].ExcessReturn)
		require.InDelta(t, 0.015, *out.Series.Days[0].ExcessReturn, 1e-12)
		require.NotNil(t, out.Metrics.Excess)
	})

	t.Run("selection outside the universe fails the run", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("ZZZZ"),
			}},
			Log: log,
		}

		_, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", floatPtr(0.02), nil),
					},
				},
			},
			FeeRate:        0.001,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.Error(t, err)

		var integrityErr domain.SelectionIntegrityError
		require.True(t, errors.As(err, &integrityErr))
		require.Equal(t, "ZZZZ", integrityErr.Symbol)
		require.Equal(t, util.NewDate(2020, 1, 2), integrityErr.Date)
	})

	t.Run("held symbol without a forward return fails the run", func(t *testing.T) {
		handler := BacktestHandler{
			Strategy: fakeStrategy{selections: map[string]*domain.Selection{
				"2020-01-02": selectionOf("AAPL"),
			}},
			Log: log,
		}

		_, err := handler.Run(context.Background(), RunBacktestInput{
			Snapshots: []domain.UniverseSnapshot{
				{
					Date: util.NewDate(2020, 1, 2),
					Securities: map[string]domain.SecurityRecord{
						"AAPL": record("AAPL", nil, nil),
					},
				},
			},
			FeeRate:        0.001,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.Error(t, err)

		var missingErr domain.MissingReturnDataError
		require.True(t, errors.As(err, &missingErr))
		require.Equal(t, "AAPL", missingErr.Symbol)
	})

	t.Run("rejects invalid run parameters", func(t *testing.T) {
		handler := BacktestHandler{Strategy: fakeStrategy{}, Log: log}

		_, err := handler.Run(context.Background(), RunBacktestInput{
			FeeRate:        -1,
			PeriodsPerYear: 242,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		var cfgErr domain.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		require.Equal(t, "feeRate", cfgErr.Field)

		_, err = handler.Run(context.Background(), RunBacktestInput{
			FeeRate:        0.001,
			PeriodsPerYear: 0,
			Mode:           internal.WeightingMode_EqualWeight,
		})
		require.True(t, errors.As(err, &cfgErr))
		require.Equal(t, "periodsPerYear", cfgErr.Field)
	})

	t.Run("metrics are deterministic across runs", func(t *testing.T) {
		run := func() *domain.MetricsReport {
			handler := BacktestHandler{
				Strategy: fakeStrategy{selections: map[string]*domain.Selection{
					"2020-01-02": selectionOf("AAPL", "MSFT"),
					"2020-01-03": selectionOf("MSFT"),
				}},
				Log: log,
			}
			out, err := handler.Run(context.Background(), RunBacktestInput{
				Snapshots: []domain.UniverseSnapshot{
					{
						Date: util.NewDate(2020, 1, 2),
						Securities: map[string]domain.SecurityRecord{
							"AAPL": record("AAPL", floatPtr(0.013), nil),
							"MSFT": record("MSFT", floatPtr(-0.004), nil),
						},
					},
					{
						Date: util.NewDate(2020, 1, 3),
						Securities: map[string]domain.SecurityRecord{
							"AAPL": record("AAPL", floatPtr(0.002), nil),
							"MSFT": record("MSFT", floatPtr(0.021), nil),
						},
					},
				},
				FeeRate:        0.001,
				PeriodsPerYear: 242,
				Mode:           internal.WeightingMode_EqualWeight,
			})
			require.NoError(t, err)
			return out.Metrics
		}

		require.Equal(t, "", cmp.Diff(run(), run()))
	})
}

func Test_ClipToWindow(t *testing.T) {
	snapshots := []domain.UniverseSnapshot{
		{Date: util.NewDate(2020, 1, 2)},
		{Date: util.NewDate(2020, 1, 3)},
		{Date: util.NewDate(2020, 1, 6)},
	}

	clipped := ClipToWindow(snapshots, util.NewDate(2020, 1, 3), util.NewDate(2020, 1, 6))
	require.Len(t, clipped, 2)
	require.Equal(t, util.NewDate(2020, 1, 3), clipped[0].Date)

	require.Empty(t, ClipToWindow(snapshots, util.NewDate(2021, 1, 1), util.NewDate(2021, 12, 31)))
}
