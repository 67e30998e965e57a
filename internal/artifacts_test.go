package internal

import (
	"stockbacktest/internal/domain"
	"stockbacktest/internal/util"
	"testing"

	"github.com/stretchr/testify/require"
)

func seriesFromResults(t *testing.T, days []domain.DailyResult) *domain.ReturnSeries {
	t.Helper()
	series := domain.NewReturnSeries()
	for _, d := range days {
		require.NoError(t, series.Append(d))
	}
	series.Finalize()
	return series
}

func Test_timeseriesRows(t *testing.T) {
	t.Run("full benchmark coverage cumulates the base value curve", func(t *testing.T) {
		series := seriesFromResults(t, []domain.DailyResult{
			{Date: util.NewDate(2020, 1, 2), NetReturn: 0.02, ExcessReturn: floatPtr(0.01)},
			{Date: util.NewDate(2020, 1, 3), NetReturn: 0.01, ExcessReturn: floatPtr(-0.01)},
		})

		rows := *timeseriesRows(series)
		require.Len(t, rows, 2)

		// benchmark returns are net - excess: 0.01 then 0.02
		require.NotNil(t, rows[0].BaseValue)
		require.InDelta(t, 1.01, *rows[0].BaseValue, 1e-12)
		require.NotNil(t, rows[1].BaseValue)
		require.InDelta(t, 1.03, *rows[1].BaseValue, 1e-12)

		require.NotNil(t, rows[1].ExcessValue)
		require.InDelta(t, rows[1].NetValue-1.03, *rows[1].ExcessValue, 1e-12)
		require.NotNil(t, rows[1].ExcessValRel)
	})

	t.Run("benchmark gaps drop the benchmark columns entirely", func(t *testing.T) {
		series := seriesFromResults(t, []domain.DailyResult{
			{Date: util.NewDate(2020, 1, 2), NetReturn: 0.02, ExcessReturn: floatPtr(0.01)},
			{Date: util.NewDate(2020, 1, 3), NetReturn: 0.01},
			{Date: util.NewDate(2020, 1, 6), NetReturn: 0.03, ExcessReturn: floatPtr(0.02)},
		})

		rows := *timeseriesRows(series)
		require.Len(t, rows, 3)
		for _, row := range rows {
			require.Nil(t, row.ExcessReturn)
			require.Nil(t, row.BaseValue)
			require.Nil(t, row.ExcessValue)
			require.Nil(t, row.ExcessValRel)
		}

		// the per-day accounting still comes through
		require.Equal(t, 0.01, rows[1].NetReturn)
	})

	t.Run("runs without a benchmark never emit benchmark columns", func(t *testing.T) {
		series := seriesFromResults(t, []domain.DailyResult{
			{Date: util.NewDate(2020, 1, 2), NetReturn: 0.02},
		})

		rows := *timeseriesRows(series)
		require.Len(t, rows, 1)
		require.Nil(t, rows[0].BaseValue)
	})
}

func Test_holdingsRows(t *testing.T) {
	rows := *holdingsRows([]domain.DailyHoldings{
		{
			Date:    util.NewDate(2020, 1, 2),
			Weights: domain.WeightVector{"MSFT": 0.5, "AAPL": 0.5},
		},
		{
			Date:    util.NewDate(2020, 1, 3),
			Weights: domain.WeightVector{},
		},
	})
	require.Len(t, rows, 2)
	require.Equal(t, "2020-01-02", rows[0].Date)
	require.Equal(t, "AAPL:0.5000, MSFT:0.5000", rows[0].SelectedStocks)
	require.Equal(t, "", rows[1].SelectedStocks)
}
