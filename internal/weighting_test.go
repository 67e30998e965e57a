package internal

import (
	"stockbacktest/internal/domain"
	"stockbacktest/internal/util"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func Test_AllocateWeights(t *testing.T) {
	day := util.NewDate(2020, 1, 2)

	t.Run("first day equal weight", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			Mode:        WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("score proportional", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			ScoresBySymbol: map[string]float64{
				"AAPL": 3,
				"MSFT": 1,
			},
			Mode: WeightingMode_ScoreProportional,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.75, "MSFT": 0.25},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("scores ignored in equal weight mode", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			ScoresBySymbol: map[string]float64{
				"AAPL": 3,
				"MSFT": 1,
			},
			Mode: WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("negative scores clamped, all-zero falls back to equal", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			ScoresBySymbol: map[string]float64{
				"AAPL": -1,
				"MSFT": 2,
			},
			Mode: WeightingMode_ScoreProportional,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"MSFT": 1.0},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)

		out, err = AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			ScoresBySymbol: map[string]float64{
				"AAPL": 0,
				"MSFT": 0,
			},
			Mode: WeightingMode_ScoreProportional,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("non-tradable holding is frozen even when unselected", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
			Selected:    []string{"AAPL"},
			TradableBySymbol: map[string]bool{
				"AAPL": true,
				"MSFT": false,
			},
			Mode: WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("frozen excess is not renormalized away", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.WeightVector{"MSFT": 0.8},
			Selected:    []string{"AAPL"},
			TradableBySymbol: map[string]bool{
				"AAPL": true,
				"MSFT": false,
			},
			Mode: WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		// AAPL only gets what the frozen carry leaves behind
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"AAPL": 0.2, "MSFT": 0.8},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("selected but non-tradable symbol cannot be opened", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{"AAPL", "MSFT"},
			TradableBySymbol: map[string]bool{
				"AAPL": false,
				"MSFT": true,
			},
			Mode: WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"MSFT": 1.0},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("empty selection goes to cash except frozen carries", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.WeightVector{"AAPL": 0.5, "MSFT": 0.5},
			Selected:    []string{},
			TradableBySymbol: map[string]bool{
				"AAPL": true,
				"MSFT": false,
			},
			Mode: WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.WeightVector{"MSFT": 0.5},
				out,
				cmpopts.EquateApprox(0, 1e-9),
			),
		)
	})

	t.Run("empty selection and empty prev weights yields all-zero vector", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.NewWeightVector(),
			Selected:    []string{},
			Mode:        WeightingMode_EqualWeight,
		})
		require.NoError(t, err)
		require.Equal(t, 0, len(out))
		require.Equal(t, 0.0, out.TotalWeight())
	})

	t.Run("weight conservation", func(t *testing.T) {
		out, err := AllocateWeights(AllocateWeightsInput{
			Date:        day,
			PrevWeights: domain.WeightVector{"AAPL": 0.3, "MSFT": 0.3, "GOOG": 0.4},
			Selected:    []string{"MSFT", "GOOG", "AMZN"},
			ScoresBySymbol: map[string]float64{
				"MSFT": 1,
				"GOOG": 2,
				"AMZN": 3,
			},
			TradableBySymbol: map[string]bool{
				"AAPL": false,
				"MSFT": true,
				"GOOG": true,
				"AMZN": true,
			},
			Mode: WeightingMode_ScoreProportional,
		})
		require.NoError(t, err)
		require.NoError(t, out.Validate())
		require.InDelta(t, 1.0, out.TotalWeight(), 1e-9)
		require.Equal(t, 0.3, out["AAPL"])
	})
}

func Test_NewWeightingMode(t *testing.T) {
	mode, err := NewWeightingMode("score_proportional")
	require.NoError(t, err)
	require.Equal(t, WeightingMode_ScoreProportional, *mode)

	mode, err = NewWeightingMode("EQUAL")
	require.NoError(t, err)
	require.Equal(t, WeightingMode_EqualWeight, *mode)

	_, err = NewWeightingMode("market_cap")
	require.Error(t, err)
}
