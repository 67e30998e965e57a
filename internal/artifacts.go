package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"stockbacktest/internal/domain"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArtifactWriter renders the finalized run outputs - metrics, yearly
// table, per-day timeseries, and the selected-holdings table - as CSV
// files under OutputDir, with filenames carrying the version tag.
type ArtifactWriter struct {
	OutputDir  string
	VersionTag string
	Log        *zap.SugaredLogger
}

type metricsCsvRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
}

type yearlyCsvRow struct {
	Year                 int     `csv:"year"`
	NumDays              int     `csv:"n_days"`
	AnnualizedReturn     float64 `csv:"annualized_return"`
	AnnualizedVolatility float64 `csv:"annualized_volatility"`
	SharpeRatio          float64 `csv:"sharpe_ratio"`
	MaxDrawdown          float64 `csv:"max_drawdown"`
	WinRate              float64 `csv:"win_rate"`
}

type timeseriesCsvRow struct {
	Date          string   `csv:"date"`
	NetReturn     float64  `csv:"net_return"`
	NetValue      float64  `csv:"net_value"`
	GrossReturn   float64  `csv:"gross_return"`
	Turnover      float64  `csv:"turnover"`
	Cost          float64  `csv:"cost"`
	NumHoldings   int      `csv:"n_holdings"`
	ExcessReturn  *float64 `csv:"excess_return,omitempty"`
	BaseValue     *float64 `csv:"base_value,omitempty"`
	ExcessValue   *float64 `csv:"excess_value,omitempty"`
	ExcessValRel  *float64 `csv:"excess_value_relative,omitempty"`
}

type holdingsCsvRow struct {
	Date           string `csv:"date"`
	SelectedStocks string `csv:"selected_stocks"`
}

func (w ArtifactWriter) SaveAll(
	runID uuid.UUID,
	report *domain.MetricsReport,
	series *domain.ReturnSeries,
	holdings []domain.DailyHoldings,
) error {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return fmt.Errorf("could not create output dir %s: %w", w.OutputDir, err)
	}

	w.Log.Infow("saving backtest artifacts", "runID", runID, "outputDir", w.OutputDir)

	if err := w.saveCSV(w.path("backtest_metrics"), metricsRows(report)); err != nil {
		return err
	}
	if err := w.saveCSV(w.path("yearly_performance"), yearlyRows(report)); err != nil {
		return err
	}
	if err := w.saveCSV(w.path("result_timeseries"), timeseriesRows(series)); err != nil {
		return err
	}
	if err := w.saveCSV(w.path("selected_stocks"), holdingsRows(holdings)); err != nil {
		return err
	}
	return nil
}

func (w ArtifactWriter) path(name string) string {
	return filepath.Join(w.OutputDir, fmt.Sprintf("%s_%s.csv", name, w.VersionTag))
}

func (w ArtifactWriter) saveCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	w.Log.Infow("saved artifact", "path", path)
	return nil
}

func metricsRows(report *domain.MetricsReport) *[]metricsCsvRow {
	rows := []metricsCsvRow{
		{"Num Days", fmt.Sprintf("%d", report.NumDays)},
		{"Cumulative Return", fmt.Sprintf("%.6f", report.CumulativeReturn)},
		{"Annualized Return", asPercent(report.AnnualizedReturn)},
		{"Annualized Volatility", asPercent(report.AnnualizedVolatility)},
		{"Sharpe Ratio", fmt.Sprintf("%.6f", report.SharpeRatio)},
		{"Max Drawdown", asPercent(report.MaxDrawdown)},
		{"Win Rate", asPercent(report.WinRate)},
		{"P/L Ratio", fmt.Sprintf("%.6f", report.ProfitLossRatio)},
		{"Avg Turnover", asPercent(report.MeanTurnover)},
		{"Avg #Holdings", fmt.Sprintf("%.2f", report.MeanHoldings)},
	}
	if report.Excess != nil {
		rows = append(rows,
			metricsCsvRow{"Cumulative Return (Excess)", fmt.Sprintf("%.6f", report.Excess.CumulativeReturn)},
			metricsCsvRow{"Annualized Return (Excess)", asPercent(report.Excess.AnnualizedReturn)},
			metricsCsvRow{"Annualized Volatility (Excess)", asPercent(report.Excess.AnnualizedVolatility)},
			metricsCsvRow{"IR (Excess)", fmt.Sprintf("%.6f", report.Excess.InformationRatio)},
			metricsCsvRow{"IR2 (Excess)", fmt.Sprintf("%.6f", report.Excess.DrawdownAdjustedIR)},
			metricsCsvRow{"Win Rate (Excess)", asPercent(report.Excess.WinRate)},
			metricsCsvRow{"Max Drawdown (Excess)", asPercent(report.Excess.MaxDrawdown)},
			metricsCsvRow{"P/L Ratio (Excess)", fmt.Sprintf("%.6f", report.Excess.ProfitLossRatio)},
		)
	}
	return &rows
}

func yearlyRows(report *domain.MetricsReport) *[]yearlyCsvRow {
	rows := make([]yearlyCsvRow, 0, len(report.Yearly))
	for _, y := range report.Yearly {
		rows = append(rows, yearlyCsvRow{
			Year:                 y.Year,
			NumDays:              y.NumDays,
			AnnualizedReturn:     y.AnnualizedReturn,
			AnnualizedVolatility: y.AnnualizedVolatility,
			SharpeRatio:          y.SharpeRatio,
			MaxDrawdown:          y.MaxDrawdown,
			WinRate:              y.WinRate,
		})
	}
	return &rows
}

func timeseriesRows(series *domain.ReturnSeries) *[]timeseriesCsvRow {
	rows := make([]timeseriesCsvRow, 0, series.Len())

	// reconstruct the benchmark value curve from net - excess. the
	// cumulation is only sound when every day carries an excess return;
	// a series with benchmark gaps gets no benchmark columns at all
	// rather than a curve that silently skips the gap days
	fullCoverage := series.Len() > 0
	for _, d := range series.Days {
		if d.ExcessReturn == nil {
			fullCoverage = false
			break
		}
	}

	baseValue := 1.0
	for _, d := range series.Days {
		row := timeseriesCsvRow{
			Date:        d.Date.Format("2006-01-02"),
			NetReturn:   d.NetReturn,
			NetValue:    d.NetValue.InexactFloat64(),
			GrossReturn: d.GrossReturn,
			Turnover:    d.Turnover,
			Cost:        d.Cost,
			NumHoldings: d.NumHoldings,
		}
		if fullCoverage {
			excess := *d.ExcessReturn
			benchmarkReturn := d.NetReturn - excess
			baseValue += benchmarkReturn

			excessValue := d.NetValue.InexactFloat64() - baseValue
			row.ExcessReturn = &excess
			bv := baseValue
			row.BaseValue = &bv
			row.ExcessValue = &excessValue
			if baseValue != 0 {
				rel := excessValue / baseValue
				row.ExcessValRel = &rel
			}
		}
		rows = append(rows, row)
	}
	return &rows
}

func holdingsRows(holdings []domain.DailyHoldings) *[]holdingsCsvRow {
	rows := make([]holdingsCsvRow, 0, len(holdings))
	for _, h := range holdings {
		parts := []string{}
		for _, symbol := range h.Weights.HeldSymbols() {
			parts = append(parts, fmt.Sprintf("%s:%.4f", symbol, h.Weights[symbol]))
		}
		rows = append(rows, holdingsCsvRow{
			Date:           h.Date.Format("2006-01-02"),
			SelectedStocks: strings.Join(parts, ", "),
		})
	}
	return &rows
}

func asPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
