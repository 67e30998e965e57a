package domain

// MetricsReport is the summary output of a full backtest run. All
// "annualized" fields use the configured periods-per-year, and all
// ratios are plain (not percentage) values.
type MetricsReport struct {
	NumDays              int
	CumulativeReturn     float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	WinRate              float64
	ProfitLossRatio      float64
	MeanTurnover         float64
	MeanHoldings         float64

	// Excess is nil when the run had no benchmark series
	Excess *ExcessMetrics

	// Yearly is ordered by calendar year ascending
	Yearly []YearMetrics
}

// ExcessMetrics are benchmark-relative statistics over the excess
// return series. Annualization here is arithmetic (mean * periods)
// since excess returns do not compound into a real value path.
type ExcessMetrics struct {
	CumulativeReturn     float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	InformationRatio     float64
	// DrawdownAdjustedIR penalizes the information ratio by a
	// quarter of the max drawdown of the excess equity curve
	DrawdownAdjustedIR float64
	WinRate            float64
	MaxDrawdown        float64
	ProfitLossRatio    float64
}

// YearMetrics are the per-calendar-year sub-metrics, computed with the
// year's own day count in place of the full series length.
type YearMetrics struct {
	Year                 int
	NumDays              int
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	WinRate              float64
}
