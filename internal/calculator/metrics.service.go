package calculator

import (
	"fmt"
	"math"
	"stockbacktest/internal/domain"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

type ComputeMetricsInput struct {
	Series         *domain.ReturnSeries
	PeriodsPerYear int
}

// ComputeMetrics derives the summary statistics and the yearly table
// from a finalized return series. It is pure: identical inputs always
// produce an identical report.
func ComputeMetrics(in ComputeMetricsInput) (*domain.MetricsReport, error) {
	if in.PeriodsPerYear <= 0 {
		return nil, domain.ConfigurationError{Field: "periodsPerYear", Reason: fmt.Sprintf("must be > 0, got %d", in.PeriodsPerYear)}
	}
	if !in.Series.Finalized() {
		return nil, fmt.Errorf("cannot compute metrics on a return series that is not finalized")
	}
	days := in.Series.Days
	if len(days) < 2 {
		return nil, fmt.Errorf("cannot calculate metrics on < 2 return days")
	}

	// a portfolio cannot lose more than 100%; past that point the
	// geometric annualization below is undefined
	for _, d := range days {
		if d.NetValue.LessThanOrEqual(decimal.Zero) {
			return nil, domain.DegenerateCompoundingError{Date: d.Date, NetValue: d.NetValue.InexactFloat64()}
		}
	}

	netReturns := in.Series.NetReturns()
	finalValue := days[len(days)-1].NetValue.InexactFloat64()

	annualizedReturn := math.Pow(finalValue, float64(in.PeriodsPerYear)/float64(len(days))) - 1
	annualizedVol := sampleStdev(netReturns) * math.Sqrt(float64(in.PeriodsPerYear))

	turnovers := make([]float64, len(days))
	holdings := make([]float64, len(days))
	for i, d := range days {
		turnovers[i] = d.Turnover
		holdings[i] = float64(d.NumHoldings)
	}

	report := &domain.MetricsReport{
		NumDays:              len(days),
		CumulativeReturn:     finalValue - 1,
		AnnualizedReturn:     annualizedReturn,
		AnnualizedVolatility: annualizedVol,
		SharpeRatio:          safeRatio(meanOf(netReturns)*float64(in.PeriodsPerYear), annualizedVol),
		MaxDrawdown:          maxDrawdownOfValues(netValuePath(days)),
		WinRate:              winRate(netReturns),
		ProfitLossRatio:      profitLossRatio(netReturns),
		MeanTurnover:         meanOf(turnovers),
		MeanHoldings:         meanOf(holdings),
		Yearly:               yearlyMetrics(days, in.PeriodsPerYear),
	}

	excessReturns := in.Series.ExcessReturns()
	if len(excessReturns) > 0 {
		report.Excess = excessMetrics(excessReturns, in.PeriodsPerYear)
	}

	return report, nil
}

// excessMetrics annualizes arithmetically (mean * periods) since
// excess returns are a spread, not a compounding value path.
func excessMetrics(excessReturns []float64, periodsPerYear int) *domain.ExcessMetrics {
	annualizedMean := meanOf(excessReturns) * float64(periodsPerYear)
	annualizedVol := sampleStdev(excessReturns) * math.Sqrt(float64(periodsPerYear))
	maxDD := maxDrawdownOfValues(simpleEquityPath(excessReturns))

	total := 0.0
	for _, r := range excessReturns {
		total += r
	}

	return &domain.ExcessMetrics{
		CumulativeReturn:     total,
		AnnualizedReturn:     annualizedMean,
		AnnualizedVolatility: annualizedVol,
		InformationRatio:     safeRatio(annualizedMean, annualizedVol),
		DrawdownAdjustedIR:   safeRatio(annualizedMean+maxDD/4.0, annualizedVol),
		WinRate:              winRate(excessReturns),
		MaxDrawdown:          maxDD,
		ProfitLossRatio:      profitLossRatio(excessReturns),
	}
}

// yearlyMetrics recomputes the headline statistics within each
// calendar year, using the year's own day count for annualization.
// Years come out ascending because the series is chronological.
func yearlyMetrics(days []domain.DailyResult, periodsPerYear int) []domain.YearMetrics {
	out := []domain.YearMetrics{}

	i := 0
	for i < len(days) {
		year := days[i].Date.Year()
		yearReturns := []float64{}
		for i < len(days) && days[i].Date.Year() == year {
			yearReturns = append(yearReturns, days[i].NetReturn)
			i++
		}

		// restart compounding at 1.0 inside the year
		path := simpleCompoundPath(yearReturns)
		finalValue := path[len(path)-1]

		annualizedVol := sampleStdev(yearReturns) * math.Sqrt(float64(periodsPerYear))
		out = append(out, domain.YearMetrics{
			Year:                 year,
			NumDays:              len(yearReturns),
			AnnualizedReturn:     math.Pow(finalValue, float64(periodsPerYear)/float64(len(yearReturns))) - 1,
			AnnualizedVolatility: annualizedVol,
			SharpeRatio:          safeRatio(meanOf(yearReturns)*float64(periodsPerYear), annualizedVol),
			MaxDrawdown:          maxDrawdownOfValues(path),
			WinRate:              winRate(yearReturns),
		})
	}

	return out
}

func netValuePath(days []domain.DailyResult) []float64 {
	path := make([]float64, len(days))
	for i, d := range days {
		path[i] = d.NetValue.InexactFloat64()
	}
	return path
}

// simpleCompoundPath compounds returns geometrically from 1.0.
func simpleCompoundPath(returns []float64) []float64 {
	path := make([]float64, len(returns))
	value := decimal.NewFromInt(1)
	for i, r := range returns {
		value = value.Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(r)))
		path[i] = value.InexactFloat64()
	}
	return path
}

// simpleEquityPath cumulates returns additively from 1.0. Used for the
// excess series, which does not represent reinvested capital.
func simpleEquityPath(returns []float64) []float64 {
	path := make([]float64, len(returns))
	total := 1.0
	for i, r := range returns {
		total += r
		path[i] = total
	}
	return path
}

// maxDrawdownOfValues is min over t of value_t / runningMax_t - 1,
// always <= 0. Every path handed in is normalized to start from one
// unit of capital, so the running max is seeded at 1.
func maxDrawdownOfValues(values []float64) float64 {
	maxDD := 0.0
	runningMax := 1.0
	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		dd := v/runningMax - 1
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func winRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

func profitLossRatio(returns []float64) float64 {
	profits := []float64{}
	losses := []float64{}
	for _, r := range returns {
		if r > 0 {
			profits = append(profits, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}
	if len(profits) == 0 || len(losses) == 0 {
		return 0
	}
	return meanOf(profits) / math.Abs(meanOf(losses))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

func sampleStdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	stdev, err := stats.StandardDeviationSample(values)
	if err != nil {
		return 0
	}
	return stdev
}

// safeRatio is 0, not NaN, when the denominator is exactly 0.
func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
