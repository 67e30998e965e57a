package internal

import (
	"fmt"
	"os"
	"stockbacktest/internal/domain"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// RunConfig is everything a backtest run needs beyond market data and
// the strategy itself. Loaded from YAML; the CLI may override fields
// before validation.
type RunConfig struct {
	StartDate string `yaml:"startDate"`
	EndDate   string `yaml:"endDate"`

	// FeeRate is charged per unit of one-way turnover
	FeeRate        float64 `yaml:"feeRate"`
	PeriodsPerYear int     `yaml:"periodsPerYear"`
	WeightingMode  string  `yaml:"weightingMode"`

	OutputDir  string `yaml:"outputDir"`
	VersionTag string `yaml:"versionTag"`

	Strategy StrategyConfig `yaml:"strategy"`
	Inputs   InputsConfig   `yaml:"inputs"`
}

type StrategyConfig struct {
	// Kind is one of "topN", "expressionScore" or "compositeScore"
	Kind string `yaml:"kind"`

	// topN settings (numTickers is shared with expressionScore)
	Factor     string `yaml:"factor"`
	NumTickers int    `yaml:"numTickers"`

	// expressionScore settings, e.g.
	// expression: factor("momentum") - 0.5 * factor("volatility")
	Expression string `yaml:"expression"`

	// compositeScore settings
	Rules           []FactorRuleConfig `yaml:"rules"`
	SelectThreshold float64            `yaml:"selectThreshold"`
}

type FactorRuleConfig struct {
	Factor   string  `yaml:"factor"`
	Quantile float64 `yaml:"quantile"`
	Points   float64 `yaml:"points"`
}

type InputsConfig struct {
	// Source is "csv" or "postgres"
	Source        string `yaml:"source"`
	SecuritiesCSV string `yaml:"securitiesCsv"`
	FactorsCSV    string `yaml:"factorsCsv"`
	BenchmarkCSV  string `yaml:"benchmarkCsv"`

	// PostgresDSN may also come from the BACKTEST_DB env var
	PostgresDSN string `yaml:"postgresDsn"`
}

func LoadRunConfig(path string) (*RunConfig, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open run config %s: %w", path, err)
	}

	cfg := RunConfig{
		FeeRate:        0.001,
		PeriodsPerYear: 242,
		WeightingMode:  string(WeightingMode_EqualWeight),
		OutputDir:      "outputs",
		VersionTag:     "v1",
	}
	err = yaml.Unmarshal(f, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not parse run config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate is the gate for starting a run; every failure here is a
// ConfigurationError and the run never begins.
func (c RunConfig) Validate() error {
	if c.FeeRate < 0 {
		return domain.ConfigurationError{Field: "feeRate", Reason: fmt.Sprintf("must be >= 0, got %f", c.FeeRate)}
	}
	if c.PeriodsPerYear <= 0 {
		return domain.ConfigurationError{Field: "periodsPerYear", Reason: fmt.Sprintf("must be > 0, got %d", c.PeriodsPerYear)}
	}
	if _, err := NewWeightingMode(c.WeightingMode); err != nil {
		return domain.ConfigurationError{Field: "weightingMode", Reason: err.Error()}
	}
	if _, _, err := c.Window(); err != nil {
		return domain.ConfigurationError{Field: "startDate/endDate", Reason: err.Error()}
	}
	return nil
}

// Window parses the configured [start, end] date range.
func (c RunConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("could not parse start date '%s': %w", c.StartDate, err)
	}
	end, err := time.Parse(dateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("could not parse end date '%s': %w", c.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", c.EndDate, c.StartDate)
	}
	return start, end, nil
}

// Mode returns the parsed weighting mode. Call Validate first.
func (c RunConfig) Mode() WeightingMode {
	mode, err := NewWeightingMode(c.WeightingMode)
	if err != nil {
		return WeightingMode_EqualWeight
	}
	return *mode
}
