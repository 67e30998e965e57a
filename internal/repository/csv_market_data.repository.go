package repository

import (
	"fmt"
	"os"
	"stockbacktest/internal/db/models/postgres/public/model"
	"stockbacktest/internal/domain"
	"stockbacktest/internal/util"
	"time"

	"github.com/gocarina/gocsv"
)

// CsvDate parses/renders dates as YYYY-MM-DD in CSV files.
type CsvDate struct {
	time.Time
}

func (d *CsvDate) UnmarshalCSV(csv string) error {
	t, err := time.Parse("2006-01-02", csv)
	if err != nil {
		return fmt.Errorf("could not parse date '%s': %w", csv, err)
	}
	d.Time = t
	return nil
}

func (d CsvDate) MarshalCSV() (string, error) {
	return d.Time.Format("2006-01-02"), nil
}

// SecurityDayRow is one (day, security) input row. next_ret and
// tradable may be empty; empty cells stay nil.
type SecurityDayRow struct {
	Symbol   string   `csv:"symbol"`
	Date     CsvDate  `csv:"date"`
	NextRet  *float64 `csv:"next_ret,omitempty"`
	Tradable *bool    `csv:"tradable,omitempty"`
}

// FactorDayRow is long-format factor data: one row per
// (day, security, factor).
type FactorDayRow struct {
	Symbol string  `csv:"symbol"`
	Date   CsvDate `csv:"date"`
	Name   string  `csv:"factor"`
	Value  float64 `csv:"value"`
}

type BenchmarkDayRow struct {
	Date CsvDate `csv:"date"`
	Ret  float64 `csv:"ret"`
}

// CSVMarketDataSource reads the same three inputs as the Postgres
// repository from local CSV files. FactorsPath and BenchmarkPath are
// optional.
type CSVMarketDataSource struct {
	SecuritiesPath string
	FactorsPath    string
	BenchmarkPath  string
}

func (s CSVMarketDataSource) ListUniverse(start, end time.Time) ([]domain.UniverseSnapshot, error) {
	securityRows, factorRows, benchmarkRows, err := s.LoadRows()
	if err != nil {
		return nil, err
	}

	securities := []model.SecurityDay{}
	for _, row := range securityRows {
		if !inWindow(row.Date.Time, start, end) {
			continue
		}
		securities = append(securities, model.SecurityDay{
			Symbol:   row.Symbol,
			Date:     row.Date.Time,
			NextRet:  row.NextRet,
			Tradable: row.Tradable,
		})
	}

	factors := []model.FactorDay{}
	for _, row := range factorRows {
		if !inWindow(row.Date.Time, start, end) {
			continue
		}
		factors = append(factors, model.FactorDay{
			Symbol: row.Symbol,
			Date:   row.Date.Time,
			Name:   row.Name,
			Value:  row.Value,
		})
	}

	benchmarks := []model.BenchmarkDay{}
	for _, row := range benchmarkRows {
		if !inWindow(row.Date.Time, start, end) {
			continue
		}
		benchmarks = append(benchmarks, model.BenchmarkDay{
			Date: row.Date.Time,
			Ret:  row.Ret,
		})
	}

	return assembleSnapshots(securities, factors, benchmarks), nil
}

// LoadRows reads the raw CSV rows without window filtering. The ingest
// command uses this to push file data into Postgres.
func (s CSVMarketDataSource) LoadRows() ([]SecurityDayRow, []FactorDayRow, []BenchmarkDayRow, error) {
	securityRows := []SecurityDayRow{}
	if err := unmarshalCSVFile(s.SecuritiesPath, &securityRows); err != nil {
		return nil, nil, nil, err
	}

	factorRows := []FactorDayRow{}
	if s.FactorsPath != "" {
		if err := unmarshalCSVFile(s.FactorsPath, &factorRows); err != nil {
			return nil, nil, nil, err
		}
	}

	benchmarkRows := []BenchmarkDayRow{}
	if s.BenchmarkPath != "" {
		if err := unmarshalCSVFile(s.BenchmarkPath, &benchmarkRows); err != nil {
			return nil, nil, nil, err
		}
	}

	return securityRows, factorRows, benchmarkRows, nil
}

func unmarshalCSVFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open csv %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("could not parse csv %s: %w", path, err)
	}
	return nil
}

func inWindow(t, start, end time.Time) bool {
	return util.DateGte(t, start) && util.DateLte(t, end)
}
