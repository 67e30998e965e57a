package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"stockbacktest/internal/db/models/postgres/public/model"
	"stockbacktest/internal/domain"
	"time"

	. "stockbacktest/internal/db/models/postgres/public/table"

	. "github.com/go-jet/jet/v2/postgres"
)

// MarketDataSource hands the run loop its pre-materialized inputs: one
// universe snapshot per trading day within [start, end], with
// benchmark returns attached when available.
type MarketDataSource interface {
	ListUniverse(start, end time.Time) ([]domain.UniverseSnapshot, error)
}

type PostgresMarketDataRepository interface {
	MarketDataSource
	AddSecurityDays([]model.SecurityDay) error
	AddFactorDays([]model.FactorDay) error
	AddBenchmarkDays([]model.BenchmarkDay) error
}

func NewPostgresMarketDataRepository(db *sql.DB) PostgresMarketDataRepository {
	return &postgresMarketDataRepositoryHandler{DB: db}
}

type postgresMarketDataRepositoryHandler struct {
	DB *sql.DB
}

func (h *postgresMarketDataRepositoryHandler) ListUniverse(start, end time.Time) ([]domain.UniverseSnapshot, error) {
	securityQuery := SecurityDay.
		SELECT(SecurityDay.AllColumns).
		WHERE(
			SecurityDay.Date.BETWEEN(DateT(start), DateT(end)),
		).
		ORDER_BY(SecurityDay.Date.ASC(), SecurityDay.Symbol.ASC())

	securities := []model.SecurityDay{}
	err := securityQuery.Query(h.DB, &securities)
	if err != nil {
		return nil, fmt.Errorf("failed to list security days: %w", err)
	}

	factorQuery := FactorDay.
		SELECT(FactorDay.AllColumns).
		WHERE(
			FactorDay.Date.BETWEEN(DateT(start), DateT(end)),
		)

	factors := []model.FactorDay{}
	err = factorQuery.Query(h.DB, &factors)
	if err != nil {
		return nil, fmt.Errorf("failed to list factor days: %w", err)
	}

	benchmarkQuery := BenchmarkDay.
		SELECT(BenchmarkDay.AllColumns).
		WHERE(
			BenchmarkDay.Date.BETWEEN(DateT(start), DateT(end)),
		)

	benchmarks := []model.BenchmarkDay{}
	err = benchmarkQuery.Query(h.DB, &benchmarks)
	if err != nil {
		return nil, fmt.Errorf("failed to list benchmark days: %w", err)
	}

	return assembleSnapshots(securities, factors, benchmarks), nil
}

func (h *postgresMarketDataRepositoryHandler) AddSecurityDays(days []model.SecurityDay) error {
	if len(days) == 0 {
		return nil
	}
	query := SecurityDay.
		INSERT(SecurityDay.AllColumns).
		MODELS(days).
		ON_CONFLICT(
			SecurityDay.Symbol, SecurityDay.Date,
		).DO_UPDATE(
		SET(
			SecurityDay.NextRet.SET(SecurityDay.EXCLUDED.NextRet),
			SecurityDay.Tradable.SET(SecurityDay.EXCLUDED.Tradable),
		),
	)

	_, err := query.Exec(h.DB)
	if err != nil {
		return fmt.Errorf("failed to add security days to db: %w", err)
	}
	return nil
}

func (h *postgresMarketDataRepositoryHandler) AddFactorDays(days []model.FactorDay) error {
	if len(days) == 0 {
		return nil
	}
	query := FactorDay.
		INSERT(FactorDay.AllColumns).
		MODELS(days).
		ON_CONFLICT(
			FactorDay.Symbol, FactorDay.Date, FactorDay.Name,
		).DO_UPDATE(
		SET(
			FactorDay.Value.SET(FactorDay.EXCLUDED.Value),
		),
	)

	_, err := query.Exec(h.DB)
	if err != nil {
		return fmt.Errorf("failed to add factor days to db: %w", err)
	}
	return nil
}

func (h *postgresMarketDataRepositoryHandler) AddBenchmarkDays(days []model.BenchmarkDay) error {
	if len(days) == 0 {
		return nil
	}
	query := BenchmarkDay.
		INSERT(BenchmarkDay.AllColumns).
		MODELS(days).
		ON_CONFLICT(
			BenchmarkDay.Date,
		).DO_UPDATE(
		SET(
			BenchmarkDay.Ret.SET(BenchmarkDay.EXCLUDED.Ret),
		),
	)

	_, err := query.Exec(h.DB)
	if err != nil {
		return fmt.Errorf("failed to add benchmark days to db: %w", err)
	}
	return nil
}

// assembleSnapshots joins the three row streams into one snapshot per
// trading day, in chronological order. Dates are normalized to UTC
// midnight so rows from different sources key consistently.
func assembleSnapshots(
	securities []model.SecurityDay,
	factors []model.FactorDay,
	benchmarks []model.BenchmarkDay,
) []domain.UniverseSnapshot {
	byDate := map[time.Time]*domain.UniverseSnapshot{}

	for _, row := range securities {
		date := normalizeDate(row.Date)
		snapshot, ok := byDate[date]
		if !ok {
			snapshot = &domain.UniverseSnapshot{
				Date:       date,
				Securities: map[string]domain.SecurityRecord{},
			}
			byDate[date] = snapshot
		}
		snapshot.Securities[row.Symbol] = domain.SecurityRecord{
			Symbol:     row.Symbol,
			NextReturn: row.NextRet,
			Tradable:   row.Tradable,
			Factors:    map[string]float64{},
		}
	}

	for _, row := range factors {
		snapshot, ok := byDate[normalizeDate(row.Date)]
		if !ok {
			continue
		}
		record, ok := snapshot.Securities[row.Symbol]
		if !ok {
			continue
		}
		record.Factors[row.Name] = row.Value
	}

	for _, row := range benchmarks {
		snapshot, ok := byDate[normalizeDate(row.Date)]
		if !ok {
			continue
		}
		ret := row.Ret
		snapshot.BenchmarkReturn = &ret
	}

	out := make([]domain.UniverseSnapshot, 0, len(byDate))
	for _, snapshot := range byDate {
		out = append(out, *snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
