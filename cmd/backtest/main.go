package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"stockbacktest/internal"
	"stockbacktest/internal/app"
	"stockbacktest/internal/db/models/postgres/public/model"
	"stockbacktest/internal/logger"
	"stockbacktest/internal/repository"
	"stockbacktest/internal/strategy"
	"strings"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

var (
	configPath string
	outputDir  string
	versionTag string
)

var rootCmd = &cobra.Command{
	Use:          "stockbacktest",
	Short:        "daily cross-sectional equity strategy backtester",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a backtest and write its artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest()
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "load the configured CSV inputs into postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ingestCSVs()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "backtest.yaml", "path to the run config")
	runCmd.Flags().StringVar(&outputDir, "out", "", "override the configured output directory")
	runCmd.Flags().StringVar(&versionTag, "version-tag", "", "override the configured artifact version tag")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBacktest() error {
	log := logger.New()
	defer log.Sync()

	cfg, err := internal.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if versionTag != "" {
		cfg.VersionTag = versionTag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}

	source, err := newMarketDataSource(cfg.Inputs)
	if err != nil {
		return err
	}

	snapshots, err := source.ListUniverse(start, end)
	if err != nil {
		return err
	}
	// sources already filter by window; clip again so a misbehaving
	// source cannot leak out-of-range days into the run
	snapshots = app.ClipToWindow(snapshots, start, end)
	log.Infow("loaded market data", "days", len(snapshots), "start", cfg.StartDate, "end", cfg.EndDate)

	strat, err := newStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	handler := app.BacktestHandler{
		Strategy: strat,
		Log:      log,
	}
	ctx := context.WithValue(context.Background(), logger.ContextKey, log)

	result, err := handler.Run(ctx, app.RunBacktestInput{
		Snapshots:      snapshots,
		FeeRate:        cfg.FeeRate,
		PeriodsPerYear: cfg.PeriodsPerYear,
		Mode:           cfg.Mode(),
	})
	if err != nil {
		return err
	}

	writer := internal.ArtifactWriter{
		OutputDir:  cfg.OutputDir,
		VersionTag: cfg.VersionTag,
		Log:        log,
	}
	if err := writer.SaveAll(result.RunID, result.Metrics, result.Series, result.Holdings); err != nil {
		return err
	}

	rendered, err := json.MarshalIndent(result.Metrics, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to render metrics report: %w", err)
	}
	fmt.Println(string(rendered))

	return nil
}

func ingestCSVs() error {
	log := logger.New()
	defer log.Sync()

	cfg, err := internal.LoadRunConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openPostgres(cfg.Inputs)
	if err != nil {
		return err
	}
	defer db.Close()

	csvSource := repository.CSVMarketDataSource{
		SecuritiesPath: cfg.Inputs.SecuritiesCSV,
		FactorsPath:    cfg.Inputs.FactorsCSV,
		BenchmarkPath:  cfg.Inputs.BenchmarkCSV,
	}
	securityRows, factorRows, benchmarkRows, err := csvSource.LoadRows()
	if err != nil {
		return err
	}

	repo := repository.NewPostgresMarketDataRepository(db)

	securities := make([]model.SecurityDay, 0, len(securityRows))
	for _, row := range securityRows {
		securities = append(securities, model.SecurityDay{
			Symbol:   row.Symbol,
			Date:     row.Date.Time,
			NextRet:  row.NextRet,
			Tradable: row.Tradable,
		})
	}
	if err := repo.AddSecurityDays(securities); err != nil {
		return err
	}

	factors := make([]model.FactorDay, 0, len(factorRows))
	for _, row := range factorRows {
		factors = append(factors, model.FactorDay{
			Symbol: row.Symbol,
			Date:   row.Date.Time,
			Name:   row.Name,
			Value:  row.Value,
		})
	}
	if err := repo.AddFactorDays(factors); err != nil {
		return err
	}

	benchmarks := make([]model.BenchmarkDay, 0, len(benchmarkRows))
	for _, row := range benchmarkRows {
		benchmarks = append(benchmarks, model.BenchmarkDay{
			Date: row.Date.Time,
			Ret:  row.Ret,
		})
	}
	if err := repo.AddBenchmarkDays(benchmarks); err != nil {
		return err
	}

	log.Infow("ingest complete",
		"securityDays", len(securities),
		"factorDays", len(factors),
		"benchmarkDays", len(benchmarks),
	)
	return nil
}

func newMarketDataSource(inputs internal.InputsConfig) (repository.MarketDataSource, error) {
	switch strings.ToLower(inputs.Source) {
	case "", "csv":
		if inputs.SecuritiesCSV == "" {
			return nil, fmt.Errorf("csv market data source requires inputs.securitiesCsv")
		}
		return repository.CSVMarketDataSource{
			SecuritiesPath: inputs.SecuritiesCSV,
			FactorsPath:    inputs.FactorsCSV,
			BenchmarkPath:  inputs.BenchmarkCSV,
		}, nil
	case "postgres":
		db, err := openPostgres(inputs)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresMarketDataRepository(db), nil
	}
	return nil, fmt.Errorf("unknown market data source '%s'", inputs.Source)
}

func openPostgres(inputs internal.InputsConfig) (*sql.DB, error) {
	dsn := inputs.PostgresDSN
	if dsn == "" {
		dsn = os.Getenv("BACKTEST_DB")
	}
	if dsn == "" {
		return nil, fmt.Errorf("no postgres connection string: set inputs.postgresDsn or BACKTEST_DB")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}

func newStrategy(cfg internal.StrategyConfig) (strategy.Strategy, error) {
	switch strings.ToLower(strings.ReplaceAll(cfg.Kind, "_", "")) {
	case "topn":
		return strategy.TopN{
			Factor:     cfg.Factor,
			NumTickers: cfg.NumTickers,
		}, nil
	case "expressionscore":
		return strategy.ExpressionScore{
			Expression: cfg.Expression,
			NumTickers: cfg.NumTickers,
		}, nil
	case "compositescore":
		rules := make([]strategy.FactorRule, 0, len(cfg.Rules))
		for _, r := range cfg.Rules {
			rules = append(rules, strategy.FactorRule{
				Factor:   r.Factor,
				Quantile: r.Quantile,
				Points:   r.Points,
			})
		}
		return strategy.CompositeScore{
			Rules:           rules,
			SelectThreshold: cfg.SelectThreshold,
		}, nil
	}
	return nil, fmt.Errorf("unknown strategy kind '%s'", cfg.Kind)
}
