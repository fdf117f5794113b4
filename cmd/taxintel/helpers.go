package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/config"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/Veraticus/charge-tax-intel/internal/storage"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString(config.KeyDatabasePath)
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initCatalog returns the embedded tax tables, overlaid with the file at
// tax.tables_path when one is configured.
func initCatalog() (*taxtable.Catalog, error) {
	catalog, err := taxtable.Default()
	if err != nil {
		return nil, err
	}

	path := viper.GetString(config.KeyTablesPath)
	if path == "" {
		return catalog, nil
	}

	extra, err := taxtable.Load(config.ExpandPath(path))
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Could not load tax tables from %s", path), err)
	}
	common.LogDebug("overlaying tax tables", common.Fields{"path": path, "years": extra.Years()})
	return catalog.Overlay(extra), nil
}

// loadProfile returns the stored profile, or an empty one if none was saved.
func loadProfile(ctx context.Context, store service.Storage) (model.FinancialProfile, error) {
	profile, err := store.GetProfile(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return model.FinancialProfile{}, nil
	}
	if err != nil {
		return model.FinancialProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return *profile, nil
}

// latestSnapshot returns the most recent paycheck, or nil if none was imported.
func latestSnapshot(ctx context.Context, store service.Storage) (*model.PaycheckSnapshot, error) {
	snapshot, err := store.GetLatestSnapshot(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest paycheck: %w", err)
	}
	return snapshot, nil
}

// analysisRun is everything a command needs after running the engine over
// stored data.
type analysisRun struct {
	catalog  *taxtable.Catalog
	snapshot *model.PaycheckSnapshot
	profile  model.FinancialProfile
	analysis engine.Analysis
	config   engine.Config
}

// runStoredAnalysis runs the full engine pipeline over the stored profile
// and latest paycheck.
func runStoredAnalysis(ctx context.Context, store service.Storage) (*analysisRun, error) {
	cfg, err := config.LoadEngineConfig()
	if err != nil {
		return nil, common.NewUserError("Invalid configuration", err)
	}

	catalog, err := initCatalog()
	if err != nil {
		return nil, err
	}

	profile, err := loadProfile(ctx, store)
	if err != nil {
		return nil, err
	}

	snapshot, err := latestSnapshot(ctx, store)
	if err != nil {
		return nil, err
	}

	analysis, err := engine.Analyze(catalog, cfg, engine.AnalyzeInput{Snapshot: snapshot, Profile: profile})
	if err != nil {
		return nil, engineError(err)
	}

	common.LogDebug("analysis complete", common.Fields{
		"year":       analysis.Year,
		"incomplete": analysis.Incomplete,
		"warnings":   len(analysis.Warnings),
	})

	return &analysisRun{
		catalog:  catalog,
		snapshot: snapshot,
		profile:  profile,
		analysis: analysis,
		config:   cfg,
	}, nil
}

// engineError turns engine failures into messages the user can act on.
func engineError(err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownPeriod):
		return common.NewUserError("No tax tables for that year or filing status. Set tax.year or add tables with tax.tables_path", err)
	case errors.Is(err, engine.ErrInvalidInput):
		return common.NewUserError("The stored profile or paycheck has invalid values", err)
	default:
		return err
	}
}

// resolveYear returns year when set and the configured tax year otherwise.
func resolveYear(year int) int {
	if year > 0 {
		return year
	}
	if configured := viper.GetInt(config.KeyTaxYear); configured > 0 {
		return configured
	}
	return engine.DefaultConfig().Year
}

func closeStore(store service.Storage) {
	if err := store.Close(); err != nil {
		common.LogWarn("failed to close database", common.Fields{"error": err})
	}
}
