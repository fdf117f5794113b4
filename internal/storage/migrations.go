package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				// id is pinned to 1 so the profile stays a single row.
				`CREATE TABLE IF NOT EXISTS profile (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					filing_status TEXT NOT NULL DEFAULT '',
					state TEXT NOT NULL DEFAULT '',
					annual_income TEXT NOT NULL DEFAULT '0',
					current_401k_percent TEXT NOT NULL DEFAULT '0',
					match_rate_percent TEXT NOT NULL DEFAULT '0',
					match_cap_percent TEXT NOT NULL DEFAULT '0',
					hsa_annual TEXT NOT NULL DEFAULT '0',
					portfolio_value TEXT NOT NULL DEFAULT '0',
					age INTEGER NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS snapshots (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					pay_date DATETIME,
					tax_year INTEGER NOT NULL DEFAULT 0,
					source TEXT NOT NULL DEFAULT '',
					employer TEXT NOT NULL DEFAULT '',
					state TEXT NOT NULL DEFAULT '',
					filing_status TEXT NOT NULL DEFAULT '',
					pay_frequency TEXT NOT NULL DEFAULT '',
					gross_pay TEXT NOT NULL,
					federal_withheld TEXT NOT NULL DEFAULT '0',
					state_withheld TEXT NOT NULL DEFAULT '0',
					social_security_withheld TEXT NOT NULL DEFAULT '0',
					medicare_withheld TEXT NOT NULL DEFAULT '0',
					pretax_401k TEXT NOT NULL DEFAULT '0',
					pretax_hsa TEXT NOT NULL DEFAULT '0',
					pretax_fsa TEXT NOT NULL DEFAULT '0',
					pretax_other TEXT NOT NULL DEFAULT '0',
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_snapshots_pay_date ON snapshots(pay_date)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add analysis history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS analyses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					snapshot_id TEXT,
					tax_year INTEGER NOT NULL,
					filing_status TEXT NOT NULL DEFAULT '',
					withholding_status TEXT NOT NULL DEFAULT '',
					total_tax TEXT NOT NULL DEFAULT '0',
					differential TEXT NOT NULL DEFAULT '0',
					missed_match TEXT NOT NULL DEFAULT '0',
					daily_cost TEXT NOT NULL DEFAULT '0',
					potential_savings TEXT NOT NULL DEFAULT '0',
					incomplete BOOLEAN NOT NULL DEFAULT 0,
					payload TEXT NOT NULL DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_analyses_created_at ON analyses(created_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Index snapshots by tax year",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_snapshots_tax_year ON snapshots(tax_year, pay_date)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Keep paystub year-to-date totals",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE snapshots ADD COLUMN ytd_gross_pay TEXT NOT NULL DEFAULT '0'`,
				`ALTER TABLE snapshots ADD COLUMN ytd_federal_withheld TEXT NOT NULL DEFAULT '0'`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
