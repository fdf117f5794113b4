package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSnapshot(id string, payDate time.Time, gross string) *model.PaycheckSnapshot {
	return &model.PaycheckSnapshot{
		ID:                     id,
		PayDate:                payDate,
		TaxYear:                payDate.Year(),
		Source:                 "stub-" + id + ".json",
		EmployerName:           "Acme",
		StateOfResidence:       "co",
		FilingStatus:           model.FilingSingle,
		PayFrequency:           model.PaySemimonthly,
		GrossPay:               d(gross),
		FederalWithheld:        d("573"),
		StateWithheld:          d("180.50"),
		SocialSecurityWithheld: d("310"),
		MedicareWithheld:       d("72.50"),
		PreTax: model.PreTaxDeductions{
			Retirement401k: d("500"),
			HSA:            d("100"),
		},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tax.db")
		store, err := NewSQLiteStorage(path)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Migrate(context.Background()))
		assert.Equal(t, path, store.Path())
		assert.FileExists(t, path)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage(" ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var tables int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('profile', 'snapshots', 'analyses')
	`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 3, tables)
}

func TestProfile(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetProfile(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	profile := &model.FinancialProfile{
		FilingStatus:       model.FilingMarriedJoint,
		StateOfResidence:   "CA",
		AnnualIncome:       d("185000.50"),
		Current401kPercent: d("6"),
		MatchRatePercent:   d("50"),
		MatchCapPercent:    d("6"),
		HSAAnnual:          d("2000"),
		PortfolioValue:     d("250000"),
		Age:                52,
	}
	require.NoError(t, store.SaveProfile(ctx, profile))
	assert.False(t, profile.UpdatedAt.IsZero())

	got, err := store.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.FilingMarriedJoint, got.FilingStatus)
	assert.Equal(t, "CA", got.StateOfResidence)
	assert.True(t, got.AnnualIncome.Equal(d("185000.50")))
	assert.True(t, got.PortfolioValue.Equal(d("250000")))
	assert.Equal(t, 52, got.Age)

	// Saving again replaces the single row.
	profile.AnnualIncome = d("190000")
	profile.Age = 53
	require.NoError(t, store.SaveProfile(ctx, profile))

	got, err = store.GetProfile(ctx)
	require.NoError(t, err)
	assert.True(t, got.AnnualIncome.Equal(d("190000")))
	assert.Equal(t, 53, got.Age)

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profile`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSnapshots(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	jan := testSnapshot("a", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "5000")
	feb := testSnapshot("b", time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), "5000")
	feb.YTDGrossPay = d("15000")
	feb.YTDFederalWithheld = d("1719")
	old := testSnapshot("c", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "4800")

	for _, s := range []*model.PaycheckSnapshot{jan, feb, old} {
		require.NoError(t, store.SaveSnapshot(ctx, s))
	}

	got, err := store.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.PayDate.Equal(jan.PayDate))
	assert.Equal(t, "CO", got.StateOfResidence)
	assert.Equal(t, model.PaySemimonthly, got.PayFrequency)
	assert.True(t, got.GrossPay.Equal(d("5000")))
	assert.True(t, got.StateWithheld.Equal(d("180.5")))
	assert.True(t, got.PreTax.Total().Equal(d("600")))
	assert.Equal(t, jan.Hash(), got.Hash())

	assert.True(t, got.YTDGrossPay.IsZero())

	latest, err := store.GetLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)
	assert.True(t, latest.YTDGrossPay.Equal(d("15000")))
	assert.True(t, latest.YTDFederalWithheld.Equal(d("1719")))

	all, err := store.ListSnapshots(ctx, service.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	year, err := store.ListSnapshots(ctx, service.SnapshotFilter{TaxYear: 2025})
	require.NoError(t, err)
	require.Len(t, year, 1)
	assert.Equal(t, "c", year[0].ID)

	limited, err := store.ListSnapshots(ctx, service.SnapshotFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, store.DeleteSnapshot(ctx, "a"))
	_, err = store.GetSnapshot(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSnapshot(ctx, "a"), ErrNotFound)
}

func TestSaveSnapshot_Duplicate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := testSnapshot("first", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "5000")
	require.NoError(t, store.SaveSnapshot(ctx, first))

	// Same content, new ID.
	again := testSnapshot("second", first.PayDate, "5000")
	err := store.SaveSnapshot(ctx, again)
	assert.ErrorIs(t, err, ErrDuplicateSnapshot)
	assert.Contains(t, err.Error(), "2026-03-01 Acme")
}

func TestGetLatestSnapshot_Empty(t *testing.T) {
	store := createTestStorage(t)
	_, err := store.GetLatestSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotWithoutPayDate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	s := testSnapshot("undated", time.Time{}, "3000")
	s.TaxYear = 0
	require.NoError(t, store.SaveSnapshot(ctx, s))

	got, err := store.GetSnapshot(ctx, "undated")
	require.NoError(t, err)
	assert.True(t, got.PayDate.IsZero())
}

func TestTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.SaveSnapshot(ctx, testSnapshot("tx1", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "5000")))

		inTx, err := tx.ListSnapshots(ctx, service.SnapshotFilter{})
		require.NoError(t, err)
		assert.Len(t, inTx, 1)

		require.NoError(t, tx.Rollback())

		after, err := store.ListSnapshots(ctx, service.SnapshotFilter{})
		require.NoError(t, err)
		assert.Empty(t, after)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.SaveProfile(ctx, &model.FinancialProfile{AnnualIncome: d("90000")}))
		require.NoError(t, tx.Commit())

		got, err := store.GetProfile(ctx)
		require.NoError(t, err)
		assert.True(t, got.AnnualIncome.Equal(d("90000")))
	})

	t.Run("unsupported operations", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		assert.Error(t, tx.Migrate(ctx))
		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
		assert.Error(t, tx.Close())
	})
}
