package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/mattn/go-sqlite3"
)

const snapshotColumns = `
	id, pay_date, tax_year, source, employer, state, filing_status,
	pay_frequency, gross_pay, federal_withheld, state_withheld,
	social_security_withheld, medicare_withheld, pretax_401k, pretax_hsa,
	pretax_fsa, pretax_other, ytd_gross_pay, ytd_federal_withheld, imported_at`

// SaveSnapshot stores a paycheck snapshot. A snapshot whose content hash is
// already stored fails with ErrDuplicateSnapshot.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.PaycheckSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	return s.saveSnapshotTx(ctx, s.db, snapshot)
}

func (s *SQLiteStorage) saveSnapshotTx(ctx context.Context, q queryable, snapshot *model.PaycheckSnapshot) error {
	if snapshot.ImportedAt.IsZero() {
		snapshot.ImportedAt = time.Now().UTC()
	}

	var payDate sql.NullTime
	if !snapshot.PayDate.IsZero() {
		payDate = sql.NullTime{Time: snapshot.PayDate, Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO snapshots (hash, `+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.Hash(),
		snapshot.ID,
		payDate,
		snapshot.TaxYear,
		snapshot.Source,
		snapshot.EmployerName,
		strings.ToUpper(snapshot.StateOfResidence),
		string(snapshot.FilingStatus),
		string(snapshot.PayFrequency),
		snapshot.GrossPay.String(),
		snapshot.FederalWithheld.String(),
		snapshot.StateWithheld.String(),
		snapshot.SocialSecurityWithheld.String(),
		snapshot.MedicareWithheld.String(),
		snapshot.PreTax.Retirement401k.String(),
		snapshot.PreTax.HSA.String(),
		snapshot.PreTax.FSA.String(),
		snapshot.PreTax.Other.String(),
		snapshot.YTDGrossPay.String(),
		snapshot.YTDFederalWithheld.String(),
		snapshot.ImportedAt,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateSnapshot, describeSnapshot(snapshot))
	}
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func describeSnapshot(s *model.PaycheckSnapshot) string {
	if s.PayDate.IsZero() {
		return s.ID
	}
	return s.PayDate.Format("2006-01-02") + " " + s.EmployerName
}

// GetSnapshot retrieves a snapshot by ID or ErrNotFound.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getSnapshotTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getSnapshotTx(ctx context.Context, q queryable, id string) (*model.PaycheckSnapshot, error) {
	row := q.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snapshot, nil
}

// GetLatestSnapshot returns the snapshot with the most recent pay date.
func (s *SQLiteStorage) GetLatestSnapshot(ctx context.Context) (*model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLatestSnapshotTx(ctx, s.db)
}

func (s *SQLiteStorage) getLatestSnapshotTx(ctx context.Context, q queryable) (*model.PaycheckSnapshot, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		ORDER BY pay_date DESC, imported_at DESC
		LIMIT 1
	`)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snapshot, nil
}

// ListSnapshots returns snapshots newest first.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context, filter service.SnapshotFilter) ([]model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listSnapshotsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) listSnapshotsTx(ctx context.Context, q queryable, filter service.SnapshotFilter) ([]model.PaycheckSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var args []any
	if filter.TaxYear > 0 {
		query += ` WHERE tax_year = ?`
		args = append(args, filter.TaxYear)
	}
	query += ` ORDER BY pay_date DESC, imported_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []model.PaycheckSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, rows.Err()
}

// DeleteSnapshot removes a snapshot. Unknown IDs return ErrNotFound.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deleteSnapshotTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteSnapshotTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*model.PaycheckSnapshot, error) {
	var (
		s            model.PaycheckSnapshot
		payDate      sql.NullTime
		status, freq string
	)
	err := row.Scan(
		&s.ID,
		&payDate,
		&s.TaxYear,
		&s.Source,
		&s.EmployerName,
		&s.StateOfResidence,
		&status,
		&freq,
		&s.GrossPay,
		&s.FederalWithheld,
		&s.StateWithheld,
		&s.SocialSecurityWithheld,
		&s.MedicareWithheld,
		&s.PreTax.Retirement401k,
		&s.PreTax.HSA,
		&s.PreTax.FSA,
		&s.PreTax.Other,
		&s.YTDGrossPay,
		&s.YTDFederalWithheld,
		&s.ImportedAt,
	)
	if err != nil {
		return nil, err
	}
	if payDate.Valid {
		s.PayDate = payDate.Time
	}
	s.FilingStatus = model.FilingStatus(status)
	s.PayFrequency = model.PayFrequency(freq)
	return &s, nil
}
