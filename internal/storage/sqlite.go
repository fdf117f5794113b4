package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStorage implements service.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn := MemoryPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Path returns the database location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) SaveProfile(ctx context.Context, profile *model.FinancialProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}
	return t.storage.saveProfileTx(ctx, t.tx, profile)
}

func (t *sqliteTransaction) GetProfile(ctx context.Context) (*model.FinancialProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getProfileTx(ctx, t.tx)
}

func (t *sqliteTransaction) SaveSnapshot(ctx context.Context, snapshot *model.PaycheckSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	return t.storage.saveSnapshotTx(ctx, t.tx, snapshot)
}

func (t *sqliteTransaction) GetSnapshot(ctx context.Context, id string) (*model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getSnapshotTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetLatestSnapshot(ctx context.Context) (*model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getLatestSnapshotTx(ctx, t.tx)
}

func (t *sqliteTransaction) ListSnapshots(ctx context.Context, filter service.SnapshotFilter) ([]model.PaycheckSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listSnapshotsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.deleteSnapshotTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(record); err != nil {
		return err
	}
	return t.storage.saveAnalysisTx(ctx, t.tx, record)
}

func (t *sqliteTransaction) ListAnalyses(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listAnalysesTx(ctx, t.tx, limit)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}

var (
	_ service.Storage     = (*SQLiteStorage)(nil)
	_ service.Transaction = (*sqliteTransaction)(nil)
)
