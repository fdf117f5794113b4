// Package service defines the interfaces shared by the command layer and
// its backends.
package service

import (
	"context"

	"github.com/Veraticus/charge-tax-intel/internal/model"
)

// SnapshotFilter narrows snapshot queries. Zero values match everything.
type SnapshotFilter struct {
	TaxYear int
	Limit   int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Profile operations
	SaveProfile(ctx context.Context, profile *model.FinancialProfile) error
	GetProfile(ctx context.Context) (*model.FinancialProfile, error)

	// Snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *model.PaycheckSnapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.PaycheckSnapshot, error)
	GetLatestSnapshot(ctx context.Context) (*model.PaycheckSnapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.PaycheckSnapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	// Analysis history
	SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) error
	ListAnalyses(ctx context.Context, limit int) ([]model.AnalysisRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}
