package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
)

// NewAnalysisRecord summarizes a rounded analysis for the history table.
func NewAnalysisRecord(a engine.Analysis, snapshotID string) (*model.AnalysisRecord, error) {
	a = a.Rounded()
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	r := &model.AnalysisRecord{
		SnapshotID:            snapshotID,
		Year:                  a.Year,
		Incomplete:            a.Incomplete,
		TotalPotentialSavings: a.Recommendations.TotalPotentialSavings,
		Payload:               string(payload),
	}
	if p := a.Projection; p != nil {
		r.FilingStatus = p.FilingStatus
		r.TotalTax = p.TotalTax
	}
	if w := a.Withholding; w != nil {
		r.WithholdingStatus = string(w.Status)
		r.Differential = w.Differential
	}
	if c := a.Plan; c != nil {
		r.MissedMatch = c.MissedMatch
	}
	if o := a.Opportunity; o != nil {
		r.DailyCost = o.TotalDailyCost
	}
	return r, nil
}

// SaveAnalysis appends a run to the analysis history and sets its ID.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(record); err != nil {
		return err
	}
	return s.saveAnalysisTx(ctx, s.db, record)
}

func (s *SQLiteStorage) saveAnalysisTx(ctx context.Context, q queryable, record *model.AnalysisRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	payload := record.Payload
	if payload == "" {
		payload = "{}"
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO analyses (
			snapshot_id, tax_year, filing_status, withholding_status,
			total_tax, differential, missed_match, daily_cost,
			potential_savings, incomplete, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullString(record.SnapshotID),
		record.Year,
		string(record.FilingStatus),
		record.WithholdingStatus,
		record.TotalTax.String(),
		record.Differential.String(),
		record.MissedMatch.String(),
		record.DailyCost.String(),
		record.TotalPotentialSavings.String(),
		record.Incomplete,
		payload,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get analysis id: %w", err)
	}
	record.ID = id
	return nil
}

// ListAnalyses returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listAnalysesTx(ctx, s.db, limit)
}

func (s *SQLiteStorage) listAnalysesTx(ctx context.Context, q queryable, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, COALESCE(snapshot_id, ''), tax_year, filing_status,
		       withholding_status, total_tax, differential, missed_match,
		       daily_cost, potential_savings, incomplete, payload, created_at
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AnalysisRecord
	for rows.Next() {
		var (
			r      model.AnalysisRecord
			status string
		)
		if err := rows.Scan(
			&r.ID,
			&r.SnapshotID,
			&r.Year,
			&status,
			&r.WithholdingStatus,
			&r.TotalTax,
			&r.Differential,
			&r.MissedMatch,
			&r.DailyCost,
			&r.TotalPotentialSavings,
			&r.Incomplete,
			&r.Payload,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		r.FilingStatus = model.FilingStatus(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
