package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/model"
)

// SaveProfile replaces the stored profile.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, profile *model.FinancialProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}
	return s.saveProfileTx(ctx, s.db, profile)
}

func (s *SQLiteStorage) saveProfileTx(ctx context.Context, q queryable, profile *model.FinancialProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO profile (
			id, filing_status, state, annual_income, current_401k_percent,
			match_rate_percent, match_cap_percent, hsa_annual, portfolio_value,
			age, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filing_status = excluded.filing_status,
			state = excluded.state,
			annual_income = excluded.annual_income,
			current_401k_percent = excluded.current_401k_percent,
			match_rate_percent = excluded.match_rate_percent,
			match_cap_percent = excluded.match_cap_percent,
			hsa_annual = excluded.hsa_annual,
			portfolio_value = excluded.portfolio_value,
			age = excluded.age,
			updated_at = excluded.updated_at
	`,
		string(profile.FilingStatus),
		profile.StateOfResidence,
		profile.AnnualIncome.String(),
		profile.Current401kPercent.String(),
		profile.MatchRatePercent.String(),
		profile.MatchCapPercent.String(),
		profile.HSAAnnual.String(),
		profile.PortfolioValue.String(),
		profile.Age,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile or ErrNotFound.
func (s *SQLiteStorage) GetProfile(ctx context.Context) (*model.FinancialProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getProfileTx(ctx, s.db)
}

func (s *SQLiteStorage) getProfileTx(ctx context.Context, q queryable) (*model.FinancialProfile, error) {
	var (
		p      model.FinancialProfile
		status string
	)

	err := q.QueryRowContext(ctx, `
		SELECT filing_status, state, annual_income, current_401k_percent,
		       match_rate_percent, match_cap_percent, hsa_annual,
		       portfolio_value, age, updated_at
		FROM profile
		WHERE id = 1
	`).Scan(
		&status,
		&p.StateOfResidence,
		&p.AnnualIncome,
		&p.Current401kPercent,
		&p.MatchRatePercent,
		&p.MatchCapPercent,
		&p.HSAAnnual,
		&p.PortfolioValue,
		&p.Age,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.FilingStatus = model.FilingStatus(status)
	return &p, nil
}
