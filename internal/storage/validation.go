// Package storage persists profiles, paycheck snapshots and analysis history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrInvalidAnalysis   = errors.New("invalid analysis record")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateSnapshot = errors.New("snapshot already imported")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateProfile(p *model.FinancialProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if p.FilingStatus != "" && !p.FilingStatus.IsValid() {
		return fmt.Errorf("%w: unknown filing status %q", ErrInvalidProfile, p.FilingStatus)
	}
	if p.Age < 0 {
		return fmt.Errorf("%w: negative age", ErrInvalidProfile)
	}
	amounts := []struct {
		name     string
		negative bool
	}{
		{"annual income", p.AnnualIncome.IsNegative()},
		{"401(k) percent", p.Current401kPercent.IsNegative()},
		{"match rate", p.MatchRatePercent.IsNegative()},
		{"match cap", p.MatchCapPercent.IsNegative()},
		{"HSA contributions", p.HSAAnnual.IsNegative()},
		{"portfolio value", p.PortfolioValue.IsNegative()},
	}
	for _, a := range amounts {
		if a.negative {
			return fmt.Errorf("%w: negative %s", ErrInvalidProfile, a.name)
		}
	}
	return nil
}

// validateSnapshot validates a paycheck snapshot before it is stored.
func validateSnapshot(s *model.PaycheckSnapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSnapshot)
	}
	if !s.GrossPay.IsPositive() {
		return fmt.Errorf("%w: gross pay must be positive", ErrInvalidSnapshot)
	}
	if s.PayFrequency != "" && !s.PayFrequency.IsValid() {
		return fmt.Errorf("%w: unknown pay frequency %q", ErrInvalidSnapshot, s.PayFrequency)
	}
	if s.FilingStatus != "" && !s.FilingStatus.IsValid() {
		return fmt.Errorf("%w: unknown filing status %q", ErrInvalidSnapshot, s.FilingStatus)
	}
	if s.FederalWithheld.IsNegative() || s.StateWithheld.IsNegative() ||
		s.SocialSecurityWithheld.IsNegative() || s.MedicareWithheld.IsNegative() {
		return fmt.Errorf("%w: negative withholding", ErrInvalidSnapshot)
	}
	if s.PreTax.Retirement401k.IsNegative() || s.PreTax.HSA.IsNegative() ||
		s.PreTax.FSA.IsNegative() || s.PreTax.Other.IsNegative() {
		return fmt.Errorf("%w: negative deduction", ErrInvalidSnapshot)
	}
	if s.YTDGrossPay.IsNegative() || s.YTDFederalWithheld.IsNegative() {
		return fmt.Errorf("%w: negative year-to-date total", ErrInvalidSnapshot)
	}
	return nil
}

func validateAnalysis(r *model.AnalysisRecord) error {
	if r == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if r.Year <= 0 {
		return fmt.Errorf("%w: missing tax year", ErrInvalidAnalysis)
	}
	return nil
}
