// Package taxtable holds the versioned federal reference data the tax engine
// reads: bracket schedules, standard deductions, statutory contribution
// limits, payroll tax parameters and flat state estimates.
package taxtable

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
)

// Bracket is one segment of a progressive schedule. Rate is a fraction
// (0.22, not 22). The top bracket has Unbounded set and a zero UpperBound.
type Bracket struct {
	UpperBound decimal.Decimal
	Rate       decimal.Decimal
	Unbounded  bool
}

// Contains reports whether income falls at or below this bracket's bound.
func (b Bracket) Contains(income decimal.Decimal) bool {
	return b.Unbounded || income.LessThanOrEqual(b.UpperBound)
}

// BracketTable is the ordered schedule for a single year and filing status.
type BracketTable struct {
	Status   model.FilingStatus
	Brackets []Bracket
	Year     int
}

// LowerBound returns the income at which bracket i starts.
func (t BracketTable) LowerBound(i int) decimal.Decimal {
	if i <= 0 || i > len(t.Brackets) {
		return decimal.Zero
	}
	return t.Brackets[i-1].UpperBound
}

// Validate checks the ordering invariants: strictly increasing bounds,
// non-decreasing rates and a single unbounded final bracket.
func (t BracketTable) Validate() error {
	if len(t.Brackets) == 0 {
		return fmt.Errorf("%w: %d %s has no brackets", ErrInvalidTable, t.Year, t.Status)
	}

	prevUpper := decimal.Zero
	prevRate := decimal.Zero
	last := len(t.Brackets) - 1

	for i, b := range t.Brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %d %s bracket %d rate %s out of range", ErrInvalidTable, t.Year, t.Status, i, b.Rate)
		}
		if b.Rate.LessThan(prevRate) {
			return fmt.Errorf("%w: %d %s bracket %d rate decreases", ErrInvalidTable, t.Year, t.Status, i)
		}
		prevRate = b.Rate

		if i == last {
			if !b.Unbounded {
				return fmt.Errorf("%w: %d %s final bracket must be unbounded", ErrInvalidTable, t.Year, t.Status)
			}
			continue
		}
		if b.Unbounded {
			return fmt.Errorf("%w: %d %s bracket %d is unbounded but not last", ErrInvalidTable, t.Year, t.Status, i)
		}
		if !b.UpperBound.GreaterThan(prevUpper) {
			return fmt.Errorf("%w: %d %s bracket %d bound %s not increasing", ErrInvalidTable, t.Year, t.Status, i, b.UpperBound)
		}
		prevUpper = b.UpperBound
	}
	return nil
}

func (t BracketTable) clone() BracketTable {
	brackets := make([]Bracket, len(t.Brackets))
	copy(brackets, t.Brackets)
	return BracketTable{Year: t.Year, Status: t.Status, Brackets: brackets}
}

// Bucket names a tax-advantaged account type with a statutory limit.
type Bucket string

const (
	// Bucket401k is the employee elective deferral limit.
	Bucket401k Bucket = "401k"
	// Bucket401kCatchUp is the additional deferral allowed at age 50+.
	Bucket401kCatchUp Bucket = "401k_catch_up"
	// BucketHSA resolves to individual or family coverage by filing status.
	BucketHSA Bucket = "hsa"
	// BucketHSAIndividual is the self-only HSA limit.
	BucketHSAIndividual Bucket = "hsa_individual"
	// BucketHSAFamily is the family HSA limit.
	BucketHSAFamily Bucket = "hsa_family"
	// BucketHSACatchUp is the additional HSA contribution allowed at 55+.
	BucketHSACatchUp Bucket = "hsa_catch_up"
	// BucketIRA is the traditional/Roth IRA limit.
	BucketIRA Bucket = "ira"
	// BucketIRACatchUp is the additional IRA contribution allowed at 50+.
	BucketIRACatchUp Bucket = "ira_catch_up"
)

// StatutoryLimits are the annual contribution limits for one tax year.
type StatutoryLimits struct {
	Elective401k  decimal.Decimal
	CatchUp401k   decimal.Decimal
	HSAIndividual decimal.Decimal
	HSAFamily     decimal.Decimal
	HSACatchUp    decimal.Decimal
	IRA           decimal.Decimal
	IRACatchUp    decimal.Decimal
}

// Payroll holds the FICA parameters for one tax year.
type Payroll struct {
	AdditionalMedicareThresholds map[model.FilingStatus]decimal.Decimal
	SocialSecurityRate           decimal.Decimal
	SocialSecurityWageBase       decimal.Decimal
	MedicareRate                 decimal.Decimal
	AdditionalMedicareRate       decimal.Decimal
}

// EmployeeRate is the combined employee Social Security and Medicare rate
// below the wage base (7.65% in every supported year).
func (p Payroll) EmployeeRate() decimal.Decimal {
	return p.SocialSecurityRate.Add(p.MedicareRate)
}

// AdditionalMedicareThreshold returns the surtax threshold for status,
// falling back to the single threshold for statuses without an entry.
func (p Payroll) AdditionalMedicareThreshold(status model.FilingStatus) decimal.Decimal {
	if v, ok := p.AdditionalMedicareThresholds[status]; ok {
		return v
	}
	return p.AdditionalMedicareThresholds[model.FilingSingle]
}

// StateRate is a flat state income tax estimate.
type StateRate struct {
	Code     string
	Rate     decimal.Decimal
	Fallback bool // true when the code was unknown and the default was used
}

// Year groups all reference data for one tax year.
type Year struct {
	Brackets           map[model.FilingStatus]BracketTable
	StandardDeductions map[model.FilingStatus]decimal.Decimal
	Payroll            Payroll
	Limits             StatutoryLimits
	Year               int
}
