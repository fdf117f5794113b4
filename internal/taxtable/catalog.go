package taxtable

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
)

// Reference data errors.
var (
	// ErrUnknownPeriod is returned when a tax year or filing status has no
	// table. Callers must choose another year or reject the request.
	ErrUnknownPeriod = errors.New("unknown tax period")
	// ErrUnknownBucket is returned for a bucket name with no limit.
	ErrUnknownBucket = errors.New("unknown contribution bucket")
	// ErrInvalidTable is returned when reference data violates an invariant.
	ErrInvalidTable = errors.New("invalid reference table")
)

// Catalog is an immutable, year-keyed set of reference tables. It is safe
// for concurrent use.
type Catalog struct {
	years             map[int]*Year
	states            map[string]decimal.Decimal
	fallbackStateRate decimal.Decimal
}

// Years returns the supported tax years in ascending order.
func (c *Catalog) Years() []int {
	years := make([]int, 0, len(c.years))
	for y := range c.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Latest returns the most recent supported tax year, or 0 for an empty
// catalog.
func (c *Catalog) Latest() int {
	years := c.Years()
	if len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

// Supports reports whether year has reference data.
func (c *Catalog) Supports(year int) bool {
	_, ok := c.years[year]
	return ok
}

func (c *Catalog) year(year int) (*Year, error) {
	y, ok := c.years[year]
	if !ok {
		return nil, fmt.Errorf("%w: tax year %d", ErrUnknownPeriod, year)
	}
	return y, nil
}

// BracketsFor returns a copy of the bracket schedule for year and status.
func (c *Catalog) BracketsFor(year int, status model.FilingStatus) (BracketTable, error) {
	y, err := c.year(year)
	if err != nil {
		return BracketTable{}, err
	}
	table, ok := y.Brackets[status]
	if !ok {
		return BracketTable{}, fmt.Errorf("%w: tax year %d, filing status %q", ErrUnknownPeriod, year, status)
	}
	return table.clone(), nil
}

// StandardDeductionFor returns the standard deduction for year and status.
func (c *Catalog) StandardDeductionFor(year int, status model.FilingStatus) (decimal.Decimal, error) {
	y, err := c.year(year)
	if err != nil {
		return decimal.Zero, err
	}
	amount, ok := y.StandardDeductions[status]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: tax year %d, filing status %q", ErrUnknownPeriod, year, status)
	}
	return amount, nil
}

// LimitsFor returns every statutory limit for year.
func (c *Catalog) LimitsFor(year int) (StatutoryLimits, error) {
	y, err := c.year(year)
	if err != nil {
		return StatutoryLimits{}, err
	}
	return y.Limits, nil
}

// LimitFor returns the annual limit for bucket. BucketHSA resolves to the
// family limit for joint filers and the individual limit otherwise.
func (c *Catalog) LimitFor(year int, bucket Bucket, status model.FilingStatus) (decimal.Decimal, error) {
	limits, err := c.LimitsFor(year)
	if err != nil {
		return decimal.Zero, err
	}

	switch bucket {
	case Bucket401k:
		return limits.Elective401k, nil
	case Bucket401kCatchUp:
		return limits.CatchUp401k, nil
	case BucketHSA:
		if status == model.FilingMarriedJoint {
			return limits.HSAFamily, nil
		}
		return limits.HSAIndividual, nil
	case BucketHSAIndividual:
		return limits.HSAIndividual, nil
	case BucketHSAFamily:
		return limits.HSAFamily, nil
	case BucketHSACatchUp:
		return limits.HSACatchUp, nil
	case BucketIRA:
		return limits.IRA, nil
	case BucketIRACatchUp:
		return limits.IRACatchUp, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
}

// ElectiveDeferralLimit returns the 401(k) limit including catch-up when
// age is 50 or over.
func (c *Catalog) ElectiveDeferralLimit(year, age int) (decimal.Decimal, error) {
	limits, err := c.LimitsFor(year)
	if err != nil {
		return decimal.Zero, err
	}
	if age >= 50 {
		return limits.Elective401k.Add(limits.CatchUp401k), nil
	}
	return limits.Elective401k, nil
}

// PayrollFor returns the FICA parameters for year.
func (c *Catalog) PayrollFor(year int) (Payroll, error) {
	y, err := c.year(year)
	if err != nil {
		return Payroll{}, err
	}
	return y.Payroll, nil
}

// StateRateFor returns the flat estimate for a two-letter state code.
// Unknown or empty codes get the fallback rate rather than an error.
func (c *Catalog) StateRateFor(code string) StateRate {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if rate, ok := c.states[normalized]; ok {
		return StateRate{Code: normalized, Rate: rate}
	}
	return StateRate{Code: normalized, Rate: c.fallbackStateRate, Fallback: true}
}

// Overlay returns a new catalog containing c's years with other's years
// replacing any that overlap. State rates from other win as well.
func (c *Catalog) Overlay(other *Catalog) *Catalog {
	merged := &Catalog{
		years:             make(map[int]*Year, len(c.years)+len(other.years)),
		states:            make(map[string]decimal.Decimal, len(c.states)+len(other.states)),
		fallbackStateRate: c.fallbackStateRate,
	}
	for y, data := range c.years {
		merged.years[y] = data
	}
	for y, data := range other.years {
		merged.years[y] = data
	}
	for code, rate := range c.states {
		merged.states[code] = rate
	}
	for code, rate := range other.states {
		merged.states[code] = rate
	}
	if !other.fallbackStateRate.IsZero() {
		merged.fallbackStateRate = other.fallbackStateRate
	}
	return merged
}
