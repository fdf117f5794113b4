package engine

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
)

// WithholdingStatus classifies withholding against projected liability.
type WithholdingStatus string

// Withholding statuses.
const (
	WithholdingOver    WithholdingStatus = "over"
	WithholdingUnder   WithholdingStatus = "under"
	WithholdingOnTrack WithholdingStatus = "on_track"
)

// Label returns a human-readable status.
func (s WithholdingStatus) Label() string {
	switch s {
	case WithholdingOver:
		return "Over-withholding"
	case WithholdingUnder:
		return "Under-withholding"
	case WithholdingOnTrack:
		return "On track"
	default:
		return string(s)
	}
}

// WithholdingAssessment compares projected withholding to projected
// liability. A positive Differential is a refund; negative is a balance due.
type WithholdingAssessment struct {
	Status             WithholdingStatus `json:"status"`
	Differential       decimal.Decimal   `json:"differential"`
	ProjectedWithheld  decimal.Decimal   `json:"projectedWithheld"`
	ProjectedLiability decimal.Decimal   `json:"projectedLiability"`
	Threshold          decimal.Decimal   `json:"threshold"`
	// PerPaycheckAdjustment is the change to per-period withholding that
	// would zero the differential. Positive means withhold more.
	PerPaycheckAdjustment decimal.Decimal `json:"perPaycheckAdjustment"`
	PeriodsPerYear        int             `json:"periodsPerYear"`
	// RemainingPeriods is nonzero only when ProjectedWithheld starts from
	// the paystub's year-to-date withholding.
	RemainingPeriods int `json:"remainingPeriods,omitempty"`
}

// Rounded returns a copy with money rounded to cents.
func (a WithholdingAssessment) Rounded() WithholdingAssessment {
	r := a
	r.Differential = roundMoney(a.Differential)
	r.ProjectedWithheld = roundMoney(a.ProjectedWithheld)
	r.ProjectedLiability = roundMoney(a.ProjectedLiability)
	r.Threshold = roundMoney(a.Threshold)
	r.PerPaycheckAdjustment = roundMoney(a.PerPaycheckAdjustment)
	return r
}

// Assess classifies withholding. Differentials strictly beyond the
// threshold in either direction are over or under; anything within it,
// boundaries included, is on track. A negative threshold is treated as its
// absolute value.
func Assess(projectedWithheld, projectedLiability, threshold decimal.Decimal) WithholdingAssessment {
	threshold = threshold.Abs()
	diff := projectedWithheld.Sub(projectedLiability)

	status := WithholdingOnTrack
	switch {
	case diff.GreaterThan(threshold):
		status = WithholdingOver
	case diff.LessThan(threshold.Neg()):
		status = WithholdingUnder
	}

	return WithholdingAssessment{
		Status:             status,
		Differential:       diff,
		ProjectedWithheld:  projectedWithheld,
		ProjectedLiability: projectedLiability,
		Threshold:          threshold,
	}
}

// AssessProjection compares projected federal withholding to the
// projection's federal tax. Withholding is the snapshot's amount times the
// periods in a year, or, when the paystub carries year-to-date totals, the
// year-to-date amount plus the snapshot's amount for each period left. The
// per-paycheck adjustment is spread over the periods left.
func AssessProjection(s model.PaycheckSnapshot, p AnnualProjection, threshold decimal.Decimal) (WithholdingAssessment, error) {
	if s.FederalWithheld.IsNegative() {
		return WithholdingAssessment{}, fmt.Errorf("%w: federal withholding %s is negative", ErrInvalidInput, s.FederalWithheld)
	}
	if s.YTDFederalWithheld.IsNegative() {
		return WithholdingAssessment{}, fmt.Errorf("%w: year-to-date federal withholding %s is negative", ErrInvalidInput, s.YTDFederalWithheld)
	}

	periods := p.PeriodsPerYear
	if periods <= 0 {
		periods = model.PaySemimonthly.PeriodsPerYear()
	}

	withheld := s.FederalWithheld.Mul(decimal.NewFromInt(int64(periods)))
	remaining := periods
	elapsed := elapsedPeriods(s, periods)
	if elapsed > 0 {
		remaining = periods - elapsed
		withheld = s.YTDFederalWithheld.Add(s.FederalWithheld.Mul(decimal.NewFromInt(int64(remaining))))
	}

	a := Assess(withheld, p.FederalTax, threshold)
	a.PeriodsPerYear = periods
	if elapsed > 0 {
		a.RemainingPeriods = remaining
	}
	if remaining > 0 {
		a.PerPaycheckAdjustment = a.Differential.Neg().Div(decimal.NewFromInt(int64(remaining)))
	}
	return a, nil
}

// elapsedPeriods estimates the pay periods covered by the year-to-date
// totals, this one included. Zero means the snapshot has none.
func elapsedPeriods(s model.PaycheckSnapshot, periods int) int {
	if !s.YTDGrossPay.IsPositive() || !s.GrossPay.IsPositive() {
		return 0
	}
	n := s.YTDGrossPay.Div(s.GrossPay).Round(0).IntPart()
	return int(min(max(n, 1), int64(periods)))
}
