package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OptimizeInput describes a salary and employer match formula. All
// percentages are whole percents, so 6 means 6%.
type OptimizeInput struct {
	Salary              decimal.Decimal
	CurrentPercent      decimal.Decimal
	MatchRatePercent    decimal.Decimal // employer cents per employee dollar, as a percent
	MatchCapPercent     decimal.Decimal // share of salary the employer matches on
	MarginalRatePercent decimal.Decimal
	AnnualLimit         decimal.Decimal
	PeriodsPerYear      int
}

// ContributionPlan is the match-maximizing contribution and what it is
// worth relative to the current rate.
type ContributionPlan struct {
	CurrentPercent       decimal.Decimal `json:"currentPercent"`
	OptimalPercent       decimal.Decimal `json:"optimalPercent"`
	CurrentAnnual        decimal.Decimal `json:"currentAnnual"`
	OptimalAnnual        decimal.Decimal `json:"optimalAnnual"`
	CurrentMatch         decimal.Decimal `json:"currentMatch"`
	OptimalMatch         decimal.Decimal `json:"optimalMatch"`
	MissedMatch          decimal.Decimal `json:"missedMatch"`
	CurrentTaxSavings    decimal.Decimal `json:"currentTaxSavings"`
	OptimalTaxSavings    decimal.Decimal `json:"optimalTaxSavings"`
	AdditionalTaxSavings decimal.Decimal `json:"additionalTaxSavings"`
	TotalBenefit         decimal.Decimal `json:"totalBenefit"`
	PerPaycheckDelta     decimal.Decimal `json:"perPaycheckDelta"`
	MaxOutAnnual         decimal.Decimal `json:"maxOutAnnual"`
	MaxOutTaxSavings     decimal.Decimal `json:"maxOutTaxSavings"`
	PeriodsPerYear       int             `json:"periodsPerYear"`
}

// Rounded returns a copy with money rounded to cents and percents to two
// places.
func (c ContributionPlan) Rounded() ContributionPlan {
	r := c
	r.CurrentPercent = c.CurrentPercent.Round(2)
	r.OptimalPercent = c.OptimalPercent.Round(2)
	r.CurrentAnnual = roundMoney(c.CurrentAnnual)
	r.OptimalAnnual = roundMoney(c.OptimalAnnual)
	r.CurrentMatch = roundMoney(c.CurrentMatch)
	r.OptimalMatch = roundMoney(c.OptimalMatch)
	r.MissedMatch = roundMoney(c.MissedMatch)
	r.CurrentTaxSavings = roundMoney(c.CurrentTaxSavings)
	r.OptimalTaxSavings = roundMoney(c.OptimalTaxSavings)
	r.AdditionalTaxSavings = roundMoney(c.AdditionalTaxSavings)
	r.TotalBenefit = roundMoney(c.TotalBenefit)
	r.PerPaycheckDelta = roundMoney(c.PerPaycheckDelta)
	r.MaxOutAnnual = roundMoney(c.MaxOutAnnual)
	r.MaxOutTaxSavings = roundMoney(c.MaxOutTaxSavings)
	return r
}

// NeedsIncrease reports whether the current rate leaves match unclaimed.
func (c ContributionPlan) NeedsIncrease() bool {
	return c.MissedMatch.IsPositive()
}

// Optimize computes the contribution rate that captures the full employer
// match without exceeding the annual limit.
//
// Contribution percents are clamped to [0, 100]; the match rate is only
// floored at zero since employers may match more than dollar for dollar.
// A negative salary or limit returns ErrInvalidInput. A zero salary or
// zero match cap produces a zero plan.
func Optimize(in OptimizeInput) (ContributionPlan, error) {
	if in.Salary.IsNegative() {
		return ContributionPlan{}, fmt.Errorf("%w: salary %s is negative", ErrInvalidInput, in.Salary)
	}
	if in.AnnualLimit.IsNegative() {
		return ContributionPlan{}, fmt.Errorf("%w: annual limit %s is negative", ErrInvalidInput, in.AnnualLimit)
	}

	current := clampPercent(in.CurrentPercent)
	matchCap := clampPercent(in.MatchCapPercent)
	matchRate := maxDecimal(decimal.Zero, in.MatchRatePercent)
	marginal := clampPercent(in.MarginalRatePercent)

	plan := ContributionPlan{CurrentPercent: current, PeriodsPerYear: in.PeriodsPerYear}
	if !in.Salary.IsPositive() || !matchCap.IsPositive() {
		return plan, nil
	}

	salary := in.Salary
	limitPercent := in.AnnualLimit.Div(salary).Mul(hundred)
	optimal := minDecimal(minDecimal(matchCap, hundred), limitPercent)

	// Dollar amounts come straight from salary; the percent is for display.
	capAnnual := matchCap.Mul(salary).Div(hundred)
	matchAt := func(contribution decimal.Decimal) decimal.Decimal {
		return minDecimal(contribution, capAnnual).Mul(matchRate).Div(hundred)
	}
	savingsAt := func(contribution decimal.Decimal) decimal.Decimal {
		return minDecimal(contribution, in.AnnualLimit).Mul(marginal).Div(hundred)
	}

	plan.OptimalPercent = optimal
	plan.CurrentAnnual = current.Mul(salary).Div(hundred)
	plan.OptimalAnnual = minDecimal(minDecimal(capAnnual, salary), in.AnnualLimit)
	plan.CurrentMatch = matchAt(plan.CurrentAnnual)
	plan.OptimalMatch = matchAt(plan.OptimalAnnual)
	plan.MissedMatch = maxDecimal(decimal.Zero, plan.OptimalMatch.Sub(plan.CurrentMatch))
	plan.CurrentTaxSavings = savingsAt(plan.CurrentAnnual)
	plan.OptimalTaxSavings = savingsAt(plan.OptimalAnnual)
	plan.AdditionalTaxSavings = plan.OptimalTaxSavings.Sub(plan.CurrentTaxSavings)
	plan.TotalBenefit = plan.MissedMatch.Add(plan.AdditionalTaxSavings)
	plan.MaxOutAnnual = minDecimal(in.AnnualLimit, salary)
	plan.MaxOutTaxSavings = savingsAt(plan.MaxOutAnnual)

	if in.PeriodsPerYear > 0 {
		plan.PerPaycheckDelta = plan.OptimalAnnual.Sub(plan.CurrentAnnual).Div(decimal.NewFromInt(int64(in.PeriodsPerYear)))
	}
	return plan, nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	return minDecimal(maxDecimal(decimal.Zero, p), hundred)
}
