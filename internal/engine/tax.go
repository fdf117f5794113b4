// Package engine implements the tax and retirement optimization engine:
// bracket integration, annual projection from a single paycheck, withholding
// adequacy, match-maximizing contribution rates and the cost of unused
// tax-advantaged room.
//
// Every function is pure. Amounts are exact decimals and are rounded only
// when a result is rendered, through the Rounded methods.
package engine

import (
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// BracketSlice is the part of an income taxed inside one bracket.
type BracketSlice struct {
	Lower     decimal.Decimal `json:"lower"`
	Upper     decimal.Decimal `json:"upper"`
	Rate      decimal.Decimal `json:"rate"`
	Taxed     decimal.Decimal `json:"taxed"`
	Tax       decimal.Decimal `json:"tax"`
	Unbounded bool            `json:"unbounded"`
}

// ComputeTax integrates income across the progressive brackets in table.
// Income at or below zero owes nothing.
func ComputeTax(income decimal.Decimal, table taxtable.BracketTable) decimal.Decimal {
	total := decimal.Zero
	for _, s := range Breakdown(income, table) {
		total = total.Add(s.Tax)
	}
	return total
}

// Breakdown returns the per-bracket slices ComputeTax sums, lowest first.
// Brackets the income never reaches are omitted.
func Breakdown(income decimal.Decimal, table taxtable.BracketTable) []BracketSlice {
	if !income.IsPositive() {
		return nil
	}

	slices := make([]BracketSlice, 0, len(table.Brackets))
	for i, b := range table.Brackets {
		lower := table.LowerBound(i)
		top := income
		if !b.Unbounded && b.UpperBound.LessThan(income) {
			top = b.UpperBound
		}
		taxed := top.Sub(lower)
		slices = append(slices, BracketSlice{
			Lower:     lower,
			Upper:     b.UpperBound,
			Unbounded: b.Unbounded,
			Rate:      b.Rate,
			Taxed:     taxed,
			Tax:       taxed.Mul(b.Rate),
		})
		if b.Contains(income) {
			break
		}
	}
	return slices
}

// MarginalRate returns the rate of the first bracket whose upper bound is
// at or above income.
func MarginalRate(income decimal.Decimal, table taxtable.BracketTable) decimal.Decimal {
	for _, b := range table.Brackets {
		if b.Contains(income) {
			return b.Rate
		}
	}
	if n := len(table.Brackets); n > 0 {
		return table.Brackets[n-1].Rate
	}
	return decimal.Zero
}

// EffectiveRate returns ComputeTax(income)/income, or zero when income is
// not positive.
func EffectiveRate(income decimal.Decimal, table taxtable.BracketTable) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return ComputeTax(income, table).Div(income)
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func roundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
