package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialProfile is what the user has told us about themselves. Any field
// may be zero; consumers treat zero values as unknown.
type FinancialProfile struct {
	UpdatedAt          time.Time
	FilingStatus       FilingStatus
	StateOfResidence   string
	AnnualIncome       decimal.Decimal
	Current401kPercent decimal.Decimal
	MatchRatePercent   decimal.Decimal
	MatchCapPercent    decimal.Decimal
	HSAAnnual          decimal.Decimal
	PortfolioValue     decimal.Decimal
	Age                int
}

// HasIncome reports whether an annual income was supplied.
func (p *FinancialProfile) HasIncome() bool {
	return p != nil && p.AnnualIncome.IsPositive()
}
