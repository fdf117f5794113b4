package engine

import "github.com/shopspring/decimal"

// Config holds the tunable parameters shared by every engine call site.
type Config struct {
	// WithholdingThreshold is the tolerance band within which withholding
	// is considered on track.
	WithholdingThreshold decimal.Decimal
	// PortfolioDragRate is the assumed annual tax drag on a taxable
	// portfolio above PortfolioDragFloor.
	PortfolioDragRate  decimal.Decimal
	PortfolioDragFloor decimal.Decimal
	// AdvisorFeeRate is the assumed annual advisory fee on a portfolio
	// above AdvisorFeeFloor.
	AdvisorFeeRate  decimal.Decimal
	AdvisorFeeFloor decimal.Decimal
	Year            int
	IncludeState    bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Year:                 2026,
		WithholdingThreshold: decimal.NewFromInt(500),
		PortfolioDragRate:    decimal.RequireFromString("0.01"),
		PortfolioDragFloor:   decimal.NewFromInt(50000),
		AdvisorFeeRate:       decimal.RequireFromString("0.01"),
		AdvisorFeeFloor:      decimal.NewFromInt(100000),
	}
}
