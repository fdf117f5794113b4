package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisRecord is the stored summary of one analysis run. Amounts are
// already rounded to cents.
type AnalysisRecord struct {
	CreatedAt             time.Time
	SnapshotID            string
	FilingStatus          FilingStatus
	WithholdingStatus     string
	Payload               string // full rounded analysis as JSON
	TotalTax              decimal.Decimal
	Differential          decimal.Decimal
	MissedMatch           decimal.Decimal
	DailyCost             decimal.Decimal
	TotalPotentialSavings decimal.Decimal
	ID                    int64
	Year                  int
	Incomplete            bool
}
