package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PreTaxDeductions are the per-period amounts taken out before federal
// income tax.
type PreTaxDeductions struct {
	Retirement401k decimal.Decimal
	HSA            decimal.Decimal
	FSA            decimal.Decimal
	Other          decimal.Decimal
}

// Total sums every pre-tax deduction.
func (d PreTaxDeductions) Total() decimal.Decimal {
	return d.Retirement401k.Add(d.HSA).Add(d.FSA).Add(d.Other)
}

// PaycheckSnapshot is a single observed pay period as supplied by document
// extraction. The engine treats it as read-only.
type PaycheckSnapshot struct {
	PayDate                time.Time
	ImportedAt             time.Time
	ID                     string
	Source                 string // file or extractor the snapshot came from
	EmployerName           string
	StateOfResidence       string
	FilingStatus           FilingStatus
	PayFrequency           PayFrequency
	GrossPay               decimal.Decimal
	FederalWithheld        decimal.Decimal
	StateWithheld          decimal.Decimal
	SocialSecurityWithheld decimal.Decimal
	MedicareWithheld       decimal.Decimal
	PreTax                 PreTaxDeductions
	// Year-to-date totals as printed on the paystub, including this
	// period. A zero YTDGrossPay means the paystub had none.
	YTDGrossPay        decimal.Decimal
	YTDFederalWithheld decimal.Decimal
	TaxYear            int
}

// Hash identifies a snapshot by content so the same paystub is not imported
// twice.
func (s *PaycheckSnapshot) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		s.PayDate.Format("2006-01-02"),
		s.EmployerName,
		s.GrossPay.StringFixed(2),
		s.FederalWithheld.StringFixed(2),
		s.StateWithheld.StringFixed(2),
		s.PreTax.Total().StringFixed(2),
		s.PayFrequency)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
