package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPreTaxDeductions_Total(t *testing.T) {
	d := PreTaxDeductions{
		Retirement401k: decimal.RequireFromString("375.00"),
		HSA:            decimal.RequireFromString("150.25"),
		FSA:            decimal.RequireFromString("50"),
		Other:          decimal.RequireFromString("12.10"),
	}
	assert.True(t, decimal.RequireFromString("587.35").Equal(d.Total()))
}

func TestPaycheckSnapshot_Hash(t *testing.T) {
	base := PaycheckSnapshot{
		PayDate:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		EmployerName:    "Acme",
		GrossPay:        decimal.NewFromInt(6250),
		FederalWithheld: decimal.NewFromInt(750),
		PayFrequency:    PaySemimonthly,
	}

	same := base
	same.ID = "different-id"
	same.Source = "other.json"
	assert.Equal(t, base.Hash(), same.Hash(), "metadata must not affect the content hash")

	changed := base
	changed.GrossPay = decimal.NewFromInt(6300)
	assert.NotEqual(t, base.Hash(), changed.Hash())
}
