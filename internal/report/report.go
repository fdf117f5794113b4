// Package report turns analyses into terminal, JSON and PDF output.
package report

import (
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
)

// Row is a labeled amount in a report section. Rate rows hold a fraction.
type Row struct {
	Label string
	Note  string
	Value decimal.Decimal
	Rate  bool
}

// Section is a titled group of rows.
type Section struct {
	Title string
	Rows  []Row
}

// HistoryRow is one past analysis run.
type HistoryRow struct {
	CreatedAt         time.Time
	WithholdingStatus string
	TotalTax          decimal.Decimal
	Differential      decimal.Decimal
	MissedMatch       decimal.Decimal
	DailyCost         decimal.Decimal
	Year              int
}

// Report is a rounded analysis laid out as titled sections, shared by the
// PDF and spreadsheet exports.
type Report struct {
	GeneratedAt time.Time
	Sections    []Section
	Strategies  []model.TaxStrategy
	Paycheck    []model.PaycheckOptimization
	Warnings    []string
	History     []HistoryRow
	Year        int
}

// New lays out a rounded analysis as report sections. Parts of the
// analysis that are nil are left out.
func New(a engine.Analysis, generatedAt time.Time) Report {
	a = a.Rounded()
	r := Report{
		GeneratedAt: generatedAt,
		Year:        a.Year,
		Strategies:  a.Recommendations.Strategies,
		Paycheck:    a.Recommendations.Paycheck,
		Warnings:    a.Warnings,
	}

	if p := a.Projection; p != nil {
		r.Sections = append(r.Sections, Section{
			Title: "Annual Projection",
			Rows: []Row{
				{Label: "Annual Gross", Value: p.AnnualGross},
				{Label: "Pre-tax Deductions", Value: p.TotalPreTax},
				{Label: "AGI", Value: p.AGI},
				{Label: "Standard Deduction", Value: p.StandardDeduction},
				{Label: "Taxable Income", Value: p.TaxableIncome},
				{Label: "Federal Tax", Value: p.FederalTax},
				{Label: "FICA", Value: p.FICATax()},
				{Label: "State Tax", Value: p.StateTax, Note: stateNote(*p)},
				{Label: "Total Tax", Value: p.TotalTax},
				{Label: "Marginal Rate", Value: p.MarginalRate, Rate: true},
				{Label: "Effective Rate", Value: p.EffectiveRate, Rate: true},
			},
		})
	}

	if w := a.Withholding; w != nil {
		r.Sections = append(r.Sections, Section{
			Title: "Withholding",
			Rows: []Row{
				{Label: "Projected Withheld", Value: w.ProjectedWithheld},
				{Label: "Projected Liability", Value: w.ProjectedLiability},
				{Label: "Differential", Value: w.Differential, Note: w.Status.Label()},
				{Label: "Per-paycheck Adjustment", Value: w.PerPaycheckAdjustment},
			},
		})
	}

	if c := a.Plan; c != nil {
		r.Sections = append(r.Sections, Section{
			Title: "401(k) Contribution",
			Rows: []Row{
				{Label: "Current Contribution", Value: c.CurrentAnnual, Note: common.FormatPercent(c.CurrentPercent)},
				{Label: "Match-maximizing Contribution", Value: c.OptimalAnnual, Note: common.FormatPercent(c.OptimalPercent)},
				{Label: "Missed Match", Value: c.MissedMatch},
				{Label: "Additional Tax Savings", Value: c.AdditionalTaxSavings},
				{Label: "Per-paycheck Change", Value: c.PerPaycheckDelta},
				{Label: "Total Benefit", Value: c.TotalBenefit},
			},
		})
	}

	if o := a.Opportunity; o != nil {
		rows := make([]Row, 0, len(o.Buckets)+2)
		for _, b := range o.Buckets {
			note := "unused " + common.FormatMoney(b.UnusedRoom)
			if b.Estimate {
				note = "estimate"
			}
			rows = append(rows, Row{Label: string(b.Bucket) + " (annual)", Value: b.AnnualCost, Note: note})
		}
		rows = append(rows,
			Row{Label: "Cost per Day", Value: o.TotalDailyCost},
			Row{Label: "Cost per Year", Value: o.TotalAnnualCost},
		)
		r.Sections = append(r.Sections, Section{Title: "Opportunity Cost", Rows: rows})
	}

	return r
}

func stateNote(p engine.AnnualProjection) string {
	switch {
	case !p.StateIncluded:
		return "not included"
	case p.StateEstimated:
		return "fallback rate"
	default:
		return p.StateCode + " flat estimate"
	}
}

// HistoryFromRecords converts stored analysis runs into report history rows.
func HistoryFromRecords(records []model.AnalysisRecord) []HistoryRow {
	rows := make([]HistoryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, HistoryRow{
			CreatedAt:         rec.CreatedAt,
			WithholdingStatus: rec.WithholdingStatus,
			TotalTax:          rec.TotalTax,
			Differential:      rec.Differential,
			MissedMatch:       rec.MissedMatch,
			DailyCost:         rec.DailyCost,
			Year:              rec.Year,
		})
	}
	return rows
}
