package sheets

import (
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/report"
)

const timestampLayout = "2006-01-02 15:04"

// reportLayout is the cell grid for a report plus the row indexes that
// formatting needs to know about.
type reportLayout struct {
	values     [][]any
	headerRows []int
	rateRows   []int
	width      int
}

func (l *reportLayout) add(cells ...any) {
	l.values = append(l.values, cells)
	l.width = max(l.width, len(cells))
}

func (l *reportLayout) header(cells ...any) {
	l.headerRows = append(l.headerRows, len(l.values))
	l.add(cells...)
}

func (l *reportLayout) blank() {
	l.add("")
}

// prepareReportData converts a report into sheet rows. Amounts are written
// as numbers so the sheet can sum them; rates are fractions formatted as
// percentages by applyFormatting.
func prepareReportData(rep report.Report) reportLayout {
	var l reportLayout

	l.add("Tax Intel Report", rep.Year, "Generated "+rep.GeneratedAt.Format(timestampLayout))
	l.blank()

	for _, section := range rep.Sections {
		l.header(section.Title, "Amount", "Note")
		for _, row := range section.Rows {
			if row.Rate {
				l.rateRows = append(l.rateRows, len(l.values))
			}
			l.add(row.Label, row.Value.InexactFloat64(), row.Note)
		}
		l.blank()
	}

	if len(rep.Strategies) > 0 {
		l.header("Strategy", "Potential Savings", "Priority", "Recommendation", "How to Implement")
		for _, s := range rep.Strategies {
			l.add(s.Strategy, s.PotentialSavings.InexactFloat64(), string(s.Priority), s.Recommendation, s.HowToImplement)
		}
		l.blank()
	}

	if len(rep.Paycheck) > 0 {
		l.header("Paycheck Change", "Tax Savings / Year", "Priority", "Current", "Suggested", "Extra per Paycheck")
		for _, p := range rep.Paycheck {
			l.add(
				p.Action,
				p.TaxSavingsPerYear.InexactFloat64(),
				string(p.Priority),
				p.CurrentAmount.InexactFloat64(),
				p.SuggestedAmount.InexactFloat64(),
				p.ExtraPerPaycheck.InexactFloat64(),
			)
		}
		l.blank()
	}

	if len(rep.History) > 0 {
		l.header("Run", "Total Tax", "Withholding", "Differential", "Missed Match", "Cost per Day", "Year")
		for _, h := range rep.History {
			l.add(
				h.CreatedAt.Format(timestampLayout),
				h.TotalTax.InexactFloat64(),
				h.WithholdingStatus,
				h.Differential.InexactFloat64(),
				h.MissedMatch.InexactFloat64(),
				h.DailyCost.InexactFloat64(),
				h.Year,
			)
		}
		l.blank()
	}

	if len(rep.Warnings) > 0 {
		l.header("Warnings")
		for _, w := range rep.Warnings {
			l.add(w)
		}
	}

	return l
}

// summaryLine is a one-line description of the report for logs.
func summaryLine(rep report.Report) string {
	for _, s := range rep.Sections {
		for _, r := range s.Rows {
			if r.Label == "Total Tax" {
				return "total tax " + common.FormatMoney(r.Value)
			}
		}
	}
	return "no projection"
}
