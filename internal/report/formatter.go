package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

// CLIFormatter renders engine results for the terminal. Every method rounds
// its input before display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// WithWidth returns a formatter sized for the terminal.
func (f *CLIFormatter) WithWidth(width int) *CLIFormatter {
	return &CLIFormatter{styles: f.styles.WithWidth(width)}
}

func money(d decimal.Decimal) string {
	return common.FormatMoney(d)
}

func lines(rows ...[2]string) string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, cli.KeyValue(r[0], r[1]))
	}
	return strings.Join(out, "\n")
}

// FormatBrackets renders a bracket schedule with its standard deduction.
func (f *CLIFormatter) FormatBrackets(table taxtable.BracketTable, standardDeduction decimal.Decimal) string {
	rows := make([][]string, 0, len(table.Brackets))
	for i, b := range table.Brackets {
		upper := "and up"
		if !b.Unbounded {
			upper = money(b.UpperBound)
		}
		rows = append(rows, []string{
			common.FormatRate(b.Rate),
			money(table.LowerBound(i)),
			upper,
		})
	}

	title := f.styles.Title.Render(fmt.Sprintf("%d Federal Brackets · %s", table.Year, table.Status.Label()))
	footer := f.styles.Subtle.Render("Standard deduction: " + money(standardDeduction))
	return title + "\n" + cli.RenderTable([]string{"Rate", "From", "To"}, rows) + "\n\n" + footer
}

// FormatTax renders the bracket-by-bracket tax on a taxable income.
func (f *CLIFormatter) FormatTax(income decimal.Decimal, table taxtable.BracketTable) string {
	slices := engine.Breakdown(income, table)
	rows := make([][]string, 0, len(slices))
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Tax)
		rows = append(rows, []string{
			common.FormatRate(s.Rate),
			money(s.Taxed),
			money(s.Tax.Round(2)),
		})
	}

	var b strings.Builder
	b.WriteString(f.styles.Title.Render("Federal Tax on " + money(income)))
	b.WriteString("\n")
	if len(rows) > 0 {
		b.WriteString(cli.RenderTable([]string{"Rate", "Taxed", "Tax"}, rows))
		b.WriteString("\n\n")
	}
	b.WriteString(lines(
		[2]string{"Total tax", f.styles.Amount.Render(money(total.Round(2)))},
		[2]string{"Marginal rate", common.FormatRate(engine.MarginalRate(income, table))},
		[2]string{"Effective rate", common.FormatRate(engine.EffectiveRate(income, table).Round(4))},
	))
	return b.String()
}

// FormatProjection renders an annual projection.
func (f *CLIFormatter) FormatProjection(p engine.AnnualProjection) string {
	p = p.Rounded()

	state := f.styles.Subtle.Render("not included")
	if p.StateIncluded {
		note := p.StateCode
		if p.StateEstimated {
			note = "fallback rate"
		}
		state = fmt.Sprintf("%s %s", money(p.StateTax), f.styles.Subtle.Render("("+note+" at "+common.FormatRate(p.StateRate)+")"))
	}

	content := lines(
		[2]string{"Filing status", p.FilingStatus.Label()},
		[2]string{"Pay frequency", fmt.Sprintf("%s (%d periods)", p.PayFrequency, p.PeriodsPerYear)},
		[2]string{"Annual gross", money(p.AnnualGross)},
		[2]string{"Pre-tax deductions", money(p.TotalPreTax)},
		[2]string{"AGI", money(p.AGI)},
		[2]string{"Standard deduction", money(p.StandardDeduction)},
		[2]string{"Taxable income", money(p.TaxableIncome)},
		[2]string{"Federal tax", money(p.FederalTax)},
		[2]string{"Social Security", money(p.FICA.SocialSecurity)},
		[2]string{"Medicare", money(p.FICA.Medicare.Add(p.FICA.AdditionalMedicare))},
		[2]string{"State tax", state},
		[2]string{"Total tax", f.styles.Amount.Render(money(p.TotalTax))},
		[2]string{"Marginal rate", common.FormatRate(p.MarginalRate)},
		[2]string{"Effective rate", common.FormatRate(p.EffectiveRate)},
	)
	if len(p.Missing) > 0 {
		content += "\n\n" + f.styles.Warning.Render("Assumed defaults for: "+strings.Join(p.Missing, ", "))
	}
	return f.styles.RenderBox(content, fmt.Sprintf("%d Projection", p.Year))
}

// FormatAssessment renders a withholding assessment.
func (f *CLIFormatter) FormatAssessment(w engine.WithholdingAssessment) string {
	w = w.Rounded()
	style := f.styles.ForStatus(w.Status)

	var advice string
	switch w.Status {
	case engine.WithholdingOver:
		advice = fmt.Sprintf("Expected refund of %s. Withholding %s less per paycheck would break even.",
			money(w.Differential), money(w.PerPaycheckAdjustment.Abs()))
	case engine.WithholdingUnder:
		advice = fmt.Sprintf("Expected balance due of %s. Withhold %s more per paycheck to cover it.",
			money(w.Differential.Abs()), money(w.PerPaycheckAdjustment))
	default:
		advice = fmt.Sprintf("Within %s of your projected liability.", money(w.Threshold))
	}

	rows := [][2]string{
		{"Status", style.Render(w.Status.Label())},
		{"Projected withheld", money(w.ProjectedWithheld)},
		{"Projected liability", money(w.ProjectedLiability)},
		{"Differential", style.Render(money(w.Differential))},
		{"Per-paycheck change", money(w.PerPaycheckAdjustment)},
	}
	if w.RemainingPeriods > 0 {
		rows = append(rows, [2]string{"Paychecks left", fmt.Sprintf("%d of %d", w.RemainingPeriods, w.PeriodsPerYear)})
	}
	content := lines(rows...)
	return f.styles.RenderBox(content+"\n\n"+advice, "Federal Withholding")
}

// FormatPlan renders a 401(k) contribution plan.
func (f *CLIFormatter) FormatPlan(c engine.ContributionPlan) string {
	c = c.Rounded()

	progress := 0.0
	if c.OptimalPercent.IsPositive() {
		progress = c.CurrentPercent.Div(c.OptimalPercent).InexactFloat64()
	}

	content := lines(
		[2]string{"Contributing", fmt.Sprintf("%s (%s/yr)", common.FormatPercent(c.CurrentPercent), money(c.CurrentAnnual))},
		[2]string{"Full match at", fmt.Sprintf("%s (%s/yr)", common.FormatPercent(c.OptimalPercent), money(c.OptimalAnnual))},
		[2]string{"Match progress", f.styles.RenderProgressBar(progress, 24)},
		[2]string{"Employer match", fmt.Sprintf("%s of %s", money(c.CurrentMatch), money(c.OptimalMatch))},
	)

	if c.NeedsIncrease() {
		content += "\n\n" + lines(
			[2]string{"Missed match", f.styles.Error.Render(money(c.MissedMatch))},
			[2]string{"Extra tax savings", money(c.AdditionalTaxSavings)},
			[2]string{"Total benefit", f.styles.Amount.Render(money(c.TotalBenefit))},
			[2]string{"Per-paycheck change", money(c.PerPaycheckDelta)},
		)
	} else {
		content += "\n\n" + f.styles.Success.Render(cli.SuccessIcon+" You are capturing the full match.")
	}

	content += "\n" + f.styles.Subtle.Render(fmt.Sprintf("Maxing out (%s) would save %s in federal tax.",
		money(c.MaxOutAnnual), money(c.MaxOutTaxSavings)))
	return f.styles.RenderBox(content, "401(k) Contributions")
}

// FormatOpportunity renders the cost of unused tax-advantaged room.
func (f *CLIFormatter) FormatOpportunity(o engine.OpportunityCost) string {
	o = o.Rounded()

	rows := make([][]string, 0, len(o.Buckets))
	for _, b := range o.Buckets {
		name := bucketLabel(b.Bucket)
		room := money(b.UnusedRoom)
		if b.Estimate {
			name += " *"
			room = "-"
		}
		rows = append(rows, []string{name, room, common.FormatRate(b.Rate), money(b.DailyCost), money(b.AnnualCost)})
	}

	content := cli.RenderTable([]string{"Bucket", "Unused", "Rate", "Per day", "Per year"}, rows)
	content += "\n\n" + lines(
		[2]string{"Cost per day", f.styles.Amount.Render(money(o.TotalDailyCost))},
		[2]string{"Cost per year", money(o.TotalAnnualCost)},
	)
	if o.EstimatedDailyCost.IsPositive() {
		content += "\n" + f.styles.Subtle.Render("* estimate from portfolio size, not brackets")
	}
	return f.styles.RenderBox(content, "Opportunity Cost")
}

func bucketLabel(b taxtable.Bucket) string {
	switch b {
	case taxtable.Bucket401k:
		return "401(k)"
	case taxtable.BucketHSAIndividual:
		return "HSA (self)"
	case taxtable.BucketHSAFamily:
		return "HSA (family)"
	case engine.BucketPortfolioDrag:
		return "Portfolio tax drag"
	case engine.BucketAdvisorFee:
		return "Advisor fees"
	default:
		return string(b)
	}
}

// FormatRecommendations renders the ranked strategies.
func (f *CLIFormatter) FormatRecommendations(r engine.Recommendations) string {
	if len(r.Strategies) == 0 {
		return f.styles.Success.Render(cli.SuccessIcon + " Nothing to change right now.")
	}

	parts := []string{f.styles.Title.Render("Recommendations")}
	for i, s := range r.Strategies {
		style := f.styles.ForPriority(s.Priority)
		header := fmt.Sprintf("%d. %s %s", i+1, s.Strategy, style.Render("["+string(s.Priority)+"]"))
		if s.PotentialSavings.IsPositive() {
			header += " " + f.styles.Amount.Render(money(s.PotentialSavings.Round(2)))
		}
		body := []string{header, "   " + s.Recommendation}
		if s.HowToImplement != "" {
			body = append(body, "   "+f.styles.Subtle.Render(s.HowToImplement))
		}
		parts = append(parts, strings.Join(body, "\n"))
	}
	parts = append(parts, cli.KeyValue("Potential savings", f.styles.Amount.Render(money(r.TotalPotentialSavings.Round(2)))))
	return strings.Join(parts, "\n\n")
}

// FormatAnalysis renders every available part of an analysis.
func (f *CLIFormatter) FormatAnalysis(a engine.Analysis) string {
	a = a.Rounded()

	sections := []string{cli.FormatTitle(fmt.Sprintf("Tax Intel · %d", a.Year))}
	if a.Projection != nil {
		sections = append(sections, f.FormatProjection(*a.Projection))
	}
	if a.Withholding != nil {
		sections = append(sections, f.FormatAssessment(*a.Withholding))
	}
	if a.Plan != nil {
		sections = append(sections, f.FormatPlan(*a.Plan))
	}
	if a.Opportunity != nil {
		sections = append(sections, f.FormatOpportunity(*a.Opportunity))
	}
	sections = append(sections, f.FormatRecommendations(a.Recommendations))

	if len(a.Warnings) > 0 {
		warnings := make([]string, 0, len(a.Warnings))
		for _, w := range a.Warnings {
			warnings = append(warnings, cli.FormatWarning(w))
		}
		sections = append(sections, strings.Join(warnings, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// FormatProfile renders the stored profile. Unknown values show as "-".
func (f *CLIFormatter) FormatProfile(p model.FinancialProfile) string {
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	amount := func(d decimal.Decimal) string {
		if d.IsZero() {
			return "-"
		}
		return money(d)
	}
	percent := func(d decimal.Decimal) string {
		if d.IsZero() {
			return "-"
		}
		return common.FormatPercent(d)
	}
	age := "-"
	if p.Age > 0 {
		age = fmt.Sprint(p.Age)
	}

	content := lines(
		[2]string{"Filing status", orDash(p.FilingStatus.Label())},
		[2]string{"State", orDash(p.StateOfResidence)},
		[2]string{"Age", age},
		[2]string{"Annual income", amount(p.AnnualIncome)},
		[2]string{"401(k) contribution", percent(p.Current401kPercent)},
		[2]string{"Employer match", fmt.Sprintf("%s up to %s of salary", percent(p.MatchRatePercent), percent(p.MatchCapPercent))},
		[2]string{"HSA per year", amount(p.HSAAnnual)},
		[2]string{"Portfolio", amount(p.PortfolioValue)},
	)
	if !p.UpdatedAt.IsZero() {
		content += "\n\n" + f.styles.Subtle.Render("Updated "+p.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return f.styles.RenderBox(content, "Profile")
}

// FormatSnapshots renders stored paycheck snapshots.
func (f *CLIFormatter) FormatSnapshots(snapshots []model.PaycheckSnapshot) string {
	if len(snapshots) == 0 {
		return cli.FormatInfo("No paychecks imported yet. Run: taxintel import <file>")
	}

	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		date := "-"
		if !s.PayDate.IsZero() {
			date = s.PayDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			shortID(s.ID),
			date,
			s.EmployerName,
			money(s.GrossPay),
			money(s.FederalWithheld),
			money(s.PreTax.Total()),
			string(s.PayFrequency),
		})
	}
	return cli.RenderTable([]string{"ID", "Pay date", "Employer", "Gross", "Federal", "Pre-tax", "Frequency"}, rows)
}

// FormatHistory renders past analysis runs.
func (f *CLIFormatter) FormatHistory(records []model.AnalysisRecord) string {
	if len(records) == 0 {
		return cli.FormatInfo("No analyses recorded yet.")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format(time.DateTime),
			fmt.Sprint(r.Year),
			money(r.TotalTax),
			r.WithholdingStatus,
			money(r.Differential),
			money(r.MissedMatch),
			money(r.DailyCost),
		})
	}
	return cli.RenderTable([]string{"Run", "Year", "Total tax", "Withholding", "Differential", "Missed match", "Per day"}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
