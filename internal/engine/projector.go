package engine

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

// Field names reported in AnnualProjection.Missing.
const (
	FieldPayFrequency = "payFrequency"
	FieldFilingStatus = "filingStatus"
	FieldState        = "stateOfResidence"
	FieldIncome       = "annualIncome"
)

// FICA is the employee share of payroll tax for a year.
type FICA struct {
	SocialSecurity     decimal.Decimal `json:"socialSecurity"`
	Medicare           decimal.Decimal `json:"medicare"`
	AdditionalMedicare decimal.Decimal `json:"additionalMedicare"`
}

// Total sums every payroll component.
func (f FICA) Total() decimal.Decimal {
	return f.SocialSecurity.Add(f.Medicare).Add(f.AdditionalMedicare)
}

// AnnualProjection extrapolates one pay period to a full tax year.
//
// Pay is assumed constant across every period of the year. Bonuses, raises
// and mid-year changes to deductions are not modeled.
type AnnualProjection struct {
	FilingStatus      model.FilingStatus `json:"filingStatus"`
	PayFrequency      model.PayFrequency `json:"payFrequency"`
	StateCode         string             `json:"stateCode"`
	Missing           []string           `json:"missing,omitempty"`
	AnnualGross       decimal.Decimal    `json:"annualGross"`
	TotalPreTax       decimal.Decimal    `json:"totalPreTax"`
	AGI               decimal.Decimal    `json:"agi"`
	StandardDeduction decimal.Decimal    `json:"standardDeduction"`
	TaxableIncome     decimal.Decimal    `json:"taxableIncome"`
	FederalTax        decimal.Decimal    `json:"federalTax"`
	FICA              FICA               `json:"fica"`
	StateTax          decimal.Decimal    `json:"stateTax"`
	StateRate         decimal.Decimal    `json:"stateRate"`
	TotalTax          decimal.Decimal    `json:"totalTax"`
	MarginalRate      decimal.Decimal    `json:"marginalRate"`
	EffectiveRate     decimal.Decimal    `json:"effectiveRate"`
	Year              int                `json:"year"`
	PeriodsPerYear    int                `json:"periodsPerYear"`
	StateIncluded     bool               `json:"stateIncluded"`
	StateEstimated    bool               `json:"stateEstimated"` // state code unknown, fallback rate used
	Incomplete        bool               `json:"incomplete"`
}

// FICATax returns the total payroll tax.
func (p AnnualProjection) FICATax() decimal.Decimal {
	return p.FICA.Total()
}

// Rounded returns a copy with money rounded to cents and rates to four
// places.
func (p AnnualProjection) Rounded() AnnualProjection {
	r := p
	r.Missing = append([]string(nil), p.Missing...)
	r.AnnualGross = roundMoney(p.AnnualGross)
	r.TotalPreTax = roundMoney(p.TotalPreTax)
	r.AGI = roundMoney(p.AGI)
	r.StandardDeduction = roundMoney(p.StandardDeduction)
	r.TaxableIncome = roundMoney(p.TaxableIncome)
	r.FederalTax = roundMoney(p.FederalTax)
	r.FICA = FICA{
		SocialSecurity:     roundMoney(p.FICA.SocialSecurity),
		Medicare:           roundMoney(p.FICA.Medicare),
		AdditionalMedicare: roundMoney(p.FICA.AdditionalMedicare),
	}
	r.StateTax = roundMoney(p.StateTax)
	r.TotalTax = roundMoney(p.TotalTax)
	r.StateRate = roundRate(p.StateRate)
	r.MarginalRate = roundRate(p.MarginalRate)
	r.EffectiveRate = roundRate(p.EffectiveRate)
	return r
}

// ProjectOptions controls optional parts of a projection.
type ProjectOptions struct {
	// Year overrides the projector's year. Zero uses the snapshot's tax
	// year, then the projector's.
	Year         int
	IncludeState bool
}

// Projector turns paycheck samples into annual projections against a
// catalog. It holds no mutable state and is safe for concurrent use.
type Projector struct {
	catalog *taxtable.Catalog
	year    int
}

// NewProjector creates a projector for the given default tax year.
func NewProjector(catalog *taxtable.Catalog, year int) *Projector {
	return &Projector{catalog: catalog, year: year}
}

// Catalog returns the reference data the projector reads.
func (p *Projector) Catalog() *taxtable.Catalog {
	return p.catalog
}

// Year returns the projector's default tax year.
func (p *Projector) Year() int {
	return p.year
}

// Project annualizes a single paycheck snapshot.
//
// A missing pay frequency assumes semimonthly and a missing filing status
// assumes single; both mark the projection incomplete. Negative amounts
// return ErrInvalidInput, and an unsupported year returns ErrUnknownPeriod.
func (p *Projector) Project(s model.PaycheckSnapshot, opts ProjectOptions) (AnnualProjection, error) {
	if err := validateSnapshot(s); err != nil {
		return AnnualProjection{}, err
	}

	proj := AnnualProjection{
		Year:         p.resolveYear(opts.Year, s.TaxYear),
		FilingStatus: s.FilingStatus,
		PayFrequency: s.PayFrequency,
		StateCode:    s.StateOfResidence,
	}

	switch {
	case s.PayFrequency == "":
		proj.PayFrequency = model.PaySemimonthly
		proj.markMissing(FieldPayFrequency)
	case !s.PayFrequency.IsValid():
		return AnnualProjection{}, fmt.Errorf("%w: unknown pay frequency %q", ErrInvalidInput, s.PayFrequency)
	}
	if s.FilingStatus == "" {
		proj.FilingStatus = model.FilingSingle
		proj.markMissing(FieldFilingStatus)
	}
	proj.PeriodsPerYear = proj.PayFrequency.PeriodsPerYear()

	periods := decimal.NewFromInt(int64(proj.PeriodsPerYear))
	preTax := minDecimal(s.PreTax.Total(), s.GrossPay)

	return p.finish(proj, s.GrossPay.Mul(periods), preTax.Mul(periods), opts)
}

// ProjectFromIncome projects a year from a profile's stated annual income
// when no paycheck is available. The income is treated as gross with no
// pre-tax deductions and semimonthly pay.
func (p *Projector) ProjectFromIncome(profile model.FinancialProfile, opts ProjectOptions) (AnnualProjection, error) {
	if profile.AnnualIncome.IsNegative() {
		return AnnualProjection{}, fmt.Errorf("%w: annual income %s is negative", ErrInvalidInput, profile.AnnualIncome)
	}

	proj := AnnualProjection{
		Year:           p.resolveYear(opts.Year, 0),
		FilingStatus:   profile.FilingStatus,
		PayFrequency:   model.PaySemimonthly,
		PeriodsPerYear: model.PaySemimonthly.PeriodsPerYear(),
		StateCode:      profile.StateOfResidence,
	}
	if profile.FilingStatus == "" {
		proj.FilingStatus = model.FilingSingle
		proj.markMissing(FieldFilingStatus)
	}
	if !profile.AnnualIncome.IsPositive() {
		proj.markMissing(FieldIncome)
	}

	return p.finish(proj, profile.AnnualIncome, decimal.Zero, opts)
}

func (p *Projector) finish(proj AnnualProjection, annualGross, totalPreTax decimal.Decimal, opts ProjectOptions) (AnnualProjection, error) {
	table, err := p.catalog.BracketsFor(proj.Year, proj.FilingStatus)
	if err != nil {
		return AnnualProjection{}, err
	}
	deduction, err := p.catalog.StandardDeductionFor(proj.Year, proj.FilingStatus)
	if err != nil {
		return AnnualProjection{}, err
	}
	payroll, err := p.catalog.PayrollFor(proj.Year)
	if err != nil {
		return AnnualProjection{}, err
	}

	if opts.IncludeState && proj.StateCode == "" {
		proj.markMissing(FieldState)
	}

	if !annualGross.IsPositive() {
		return proj, nil
	}

	proj.AnnualGross = annualGross
	proj.TotalPreTax = totalPreTax
	proj.AGI = annualGross.Sub(totalPreTax)
	proj.StandardDeduction = deduction
	proj.TaxableIncome = maxDecimal(decimal.Zero, proj.AGI.Sub(deduction))
	proj.FederalTax = ComputeTax(proj.TaxableIncome, table)
	proj.MarginalRate = MarginalRate(proj.TaxableIncome, table)
	proj.EffectiveRate = EffectiveRate(proj.TaxableIncome, table)
	proj.FICA = computeFICA(annualGross, proj.FilingStatus, payroll)
	proj.TotalTax = proj.FederalTax.Add(proj.FICA.Total())

	if opts.IncludeState {
		state := p.catalog.StateRateFor(proj.StateCode)
		proj.StateIncluded = true
		proj.StateEstimated = state.Fallback
		proj.StateRate = state.Rate
		proj.StateTax = proj.TaxableIncome.Mul(state.Rate)
		proj.TotalTax = proj.TotalTax.Add(proj.StateTax)
	}

	return proj, nil
}

func computeFICA(wages decimal.Decimal, status model.FilingStatus, payroll taxtable.Payroll) FICA {
	ssWages := minDecimal(wages, payroll.SocialSecurityWageBase)
	surtaxWages := maxDecimal(decimal.Zero, wages.Sub(payroll.AdditionalMedicareThreshold(status)))
	return FICA{
		SocialSecurity:     ssWages.Mul(payroll.SocialSecurityRate),
		Medicare:           wages.Mul(payroll.MedicareRate),
		AdditionalMedicare: surtaxWages.Mul(payroll.AdditionalMedicareRate),
	}
}

func (p *Projector) resolveYear(override, snapshotYear int) int {
	switch {
	case override != 0:
		return override
	case snapshotYear != 0:
		return snapshotYear
	default:
		return p.year
	}
}

func (p *AnnualProjection) markMissing(field string) {
	p.Incomplete = true
	p.Missing = append(p.Missing, field)
}

func validateSnapshot(s model.PaycheckSnapshot) error {
	amounts := []struct {
		value decimal.Decimal
		name  string
	}{
		{s.GrossPay, "gross pay"},
		{s.FederalWithheld, "federal withholding"},
		{s.StateWithheld, "state withholding"},
		{s.SocialSecurityWithheld, "social security withholding"},
		{s.MedicareWithheld, "medicare withholding"},
		{s.PreTax.Retirement401k, "401(k) deduction"},
		{s.PreTax.HSA, "HSA deduction"},
		{s.PreTax.FSA, "FSA deduction"},
		{s.PreTax.Other, "other pre-tax deduction"},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%w: %s %s is negative", ErrInvalidInput, a.name, a.value)
		}
	}
	return nil
}
