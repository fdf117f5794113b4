package engine

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

// AnalyzeInput is everything known about the user. Snapshot may be nil.
type AnalyzeInput struct {
	Snapshot *model.PaycheckSnapshot
	Profile  model.FinancialProfile
}

// Analysis is the best-effort output of the full pipeline. Parts that
// could not be computed are nil and explained in Warnings.
type Analysis struct {
	Projection      *AnnualProjection      `json:"projection,omitempty"`
	Withholding     *WithholdingAssessment `json:"withholding,omitempty"`
	Plan            *ContributionPlan      `json:"plan,omitempty"`
	Opportunity     *OpportunityCost       `json:"opportunity,omitempty"`
	Recommendations Recommendations        `json:"recommendations"`
	Warnings        []string               `json:"warnings,omitempty"`
	Year            int                    `json:"year"`
	Incomplete      bool                   `json:"incomplete"`
}

// Rounded returns a copy with every result rounded for display.
func (a Analysis) Rounded() Analysis {
	r := a
	r.Warnings = append([]string(nil), a.Warnings...)
	if a.Projection != nil {
		p := a.Projection.Rounded()
		r.Projection = &p
	}
	if a.Withholding != nil {
		w := a.Withholding.Rounded()
		r.Withholding = &w
	}
	if a.Plan != nil {
		c := a.Plan.Rounded()
		r.Plan = &c
	}
	if a.Opportunity != nil {
		o := a.Opportunity.Rounded()
		r.Opportunity = &o
	}
	r.Recommendations.TotalPotentialSavings = roundMoney(a.Recommendations.TotalPotentialSavings)
	return r
}

// Analyze runs projection, withholding, contribution and opportunity cost
// over whatever data is available. Missing data yields a partial result
// flagged Incomplete. Only invalid input and unsupported periods are
// returned as errors.
func Analyze(catalog *taxtable.Catalog, cfg Config, in AnalyzeInput) (Analysis, error) {
	out := Analysis{Year: cfg.Year}
	projector := NewProjector(catalog, cfg.Year)
	opts := ProjectOptions{IncludeState: cfg.IncludeState}

	var snapshot *model.PaycheckSnapshot
	if in.Snapshot != nil {
		s := mergeProfile(*in.Snapshot, in.Profile)
		snapshot = &s
	}

	var (
		proj AnnualProjection
		err  error
	)
	switch {
	case snapshot != nil:
		proj, err = projector.Project(*snapshot, opts)
	case in.Profile.HasIncome():
		proj, err = projector.ProjectFromIncome(in.Profile, opts)
		out.warn("no paycheck imported; projecting from stated annual income")
	default:
		out.warn("no paycheck or annual income available; nothing to project")
		return out, nil
	}
	if err != nil {
		return Analysis{}, err
	}
	out.Projection = &proj
	out.Year = proj.Year
	for _, field := range proj.Missing {
		out.warn(missingWarning(field))
	}

	if snapshot != nil {
		a, err := AssessProjection(*snapshot, proj, cfg.WithholdingThreshold)
		if err != nil {
			return Analysis{}, err
		}
		out.Withholding = &a
	}

	limits, err := catalog.LimitsFor(proj.Year)
	if err != nil {
		return Analysis{}, err
	}
	deferralLimit, err := catalog.ElectiveDeferralLimit(proj.Year, in.Profile.Age)
	if err != nil {
		return Analysis{}, err
	}
	payroll, err := catalog.PayrollFor(proj.Year)
	if err != nil {
		return Analysis{}, err
	}

	salary := in.Profile.AnnualIncome
	if !salary.IsPositive() {
		salary = proj.AnnualGross
	}
	periods := decimal.NewFromInt(int64(proj.PeriodsPerYear))
	current401k := currentContribution(in.Profile, snapshot, salary, periods)

	if in.Profile.MatchCapPercent.IsPositive() && salary.IsPositive() {
		currentPercent := decimal.Zero
		if current401k.IsPositive() {
			currentPercent = current401k.Div(salary).Mul(hundred)
		}
		plan, err := Optimize(OptimizeInput{
			Salary:              salary,
			CurrentPercent:      currentPercent,
			MatchRatePercent:    in.Profile.MatchRatePercent,
			MatchCapPercent:     in.Profile.MatchCapPercent,
			MarginalRatePercent: proj.MarginalRate.Mul(hundred),
			AnnualLimit:         deferralLimit,
			PeriodsPerYear:      proj.PeriodsPerYear,
		})
		if err != nil {
			return Analysis{}, err
		}
		out.Plan = &plan
	} else {
		out.warn("employer match formula unknown; skipping contribution plan")
	}

	currentHSA := in.Profile.HSAAnnual
	if !currentHSA.IsPositive() && snapshot != nil {
		currentHSA = snapshot.PreTax.HSA.Mul(periods)
	}
	oc := EstimateOpportunityCost(OpportunityInput{
		FilingStatus:   proj.FilingStatus,
		MarginalRate:   proj.MarginalRate,
		Current401k:    current401k,
		CurrentHSA:     currentHSA,
		PortfolioValue: in.Profile.PortfolioValue,
		Limits:         limits,
		PayrollRate:    payroll.EmployeeRate(),
		Heuristics:     HeuristicsFromConfig(cfg),
		Age:            in.Profile.Age,
		IncludeCatchUp: in.Profile.Age > 0,
	})
	out.Opportunity = &oc

	out.Recommendations = Recommend(RecommendInput{
		Projection:  out.Projection,
		Withholding: out.Withholding,
		Plan:        out.Plan,
		Opportunity: out.Opportunity,
	})
	return out, nil
}

// mergeProfile fills fields the paystub left blank from the profile.
func mergeProfile(s model.PaycheckSnapshot, p model.FinancialProfile) model.PaycheckSnapshot {
	if s.FilingStatus == "" {
		s.FilingStatus = p.FilingStatus
	}
	if s.StateOfResidence == "" {
		s.StateOfResidence = p.StateOfResidence
	}
	return s
}

// currentContribution prefers the stated percent, then the paystub's
// observed 401(k) deduction.
func currentContribution(p model.FinancialProfile, s *model.PaycheckSnapshot, salary, periods decimal.Decimal) decimal.Decimal {
	if p.Current401kPercent.IsPositive() {
		return clampPercent(p.Current401kPercent).Div(hundred).Mul(salary)
	}
	if s != nil {
		return s.PreTax.Retirement401k.Mul(periods)
	}
	return decimal.Zero
}

func missingWarning(field string) string {
	switch field {
	case FieldPayFrequency:
		return fmt.Sprintf("%v: pay frequency unknown, assumed semimonthly", ErrInsufficientData)
	case FieldFilingStatus:
		return fmt.Sprintf("%v: filing status unknown, assumed single", ErrInsufficientData)
	case FieldState:
		return fmt.Sprintf("%v: state unknown, using fallback state rate", ErrInsufficientData)
	case FieldIncome:
		return fmt.Sprintf("%v: annual income unknown", ErrInsufficientData)
	default:
		return fmt.Sprintf("%v: %s missing", ErrInsufficientData, field)
	}
}

func (a *Analysis) warn(msg string) {
	a.Incomplete = true
	a.Warnings = append(a.Warnings, msg)
}
