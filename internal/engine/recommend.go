package engine

import (
	"fmt"
	"sort"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

// RecommendInput carries whichever results are available. Nil parts are
// skipped.
type RecommendInput struct {
	Projection  *AnnualProjection
	Withholding *WithholdingAssessment
	Plan        *ContributionPlan
	Opportunity *OpportunityCost
}

// Recommendations are the plain-language records derived from results.
type Recommendations struct {
	Strategies            []model.TaxStrategy          `json:"strategies,omitempty"`
	Paycheck              []model.PaycheckOptimization `json:"paycheck,omitempty"`
	TotalPotentialSavings decimal.Decimal              `json:"totalPotentialSavings"`
}

// Recommend turns engine results into strategy and paycheck records,
// highest priority first. Amounts are rounded to cents.
func Recommend(in RecommendInput) Recommendations {
	var recs Recommendations
	periods := recommendPeriods(in)

	if in.Plan != nil && in.Plan.NeedsIncrease() {
		recs.addMatch(*in.Plan, periods)
	}
	if in.Withholding != nil {
		recs.addWithholding(*in.Withholding)
	}
	if in.Opportunity != nil {
		recs.addHSA(*in.Opportunity, periods)
	}
	if in.Plan != nil {
		recs.addMaxOut(*in.Plan)
	}

	sort.SliceStable(recs.Strategies, func(i, j int) bool {
		a, b := recs.Strategies[i], recs.Strategies[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.PotentialSavings.GreaterThan(b.PotentialSavings)
	})
	sort.SliceStable(recs.Paycheck, func(i, j int) bool {
		return recs.Paycheck[i].Priority.Rank() < recs.Paycheck[j].Priority.Rank()
	})

	recs.TotalPotentialSavings = decimal.Zero
	for _, s := range recs.Strategies {
		recs.TotalPotentialSavings = recs.TotalPotentialSavings.Add(s.PotentialSavings)
	}
	return recs
}

func recommendPeriods(in RecommendInput) decimal.Decimal {
	switch {
	case in.Projection != nil && in.Projection.PeriodsPerYear > 0:
		return decimal.NewFromInt(int64(in.Projection.PeriodsPerYear))
	case in.Plan != nil && in.Plan.PeriodsPerYear > 0:
		return decimal.NewFromInt(int64(in.Plan.PeriodsPerYear))
	case in.Withholding != nil && in.Withholding.PeriodsPerYear > 0:
		return decimal.NewFromInt(int64(in.Withholding.PeriodsPerYear))
	default:
		return decimal.NewFromInt(int64(model.PaySemimonthly.PeriodsPerYear()))
	}
}

func (r *Recommendations) addMatch(plan ContributionPlan, periods decimal.Decimal) {
	r.Strategies = append(r.Strategies, model.TaxStrategy{
		Strategy: "Capture the full employer match",
		CurrentSituation: fmt.Sprintf("You contribute %s of salary and leave %s of employer match unclaimed each year.",
			common.FormatPercent(plan.CurrentPercent), common.FormatMoney(plan.MissedMatch)),
		Recommendation: fmt.Sprintf("Raise your 401(k) contribution to %s.", common.FormatPercent(plan.OptimalPercent)),
		PotentialSavings: roundMoney(plan.TotalBenefit),
		HowToImplement: fmt.Sprintf("Change your deferral rate in your employer's benefits portal from %s to %s. "+
			"The change takes effect on the next payroll run.",
			common.FormatPercent(plan.CurrentPercent), common.FormatPercent(plan.OptimalPercent)),
		Priority: model.PriorityHigh,
	})
	r.Paycheck = append(r.Paycheck, model.PaycheckOptimization{
		Action:            "Increase 401(k) contribution",
		CurrentAmount:     roundMoney(plan.CurrentAnnual.Div(periods)),
		SuggestedAmount:   roundMoney(plan.OptimalAnnual.Div(periods)),
		ExtraPerPaycheck:  roundMoney(plan.OptimalAnnual.Sub(plan.CurrentAnnual).Div(periods)),
		TaxSavingsPerYear: roundMoney(plan.AdditionalTaxSavings),
		HowToFix: fmt.Sprintf("Set your 401(k) deferral to %s in your benefits portal.",
			common.FormatPercent(plan.OptimalPercent)),
		Priority: model.PriorityHigh,
	})
}

func (r *Recommendations) addWithholding(a WithholdingAssessment) {
	if a.Status == WithholdingOnTrack || a.PeriodsPerYear <= 0 {
		return
	}
	periods := decimal.NewFromInt(int64(a.PeriodsPerYear))
	current := a.ProjectedWithheld.Div(periods)
	suggested := maxDecimal(decimal.Zero, current.Add(a.PerPaycheckAdjustment))

	if a.Status == WithholdingOver {
		r.Strategies = append(r.Strategies, model.TaxStrategy{
			Strategy: "Stop over-withholding",
			CurrentSituation: fmt.Sprintf("You are on pace to overpay federal tax by %s, which comes back only as a refund next year.",
				common.FormatMoney(a.Differential)),
			Recommendation:   "Lower your federal withholding so the money stays in your paycheck.",
			PotentialSavings: roundMoney(a.Differential),
			HowToImplement:   "Submit a new Form W-4 to payroll. Use Step 4(b) to add deductions or reduce the extra amount in Step 4(c).",
			Priority:         model.PriorityMedium,
		})
		r.Paycheck = append(r.Paycheck, model.PaycheckOptimization{
			Action:           "Lower federal withholding",
			CurrentAmount:    roundMoney(current),
			SuggestedAmount:  roundMoney(suggested),
			ExtraPerPaycheck: roundMoney(a.PerPaycheckAdjustment),
			HowToFix:         "File an updated W-4 with payroll.",
			Priority:         model.PriorityMedium,
		})
		return
	}

	r.Strategies = append(r.Strategies, model.TaxStrategy{
		Strategy: "Avoid a balance due",
		CurrentSituation: fmt.Sprintf("You are on pace to underpay federal tax by %s and may owe an underpayment penalty.",
			common.FormatMoney(a.Differential.Abs())),
		Recommendation:   "Increase your federal withholding for the rest of the year.",
		PotentialSavings: decimal.Zero,
		HowToImplement: fmt.Sprintf("Submit a new Form W-4 and enter %s in Step 4(c) as extra withholding per paycheck.",
			common.FormatMoney(a.PerPaycheckAdjustment)),
		Priority: model.PriorityHigh,
	})
	r.Paycheck = append(r.Paycheck, model.PaycheckOptimization{
		Action:           "Increase federal withholding",
		CurrentAmount:    roundMoney(current),
		SuggestedAmount:  roundMoney(suggested),
		ExtraPerPaycheck: roundMoney(a.PerPaycheckAdjustment),
		HowToFix:         "File an updated W-4 with payroll and add extra withholding in Step 4(c).",
		Priority:         model.PriorityHigh,
	})
}

func (r *Recommendations) addHSA(o OpportunityCost, periods decimal.Decimal) {
	for _, b := range o.Buckets {
		if b.Estimate || !isHSABucket(b.Bucket) || !b.UnusedRoom.IsPositive() {
			continue
		}
		r.Strategies = append(r.Strategies, model.TaxStrategy{
			Strategy: "Fund your HSA through payroll",
			CurrentSituation: fmt.Sprintf("You have %s of unused HSA room this year.",
				common.FormatMoney(b.UnusedRoom)),
			Recommendation:   "Contribute the remaining room through payroll so it skips both income and FICA tax.",
			PotentialSavings: roundMoney(b.AnnualCost),
			HowToImplement:   "Elect an HSA payroll deduction in your benefits portal. This requires enrollment in a high-deductible health plan.",
			Priority:         model.PriorityMedium,
		})
		r.Paycheck = append(r.Paycheck, model.PaycheckOptimization{
			Action:            "Increase HSA payroll deduction",
			CurrentAmount:     roundMoney(b.Current.Div(periods)),
			SuggestedAmount:   roundMoney(b.Limit.Div(periods)),
			ExtraPerPaycheck:  roundMoney(b.UnusedRoom.Div(periods)),
			TaxSavingsPerYear: roundMoney(b.AnnualCost),
			HowToFix:          "Set a per-paycheck HSA election with payroll.",
			Priority:          model.PriorityMedium,
		})
	}
}

func (r *Recommendations) addMaxOut(plan ContributionPlan) {
	extra := roundMoney(plan.MaxOutTaxSavings.Sub(maxDecimal(plan.OptimalTaxSavings, plan.CurrentTaxSavings)))
	if !plan.MaxOutAnnual.GreaterThan(maxDecimal(plan.OptimalAnnual, plan.CurrentAnnual)) || !extra.IsPositive() {
		return
	}
	r.Strategies = append(r.Strategies, model.TaxStrategy{
		Strategy: "Max out your 401(k)",
		CurrentSituation: fmt.Sprintf("Contributing the full %s limit would shelter more income from federal tax.",
			common.FormatMoney(plan.MaxOutAnnual)),
		Recommendation:   "Once the match is captured, raise contributions toward the annual limit as cash flow allows.",
		PotentialSavings: extra,
		HowToImplement:   "Increase your deferral rate a point or two at a time, for example at each raise.",
		Priority:         model.PriorityLow,
	})
}

func isHSABucket(b taxtable.Bucket) bool {
	switch b {
	case taxtable.BucketHSA, taxtable.BucketHSAIndividual, taxtable.BucketHSAFamily:
		return true
	default:
		return false
	}
}
