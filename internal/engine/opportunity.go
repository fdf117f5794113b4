package engine

import (
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
)

// Heuristic bucket names. Their costs are assumptions, not derived from
// the user's tax data.
const (
	BucketPortfolioDrag taxtable.Bucket = "portfolio_tax_drag"
	BucketAdvisorFee    taxtable.Bucket = "advisor_fee"
)

// OpportunityInput is the data needed to price unused tax-advantaged room.
type OpportunityInput struct {
	FilingStatus model.FilingStatus
	// MarginalRate is a fraction, so 0.22 means 22%.
	MarginalRate   decimal.Decimal
	Current401k    decimal.Decimal
	CurrentHSA     decimal.Decimal
	PortfolioValue decimal.Decimal
	Limits         taxtable.StatutoryLimits
	PayrollRate    decimal.Decimal // employee FICA rate avoided by payroll HSA deductions
	// Heuristics adds the assumed portfolio buckets when non-nil.
	Heuristics     *Heuristics
	Age            int
	IncludeCatchUp bool
}

// BucketCost is the cost of leaving one bucket's room unused.
type BucketCost struct {
	Bucket     taxtable.Bucket `json:"bucket"`
	Limit      decimal.Decimal `json:"limit"`
	Current    decimal.Decimal `json:"current"`
	UnusedRoom decimal.Decimal `json:"unusedRoom"`
	Rate       decimal.Decimal `json:"rate"`
	DailyCost  decimal.Decimal `json:"dailyCost"`
	AnnualCost decimal.Decimal `json:"annualCost"`
	// Estimate marks heuristic buckets whose cost is assumed rather than
	// computed from brackets.
	Estimate bool `json:"estimate"`
}

// OpportunityCost aggregates per-bucket costs. TotalDailyCost is
// BracketDailyCost plus EstimatedDailyCost.
type OpportunityCost struct {
	Buckets            []BucketCost    `json:"buckets,omitempty"`
	BracketDailyCost   decimal.Decimal `json:"bracketDailyCost"`
	EstimatedDailyCost decimal.Decimal `json:"estimatedDailyCost"`
	TotalDailyCost     decimal.Decimal `json:"totalDailyCost"`
	TotalAnnualCost    decimal.Decimal `json:"totalAnnualCost"`
}

// Rounded returns a copy with money rounded to cents.
func (o OpportunityCost) Rounded() OpportunityCost {
	r := OpportunityCost{
		Buckets:            make([]BucketCost, len(o.Buckets)),
		BracketDailyCost:   roundMoney(o.BracketDailyCost),
		EstimatedDailyCost: roundMoney(o.EstimatedDailyCost),
		TotalDailyCost:     roundMoney(o.TotalDailyCost),
		TotalAnnualCost:    roundMoney(o.TotalAnnualCost),
	}
	for i, b := range o.Buckets {
		b.Limit = roundMoney(b.Limit)
		b.Current = roundMoney(b.Current)
		b.UnusedRoom = roundMoney(b.UnusedRoom)
		b.Rate = roundRate(b.Rate)
		b.DailyCost = roundMoney(b.DailyCost)
		b.AnnualCost = roundMoney(b.AnnualCost)
		r.Buckets[i] = b
	}
	return r
}

// Heuristics configures the assumed portfolio costs.
type Heuristics struct {
	PortfolioDragRate  decimal.Decimal
	PortfolioDragFloor decimal.Decimal
	AdvisorFeeRate     decimal.Decimal
	AdvisorFeeFloor    decimal.Decimal
}

// HeuristicsFromConfig extracts the heuristic parameters from cfg.
func HeuristicsFromConfig(cfg Config) *Heuristics {
	return &Heuristics{
		PortfolioDragRate:  cfg.PortfolioDragRate,
		PortfolioDragFloor: cfg.PortfolioDragFloor,
		AdvisorFeeRate:     cfg.AdvisorFeeRate,
		AdvisorFeeFloor:    cfg.AdvisorFeeFloor,
	}
}

// EstimateOpportunityCost prices the unused 401(k) and HSA room. The HSA
// bucket is the family limit for joint filers and individual otherwise,
// and its rate adds the payroll rate. Buckets with no unused room are
// still listed with zero cost. Heuristic portfolio buckets are appended
// only when Heuristics is set and the portfolio exceeds the floor.
func EstimateOpportunityCost(in OpportunityInput) OpportunityCost {
	marginal := maxDecimal(decimal.Zero, in.MarginalRate)
	payroll := maxDecimal(decimal.Zero, in.PayrollRate)

	limit401k := in.Limits.Elective401k
	if in.IncludeCatchUp && in.Age >= 50 {
		limit401k = limit401k.Add(in.Limits.CatchUp401k)
	}

	hsaBucket, hsaLimit := taxtable.BucketHSAIndividual, in.Limits.HSAIndividual
	if in.FilingStatus == model.FilingMarriedJoint {
		hsaBucket, hsaLimit = taxtable.BucketHSAFamily, in.Limits.HSAFamily
	}
	if in.IncludeCatchUp && in.Age >= 55 {
		hsaLimit = hsaLimit.Add(in.Limits.HSACatchUp)
	}

	var out OpportunityCost
	out.add(bracketBucket(taxtable.Bucket401k, limit401k, in.Current401k, marginal))
	out.add(bracketBucket(hsaBucket, hsaLimit, in.CurrentHSA, marginal.Add(payroll)))

	if h := in.Heuristics; h != nil {
		if b, ok := heuristicBucket(BucketPortfolioDrag, in.PortfolioValue, h.PortfolioDragRate, h.PortfolioDragFloor); ok {
			out.add(b)
		}
		if b, ok := heuristicBucket(BucketAdvisorFee, in.PortfolioValue, h.AdvisorFeeRate, h.AdvisorFeeFloor); ok {
			out.add(b)
		}
	}

	out.TotalDailyCost = out.BracketDailyCost.Add(out.EstimatedDailyCost)
	out.TotalAnnualCost = out.TotalDailyCost.Mul(daysInYear)
	return out
}

func (o *OpportunityCost) add(b BucketCost) {
	o.Buckets = append(o.Buckets, b)
	if b.Estimate {
		o.EstimatedDailyCost = o.EstimatedDailyCost.Add(b.DailyCost)
		return
	}
	o.BracketDailyCost = o.BracketDailyCost.Add(b.DailyCost)
}

func bracketBucket(bucket taxtable.Bucket, limit, current, rate decimal.Decimal) BucketCost {
	current = maxDecimal(decimal.Zero, current)
	unused := maxDecimal(decimal.Zero, limit.Sub(current))
	annual := unused.Mul(rate)
	return BucketCost{
		Bucket:     bucket,
		Limit:      limit,
		Current:    current,
		UnusedRoom: unused,
		Rate:       rate,
		AnnualCost: annual,
		DailyCost:  annual.Div(daysInYear),
	}
}

func heuristicBucket(bucket taxtable.Bucket, portfolio, rate, floor decimal.Decimal) (BucketCost, bool) {
	if !portfolio.GreaterThan(floor) || !rate.IsPositive() {
		return BucketCost{}, false
	}
	annual := portfolio.Mul(rate)
	return BucketCost{
		Bucket:     bucket,
		Current:    portfolio,
		Rate:       rate,
		AnnualCost: annual,
		DailyCost:  annual.Div(daysInYear),
		Estimate:   true,
	}, true
}
