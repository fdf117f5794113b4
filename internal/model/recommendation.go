package model

import "github.com/shopspring/decimal"

// Priority ranks a recommendation for display.
type Priority string

const (
	// PriorityHigh marks recommendations worth acting on now.
	PriorityHigh Priority = "high"
	// PriorityMedium marks recommendations worth scheduling.
	PriorityMedium Priority = "medium"
	// PriorityLow marks minor optimizations.
	PriorityLow Priority = "low"
)

// Rank orders priorities so that high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// TaxStrategy is a plain-language annual strategy record.
type TaxStrategy struct {
	Strategy         string          `json:"strategy"`
	CurrentSituation string          `json:"currentSituation"`
	Recommendation   string          `json:"recommendation"`
	HowToImplement   string          `json:"howToImplement"`
	Priority         Priority        `json:"priority"`
	PotentialSavings decimal.Decimal `json:"potentialSavings"`
}

// PaycheckOptimization is a per-paycheck change the user can make with their
// payroll department.
type PaycheckOptimization struct {
	Action            string          `json:"action"`
	HowToFix          string          `json:"howToFix"`
	Priority          Priority        `json:"priority"`
	CurrentAmount     decimal.Decimal `json:"currentAmount"`
	SuggestedAmount   decimal.Decimal `json:"suggestedAmount"`
	ExtraPerPaycheck  decimal.Decimal `json:"extraPerPaycheck"`
	TaxSavingsPerYear decimal.Decimal `json:"taxSavingsPerYear"`
}
