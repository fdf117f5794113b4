package model

import (
	"fmt"
	"strings"
)

// FilingStatus is the federal filing status a return is prepared under.
type FilingStatus string

const (
	// FilingSingle is the single filer status.
	FilingSingle FilingStatus = "single"
	// FilingMarriedJoint is married filing jointly.
	FilingMarriedJoint FilingStatus = "married_joint"
	// FilingMarriedSeparate is married filing separately.
	FilingMarriedSeparate FilingStatus = "married_separate"
	// FilingHeadOfHousehold is head of household.
	FilingHeadOfHousehold FilingStatus = "head_of_household"
)

// FilingStatuses lists every supported status in table order.
var FilingStatuses = []FilingStatus{
	FilingSingle,
	FilingMarriedJoint,
	FilingMarriedSeparate,
	FilingHeadOfHousehold,
}

// IsValid reports whether s is one of the supported statuses.
func (s FilingStatus) IsValid() bool {
	switch s {
	case FilingSingle, FilingMarriedJoint, FilingMarriedSeparate, FilingHeadOfHousehold:
		return true
	default:
		return false
	}
}

// Label returns a human readable name.
func (s FilingStatus) Label() string {
	switch s {
	case FilingSingle:
		return "Single"
	case FilingMarriedJoint:
		return "Married Filing Jointly"
	case FilingMarriedSeparate:
		return "Married Filing Separately"
	case FilingHeadOfHousehold:
		return "Head of Household"
	default:
		return string(s)
	}
}

// ParseFilingStatus accepts the canonical values plus the spellings that
// document extractors and users commonly produce.
func ParseFilingStatus(raw string) (FilingStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "single", "s":
		return FilingSingle, nil
	case "married_joint", "married_filing_jointly", "mfj", "married", "joint":
		return FilingMarriedJoint, nil
	case "married_separate", "married_filing_separately", "mfs":
		return FilingMarriedSeparate, nil
	case "head_of_household", "hoh":
		return FilingHeadOfHousehold, nil
	default:
		return "", fmt.Errorf("unknown filing status %q", raw)
	}
}

// PayFrequency is how often a paycheck is issued.
type PayFrequency string

const (
	// PayWeekly is 52 pay periods per year.
	PayWeekly PayFrequency = "weekly"
	// PayBiweekly is 26 pay periods per year.
	PayBiweekly PayFrequency = "biweekly"
	// PaySemimonthly is 24 pay periods per year.
	PaySemimonthly PayFrequency = "semimonthly"
	// PayMonthly is 12 pay periods per year.
	PayMonthly PayFrequency = "monthly"
)

// PeriodsPerYear returns the number of pay periods in a year, or 0 for an
// unknown frequency.
func (f PayFrequency) PeriodsPerYear() int {
	switch f {
	case PayWeekly:
		return 52
	case PayBiweekly:
		return 26
	case PaySemimonthly:
		return 24
	case PayMonthly:
		return 12
	default:
		return 0
	}
}

// IsValid reports whether f is a known frequency.
func (f PayFrequency) IsValid() bool {
	return f.PeriodsPerYear() > 0
}

// ParsePayFrequency normalizes extractor and user spellings.
func ParsePayFrequency(raw string) (PayFrequency, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)

	switch normalized {
	case "weekly":
		return PayWeekly, nil
	case "biweekly", "fortnightly", "everyotherweek":
		return PayBiweekly, nil
	case "semimonthly", "twicemonthly", "twiceamonth":
		return PaySemimonthly, nil
	case "monthly":
		return PayMonthly, nil
	default:
		return "", fmt.Errorf("unknown pay frequency %q", raw)
	}
}
