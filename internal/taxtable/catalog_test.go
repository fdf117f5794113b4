package taxtable

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []int{2024, 2025, 2026}, c.Years())
	assert.Equal(t, 2026, c.Latest())

	for _, year := range c.Years() {
		for _, status := range model.FilingStatuses {
			table, err := c.BracketsFor(year, status)
			require.NoError(t, err, "%d %s", year, status)
			assert.Len(t, table.Brackets, 7)
			assert.NoError(t, table.Validate())

			_, err = c.StandardDeductionFor(year, status)
			assert.NoError(t, err)
		}
	}
}

func TestCatalog_BracketsFor2024Single(t *testing.T) {
	c := MustDefault()

	table, err := c.BracketsFor(2024, model.FilingSingle)
	require.NoError(t, err)

	assert.True(t, d("11600").Equal(table.Brackets[0].UpperBound))
	assert.True(t, d("0.10").Equal(table.Brackets[0].Rate))
	assert.True(t, d("100525").Equal(table.Brackets[2].UpperBound))
	assert.True(t, d("0.22").Equal(table.Brackets[2].Rate))
	assert.True(t, table.Brackets[6].Unbounded)
	assert.True(t, d("0.37").Equal(table.Brackets[6].Rate))
	assert.True(t, d("47150").Equal(table.LowerBound(2)))
	assert.True(t, table.LowerBound(0).IsZero())
}

func TestCatalog_BracketsForReturnsCopy(t *testing.T) {
	c := MustDefault()

	first, err := c.BracketsFor(2026, model.FilingSingle)
	require.NoError(t, err)
	first.Brackets[0].Rate = d("0.99")

	second, err := c.BracketsFor(2026, model.FilingSingle)
	require.NoError(t, err)
	assert.True(t, d("0.10").Equal(second.Brackets[0].Rate), "catalog must not be mutable through returned tables")
}

func TestCatalog_UnknownPeriod(t *testing.T) {
	c := MustDefault()

	_, err := c.BracketsFor(1999, model.FilingSingle)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	_, err = c.BracketsFor(2026, model.FilingStatus("qualifying_widow"))
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	_, err = c.StandardDeductionFor(2030, model.FilingMarriedJoint)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	_, err = c.LimitFor(2023, Bucket401k, model.FilingSingle)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	_, err = c.PayrollFor(2019)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))
}

func TestCatalog_LimitFor(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		name   string
		bucket Bucket
		status model.FilingStatus
		want   string
	}{
		{"401k", Bucket401k, model.FilingSingle, "23000"},
		{"catch up", Bucket401kCatchUp, model.FilingSingle, "7500"},
		{"hsa single resolves individual", BucketHSA, model.FilingSingle, "4150"},
		{"hsa joint resolves family", BucketHSA, model.FilingMarriedJoint, "8300"},
		{"hsa head of household resolves individual", BucketHSA, model.FilingHeadOfHousehold, "4150"},
		{"ira", BucketIRA, model.FilingSingle, "7000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.LimitFor(2024, tt.bucket, tt.status)
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := c.LimitFor(2024, Bucket("529"), model.FilingSingle)
	assert.True(t, errors.Is(err, ErrUnknownBucket))
}

func TestCatalog_ElectiveDeferralLimit(t *testing.T) {
	c := MustDefault()

	under, err := c.ElectiveDeferralLimit(2026, 49)
	require.NoError(t, err)
	assert.True(t, d("24500").Equal(under))

	over, err := c.ElectiveDeferralLimit(2026, 50)
	require.NoError(t, err)
	assert.True(t, d("32500").Equal(over))
}

func TestCatalog_PayrollFor(t *testing.T) {
	c := MustDefault()

	p, err := c.PayrollFor(2025)
	require.NoError(t, err)
	assert.True(t, d("176100").Equal(p.SocialSecurityWageBase))
	assert.True(t, d("0.0765").Equal(p.EmployeeRate()))
	assert.True(t, d("250000").Equal(p.AdditionalMedicareThreshold(model.FilingMarriedJoint)))
	assert.True(t, d("125000").Equal(p.AdditionalMedicareThreshold(model.FilingMarriedSeparate)))
	assert.True(t, d("200000").Equal(p.AdditionalMedicareThreshold(model.FilingStatus("other"))))
}

func TestCatalog_StateRateFor(t *testing.T) {
	c := MustDefault()

	co := c.StateRateFor("co")
	assert.Equal(t, "CO", co.Code)
	assert.True(t, d("0.044").Equal(co.Rate))
	assert.False(t, co.Fallback)

	tx := c.StateRateFor("TX")
	assert.True(t, tx.Rate.IsZero())
	assert.False(t, tx.Fallback)

	unknown := c.StateRateFor("ZZ")
	assert.True(t, unknown.Fallback)
	assert.True(t, d("0.05").Equal(unknown.Rate))

	empty := c.StateRateFor("")
	assert.True(t, empty.Fallback)
}

func TestLoadBytes_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "decreasing bound",
			yaml: `
years:
  - year: 2030
    brackets:
      single:
        - { upper: "5000", rate: "0.10" }
        - { upper: "4000", rate: "0.20" }
        - { rate: "0.30" }
    limits: {elective_401k: "1", catch_up_401k: "1", hsa_individual: "1", hsa_family: "1", hsa_catch_up: "1", ira: "1", ira_catch_up: "1"}
    payroll: {social_security_rate: "0.062", social_security_wage_base: "1", medicare_rate: "0.0145", additional_medicare_rate: "0.009"}
`,
		},
		{
			name: "decreasing rate",
			yaml: `
years:
  - year: 2030
    brackets:
      single:
        - { upper: "5000", rate: "0.20" }
        - { rate: "0.10" }
`,
		},
		{
			name: "bounded final bracket",
			yaml: `
years:
  - year: 2030
    brackets:
      single:
        - { upper: "5000", rate: "0.10" }
        - { upper: "9000", rate: "0.20" }
`,
		},
		{
			name: "unknown status",
			yaml: `
years:
  - year: 2030
    brackets:
      widowed:
        - { rate: "0.10" }
`,
		},
		{
			name: "bad number",
			yaml: `
state_fallback_rate: "five percent"
`,
		},
		{
			name: "missing limit",
			yaml: `
years:
  - year: 2030
    limits: {elective_401k: "1"}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTable), "got %v", err)
		})
	}
}

func TestLoad_OverlayAddsYear(t *testing.T) {
	override := `
state_fallback_rate: "0.04"
states:
  CO: "0.0425"
years:
  - year: 2027
    standard_deduction:
      single: "16500"
    brackets:
      single:
        - { upper: "12700", rate: "0.10" }
        - { rate: "0.37" }
    limits: {elective_401k: "25000", catch_up_401k: "8000", hsa_individual: "4500", hsa_family: "9000", hsa_catch_up: "1000", ira: "7500", ira_catch_up: "1100"}
    payroll:
      social_security_rate: "0.062"
      social_security_wage_base: "190000"
      medicare_rate: "0.0145"
      additional_medicare_rate: "0.009"
      additional_medicare_threshold:
        single: "200000"
`
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	extra, err := Load(path)
	require.NoError(t, err)

	merged := MustDefault().Overlay(extra)
	assert.Equal(t, []int{2024, 2025, 2026, 2027}, merged.Years())

	sd, err := merged.StandardDeductionFor(2027, model.FilingSingle)
	require.NoError(t, err)
	assert.True(t, d("16500").Equal(sd))

	_, err = merged.StandardDeductionFor(2027, model.FilingMarriedJoint)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	assert.True(t, d("0.0425").Equal(merged.StateRateFor("CO").Rate))
	assert.True(t, d("0.04").Equal(merged.StateRateFor("??").Rate))
	assert.True(t, d("0.093").Equal(merged.StateRateFor("CA").Rate), "untouched states survive overlay")

	// The default catalog itself is unchanged.
	assert.False(t, MustDefault().Supports(2027))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
