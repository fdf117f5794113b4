package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() model.PaycheckSnapshot {
	return model.PaycheckSnapshot{
		GrossPay:               d("5000"),
		FederalWithheld:        d("500"),
		StateWithheld:          d("180"),
		SocialSecurityWithheld: d("310"),
		MedicareWithheld:       d("72.50"),
		PreTax: model.PreTaxDeductions{
			Retirement401k: d("500"),
			HSA:            d("100"),
		},
		PayFrequency:     model.PaySemimonthly,
		FilingStatus:     model.FilingSingle,
		StateOfResidence: "CO",
		TaxYear:          2026,
	}
}

func TestProjector_Project(t *testing.T) {
	p := NewProjector(catalog(t), 2026)

	proj, err := p.Project(sampleSnapshot(), ProjectOptions{})
	require.NoError(t, err)

	assert.Equal(t, 24, proj.PeriodsPerYear)
	assert.False(t, proj.Incomplete)
	assert.Empty(t, proj.Missing)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"annual gross", proj.AnnualGross, "120000"},
		{"pre-tax", proj.TotalPreTax, "14400"},
		{"agi", proj.AGI, "105600"},
		{"standard deduction", proj.StandardDeduction, "16100"},
		{"taxable", proj.TaxableIncome, "89500"},
		{"federal", proj.FederalTax, "14402"},
		{"social security", proj.FICA.SocialSecurity, "7440"},
		{"medicare", proj.FICA.Medicare, "1740"},
		{"additional medicare", proj.FICA.AdditionalMedicare, "0"},
		{"fica", proj.FICATax(), "9180"},
		{"total", proj.TotalTax, "23582"},
		{"marginal", proj.MarginalRate, "0.22"},
		{"state", proj.StateTax, "0"},
	}
	for _, c := range checks {
		assert.True(t, d(c.want).Equal(c.got), "%s: got %s want %s", c.name, c.got, c.want)
	}

	// TaxableIncome = max(0, AGI - standard deduction); total = federal + FICA.
	assert.True(t, proj.TaxableIncome.Equal(proj.AGI.Sub(proj.StandardDeduction)))
	assert.True(t, proj.TotalTax.Equal(proj.FederalTax.Add(proj.FICATax())))
}

func TestProjector_AnnualizationIsExact(t *testing.T) {
	p := NewProjector(catalog(t), 2026)

	tests := []struct {
		freq  model.PayFrequency
		gross string
		want  string
	}{
		{model.PayWeekly, "1923.07", "99999.64"},
		{model.PayBiweekly, "3846.15", "99999.90"},
		{model.PaySemimonthly, "4166.67", "100000.08"},
		{model.PayMonthly, "8333.33", "99999.96"},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			s := sampleSnapshot()
			s.PayFrequency = tt.freq
			s.GrossPay = d(tt.gross)
			s.PreTax = model.PreTaxDeductions{}

			proj, err := p.Project(s, ProjectOptions{})
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(proj.AnnualGross), "got %s", proj.AnnualGross)
			assert.Equal(t, tt.freq.PeriodsPerYear(), proj.PeriodsPerYear)
		})
	}
}

func TestProjector_EdgeCases(t *testing.T) {
	p := NewProjector(catalog(t), 2026)

	t.Run("zero gross yields zeros", func(t *testing.T) {
		s := sampleSnapshot()
		s.GrossPay = decimal.Zero
		s.PreTax = model.PreTaxDeductions{}

		proj, err := p.Project(s, ProjectOptions{IncludeState: true})
		require.NoError(t, err)
		assert.True(t, proj.AnnualGross.IsZero())
		assert.True(t, proj.TaxableIncome.IsZero())
		assert.True(t, proj.TotalTax.IsZero())
		assert.True(t, proj.EffectiveRate.IsZero())
	})

	t.Run("pre-tax clamped to gross", func(t *testing.T) {
		s := sampleSnapshot()
		s.GrossPay = d("1000")
		s.PreTax = model.PreTaxDeductions{Retirement401k: d("1500")}

		proj, err := p.Project(s, ProjectOptions{})
		require.NoError(t, err)
		assert.True(t, d("24000").Equal(proj.TotalPreTax))
		assert.True(t, proj.AGI.IsZero())
		assert.True(t, proj.TaxableIncome.IsZero())
		assert.True(t, proj.FederalTax.IsZero())
		assert.True(t, d("1836").Equal(proj.FICATax()), "FICA still applies to gross wages")
	})

	t.Run("missing pay frequency assumes semimonthly", func(t *testing.T) {
		s := sampleSnapshot()
		s.PayFrequency = ""

		proj, err := p.Project(s, ProjectOptions{})
		require.NoError(t, err)
		assert.True(t, proj.Incomplete)
		assert.Equal(t, []string{FieldPayFrequency}, proj.Missing)
		assert.Equal(t, model.PaySemimonthly, proj.PayFrequency)
		assert.True(t, d("120000").Equal(proj.AnnualGross))
	})

	t.Run("missing filing status assumes single", func(t *testing.T) {
		s := sampleSnapshot()
		s.FilingStatus = ""

		proj, err := p.Project(s, ProjectOptions{})
		require.NoError(t, err)
		assert.True(t, proj.Incomplete)
		assert.Contains(t, proj.Missing, FieldFilingStatus)
		assert.Equal(t, model.FilingSingle, proj.FilingStatus)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		s := sampleSnapshot()
		s.PreTax.HSA = d("-1")

		_, err := p.Project(s, ProjectOptions{})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("unknown frequency rejected", func(t *testing.T) {
		s := sampleSnapshot()
		s.PayFrequency = model.PayFrequency("quarterly")

		_, err := p.Project(s, ProjectOptions{})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("unsupported year surfaces", func(t *testing.T) {
		s := sampleSnapshot()
		s.TaxYear = 2019

		_, err := p.Project(s, ProjectOptions{})
		assert.True(t, errors.Is(err, ErrUnknownPeriod))
	})

	t.Run("option year overrides snapshot", func(t *testing.T) {
		proj, err := p.Project(sampleSnapshot(), ProjectOptions{Year: 2024})
		require.NoError(t, err)
		assert.Equal(t, 2024, proj.Year)
		assert.True(t, d("14600").Equal(proj.StandardDeduction))
	})
}

func TestProjector_AdditionalMedicare(t *testing.T) {
	p := NewProjector(catalog(t), 2026)
	s := sampleSnapshot()
	s.PayFrequency = model.PayMonthly
	s.GrossPay = d("25000")
	s.PreTax = model.PreTaxDeductions{}

	proj, err := p.Project(s, ProjectOptions{})
	require.NoError(t, err)
	assert.True(t, d("11439").Equal(proj.FICA.SocialSecurity), "capped at wage base")
	assert.True(t, d("4350").Equal(proj.FICA.Medicare))
	assert.True(t, d("900").Equal(proj.FICA.AdditionalMedicare))

	s.FilingStatus = model.FilingMarriedJoint
	proj, err = p.Project(s, ProjectOptions{})
	require.NoError(t, err)
	assert.True(t, d("450").Equal(proj.FICA.AdditionalMedicare))
}

func TestProjector_State(t *testing.T) {
	p := NewProjector(catalog(t), 2026)

	proj, err := p.Project(sampleSnapshot(), ProjectOptions{IncludeState: true})
	require.NoError(t, err)
	assert.True(t, proj.StateIncluded)
	assert.False(t, proj.StateEstimated)
	assert.True(t, d("3938").Equal(proj.StateTax))
	assert.True(t, d("27520").Equal(proj.TotalTax))

	s := sampleSnapshot()
	s.StateOfResidence = ""
	proj, err = p.Project(s, ProjectOptions{IncludeState: true})
	require.NoError(t, err)
	assert.True(t, proj.StateEstimated)
	assert.True(t, d("0.05").Equal(proj.StateRate))
	assert.True(t, d("4475").Equal(proj.StateTax))
	assert.Contains(t, proj.Missing, FieldState)
}

func TestProjector_ProjectFromIncome(t *testing.T) {
	p := NewProjector(catalog(t), 2026)

	proj, err := p.ProjectFromIncome(model.FinancialProfile{
		AnnualIncome: d("150000"),
		FilingStatus: model.FilingMarriedJoint,
	}, ProjectOptions{})
	require.NoError(t, err)

	assert.Equal(t, 24, proj.PeriodsPerYear)
	assert.True(t, proj.TotalPreTax.IsZero())
	assert.True(t, d("117800").Equal(proj.TaxableIncome))
	assert.True(t, d("15340").Equal(proj.FederalTax))
	assert.False(t, proj.Incomplete)

	proj, err = p.ProjectFromIncome(model.FinancialProfile{}, ProjectOptions{})
	require.NoError(t, err)
	assert.True(t, proj.Incomplete)
	assert.ElementsMatch(t, []string{FieldFilingStatus, FieldIncome}, proj.Missing)

	_, err = p.ProjectFromIncome(model.FinancialProfile{AnnualIncome: d("-1")}, ProjectOptions{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestProjection_Rounded(t *testing.T) {
	p := NewProjector(catalog(t), 2026)
	s := sampleSnapshot()
	s.GrossPay = d("4166.666")

	proj, err := p.Project(s, ProjectOptions{})
	require.NoError(t, err)

	r := proj.Rounded()
	assert.Equal(t, "99999.98", r.AnnualGross.StringFixed(2))
	assert.Equal(t, int32(-2), r.AnnualGross.Exponent())
	assert.True(t, proj.AnnualGross.Equal(d("99999.984")), "original is untouched")
}

func TestProjector_ConcurrentCallsAreDeterministic(t *testing.T) {
	p := NewProjector(catalog(t), 2026)
	want, err := p.Project(sampleSnapshot(), ProjectOptions{IncludeState: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]AnnualProjection, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Project(sampleSnapshot(), ProjectOptions{IncludeState: true})
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if diff := cmp.Diff(want.Rounded(), got.Rounded(), decimalEqual); diff != "" {
			t.Errorf("result %d differs (-want +got):\n%s", i, diff)
		}
	}
}
