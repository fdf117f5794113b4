package engine

import (
	"testing"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeBracketTable() taxtable.BracketTable {
	return taxtable.BracketTable{
		Year:   2024,
		Status: model.FilingSingle,
		Brackets: []taxtable.Bracket{
			{UpperBound: d("11600"), Rate: d("0.10")},
			{UpperBound: d("47150"), Rate: d("0.12")},
			{UpperBound: d("100525"), Rate: d("0.22")},
			{Rate: d("0.24"), Unbounded: true},
		},
	}
}

func TestComputeTax_ThreeBracketScenario(t *testing.T) {
	table := threeBracketTable()
	income := d("100525")

	assert.True(t, d("17168.50").Equal(ComputeTax(income, table)), "got %s", ComputeTax(income, table))
	assert.True(t, d("0.22").Equal(MarginalRate(income, table)))

	slices := Breakdown(income, table)
	require.Len(t, slices, 3)
	assert.True(t, d("1160").Equal(slices[0].Tax))
	assert.True(t, d("4266").Equal(slices[1].Tax))
	assert.True(t, d("11742.50").Equal(slices[2].Tax))
}

func TestComputeTax(t *testing.T) {
	table := brackets(t, 2026, model.FilingSingle)

	tests := []struct {
		name   string
		income string
		want   string
	}{
		{"negative owes nothing", "-5000", "0"},
		{"zero owes nothing", "0", "0"},
		{"inside first bracket", "10000", "1000"},
		{"first boundary", "12400", "1240"},
		{"one cent over first boundary", "12400.01", "1240.0012"},
		{"second bracket", "89500", "14402"},
		{"top bracket", "1000000", "325957.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTax(d(tt.income), table)
			assert.True(t, d(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeTax_BoundariesSumLowerBrackets(t *testing.T) {
	for _, status := range model.FilingStatuses {
		table := brackets(t, 2026, status)
		expected := decimal.Zero

		for i, b := range table.Brackets {
			if b.Unbounded {
				break
			}
			expected = expected.Add(b.UpperBound.Sub(table.LowerBound(i)).Mul(b.Rate))
			got := ComputeTax(b.UpperBound, table)
			assert.True(t, expected.Equal(got), "%s boundary %s: got %s want %s", status, b.UpperBound, got, expected)

			// One cent above the boundary is taxed at the next rate only.
			cent := d("0.01")
			next := ComputeTax(b.UpperBound.Add(cent), table)
			assert.True(t, got.Add(cent.Mul(table.Brackets[i+1].Rate)).Equal(next), "%s continuity at %s", status, b.UpperBound)
		}
	}
}

func TestComputeTax_MonotonicAndEffectiveBelowMarginal(t *testing.T) {
	table := brackets(t, 2025, model.FilingMarriedJoint)
	prev := decimal.Zero
	step := d("2500")

	for income := d("2500"); income.LessThanOrEqual(d("900000")); income = income.Add(step) {
		tax := ComputeTax(income, table)
		assert.True(t, tax.GreaterThanOrEqual(prev), "tax decreased at %s", income)
		prev = tax

		effective := EffectiveRate(income, table)
		assert.True(t, effective.LessThanOrEqual(MarginalRate(income, table)), "effective above marginal at %s", income)
	}
}

func TestMarginalRate(t *testing.T) {
	table := brackets(t, 2026, model.FilingSingle)

	tests := []struct {
		income string
		want   string
	}{
		{"0", "0.10"},
		{"12400", "0.10"},
		{"12400.01", "0.12"},
		{"105700", "0.22"},
		{"640601", "0.37"},
	}

	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(MarginalRate(d(tt.income), table)))
		})
	}

	assert.True(t, MarginalRate(d("100"), taxtable.BracketTable{}).IsZero())
}

func TestEffectiveRate(t *testing.T) {
	table := threeBracketTable()

	assert.True(t, EffectiveRate(decimal.Zero, table).IsZero())
	assert.True(t, EffectiveRate(d("-1"), table).IsZero())
	assert.True(t, d("0.10").Equal(EffectiveRate(d("11600"), table)))
	assert.Equal(t, "0.1708", EffectiveRate(d("100525"), table).Round(4).String())
}

func TestBreakdown(t *testing.T) {
	table := threeBracketTable()

	assert.Empty(t, Breakdown(decimal.Zero, table))

	slices := Breakdown(d("200000"), table)
	require.Len(t, slices, 4)
	last := slices[3]
	assert.True(t, last.Unbounded)
	assert.True(t, d("100525").Equal(last.Lower))
	assert.True(t, d("99475").Equal(last.Taxed))
	assert.True(t, d("23874").Equal(last.Tax))
}
