package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilingStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    FilingStatus
		wantErr bool
	}{
		{input: "single", want: FilingSingle},
		{input: "Married Filing Jointly", want: FilingMarriedJoint},
		{input: "married_joint", want: FilingMarriedJoint},
		{input: "MFS", want: FilingMarriedSeparate},
		{input: "head-of-household", want: FilingHeadOfHousehold},
		{input: "widow", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFilingStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestPayFrequency_PeriodsPerYear(t *testing.T) {
	assert.Equal(t, 52, PayWeekly.PeriodsPerYear())
	assert.Equal(t, 26, PayBiweekly.PeriodsPerYear())
	assert.Equal(t, 24, PaySemimonthly.PeriodsPerYear())
	assert.Equal(t, 12, PayMonthly.PeriodsPerYear())
	assert.Equal(t, 0, PayFrequency("daily").PeriodsPerYear())
	assert.False(t, PayFrequency("").IsValid())
}

func TestParsePayFrequency(t *testing.T) {
	tests := map[string]PayFrequency{
		"weekly":        PayWeekly,
		"Bi-Weekly":     PayBiweekly,
		"semi-monthly":  PaySemimonthly,
		"twice a month": PaySemimonthly,
		"MONTHLY":       PayMonthly,
	}
	for input, want := range tests {
		got, err := ParsePayFrequency(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParsePayFrequency("quarterly")
	assert.Error(t, err)
}
