package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisRecord(t *testing.T) {
	a := engine.Analysis{
		Year: 2026,
		Projection: &engine.AnnualProjection{
			FilingStatus: model.FilingSingle,
			TotalTax:     d("23582.004"),
		},
		Withholding: &engine.WithholdingAssessment{
			Status:       engine.WithholdingUnder,
			Differential: d("-650"),
		},
		Plan: &engine.ContributionPlan{MissedMatch: d("2250")},
		Opportunity: &engine.OpportunityCost{
			TotalDailyCost: d("15.666"),
		},
		Recommendations: engine.Recommendations{TotalPotentialSavings: d("7050")},
		Incomplete:      true,
	}

	r, err := NewAnalysisRecord(a, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", r.SnapshotID)
	assert.Equal(t, model.FilingSingle, r.FilingStatus)
	assert.Equal(t, "under", r.WithholdingStatus)
	assert.True(t, r.TotalTax.Equal(d("23582")))
	assert.True(t, r.DailyCost.Equal(d("15.67")))
	assert.True(t, r.MissedMatch.Equal(d("2250")))
	assert.True(t, r.Incomplete)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Payload), &decoded))
	assert.Equal(t, float64(2026), decoded["year"])
	assert.Contains(t, decoded, "projection")
	assert.NotContains(t, decoded, "warnings")
}

func TestAnalyses(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, total := range []string{"20000", "21000", "22000"} {
		r := &model.AnalysisRecord{
			CreatedAt:         base.Add(time.Duration(i) * time.Hour),
			Year:              2026,
			WithholdingStatus: "on_track",
			TotalTax:          d(total),
			Payload:           `{"year":2026}`,
		}
		require.NoError(t, store.SaveAnalysis(ctx, r))
		assert.NotZero(t, r.ID)
	}

	recent, err := store.ListAnalyses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].TotalTax.Equal(d("22000")))
	assert.True(t, recent[1].TotalTax.Equal(d("21000")))
	assert.Empty(t, recent[0].SnapshotID)

	all, err := store.ListAnalyses(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	err = store.SaveAnalysis(ctx, &model.AnalysisRecord{})
	assert.ErrorIs(t, err, ErrInvalidAnalysis)
}
