package sheets

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleAnalysis() engine.Analysis {
	return engine.Analysis{
		Year: 2026,
		Projection: &engine.AnnualProjection{
			FilingStatus:      model.FilingSingle,
			PayFrequency:      model.PaySemimonthly,
			StateCode:         "CO",
			AnnualGross:       d("120000"),
			TotalPreTax:       d("14400"),
			AGI:               d("105600"),
			StandardDeduction: d("16100"),
			TaxableIncome:     d("89500"),
			FederalTax:        d("14402"),
			FICA: engine.FICA{
				SocialSecurity: d("7440"),
				Medicare:       d("1740"),
			},
			StateTax:      d("3938"),
			TotalTax:      d("23582"),
			MarginalRate:  d("0.22"),
			EffectiveRate: d("0.160916"),
			StateIncluded: true,
		},
		Withholding: &engine.WithholdingAssessment{
			Status:                engine.WithholdingUnder,
			Differential:          d("-650"),
			ProjectedWithheld:     d("13752"),
			ProjectedLiability:    d("14402"),
			Threshold:             d("500"),
			PerPaycheckAdjustment: d("27.083333"),
			PeriodsPerYear:        24,
		},
		Recommendations: engine.Recommendations{
			Strategies: []model.TaxStrategy{
				{Strategy: "Capture the full match", Priority: model.PriorityHigh, PotentialSavings: d("3330")},
			},
			Paycheck: []model.PaycheckOptimization{
				{Action: "Raise 401(k) to 6%", Priority: model.PriorityHigh, CurrentAmount: d("375"), SuggestedAmount: d("750"), ExtraPerPaycheck: d("187.5"), TaxSavingsPerYear: d("1080")},
			},
		},
		Warnings: []string{"insufficient data: matchCapPercent"},
	}
}

func TestPrepareReportData(t *testing.T) {
	rep := report.New(sampleAnalysis(), time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	rep.History = []report.HistoryRow{
		{
			CreatedAt:         time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
			WithholdingStatus: "under",
			TotalTax:          d("23000"),
			Differential:      d("-900"),
			Year:              2026,
		},
	}

	layout := prepareReportData(rep)

	require.NotEmpty(t, layout.values)
	assert.Equal(t, []any{"Tax Intel Report", 2026, "Generated 2026-03-01 09:30"}, layout.values[0])

	// Title, blank, then the projection header.
	require.NotEmpty(t, layout.headerRows)
	assert.Equal(t, 2, layout.headerRows[0])
	assert.Equal(t, "Annual Projection", layout.values[2][0])
	assert.Equal(t, []any{"Annual Gross", 120000.0, ""}, layout.values[3])

	require.Len(t, layout.rateRows, 2)
	for _, idx := range layout.rateRows {
		assert.Contains(t, []any{"Marginal Rate", "Effective Rate"}, layout.values[idx][0])
	}

	find := func(label string) []any {
		for _, row := range layout.values {
			if len(row) > 0 && row[0] == label {
				return row
			}
		}
		return nil
	}

	assert.Equal(t, []any{"Capture the full match", 3330.0, "high", "", ""}, find("Capture the full match"))
	assert.Equal(t, []any{"Raise 401(k) to 6%", 1080.0, "high", 375.0, 750.0, 187.5}, find("Raise 401(k) to 6%"))
	assert.Equal(t, []any{"2026-02-01 08:00", 23000.0, "under", -900.0, 0.0, 0.0, 2026}, find("2026-02-01 08:00"))
	assert.NotNil(t, find("insufficient data: matchCapPercent"))
	assert.Equal(t, 7, layout.width)
}

func TestPrepareReportData_Empty(t *testing.T) {
	layout := prepareReportData(report.Report{Year: 2025})
	assert.Len(t, layout.values, 2)
	assert.Empty(t, layout.headerRows)
	assert.Empty(t, layout.rateRows)
}

func TestSummaryLine(t *testing.T) {
	rep := report.New(sampleAnalysis(), time.Now())
	assert.Equal(t, "total tax $23,582.00", summaryLine(rep))
	assert.Equal(t, "no projection", summaryLine(report.Report{}))
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	rep := report.New(sampleAnalysis(), time.Now())

	require.NoError(t, m.Write(context.Background(), rep))
	assert.Equal(t, 1, m.WriteCallCount)
	assert.Equal(t, rep.Year, m.LastReport.Year)

	boom := errors.New("boom")
	m.WriteFunc = func(context.Context, report.Report) error { return boom }
	assert.ErrorIs(t, m.Write(context.Background(), rep), boom)
	require.Len(t, m.WriteCalls, 2)
	assert.ErrorIs(t, m.WriteCalls[1].Error, boom)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
	assert.Empty(t, m.WriteCalls)
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, saveToken(path, token))
	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCallbackCode(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr string
	}{
		{name: "ok", url: "/callback?state=s1&code=abc", want: "abc"},
		{name: "state mismatch", url: "/callback?state=other&code=abc", wantErr: "state mismatch"},
		{name: "denied", url: "/callback?state=s1&error=access_denied", wantErr: "access_denied"},
		{name: "no code", url: "/callback?state=s1", wantErr: "no authorization code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := callbackCode(httptest.NewRequest("GET", tt.url, nil), "s1")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		err           error
		name          string
		wantRateLimit bool
		wantPermanent bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: 429}, wantRateLimit: true},
		{name: "server error", err: &googleapi.Error{Code: 503}},
		{name: "forbidden", err: &googleapi.Error{Code: 403}, wantPermanent: true},
		{name: "network", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAPIError(tt.err)
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, common.ErrRateLimit))
			assert.Equal(t, tt.wantPermanent, common.IsPermanent(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.NoError(t, classifyAPIError(nil))
}
