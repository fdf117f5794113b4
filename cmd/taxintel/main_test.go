package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/Veraticus/charge-tax-intel/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPaystub = `Here is the extracted data:
{
  "employerName": "Acme Corp",
  "payDate": "2026-03-13",
  "grossPay": 4000,
  "federalWithheld": 420,
  "stateWithheld": 160,
  "socialSecurityWithheld": 248,
  "medicareWithheld": 58,
  "payFrequency": "biweekly",
  "filingStatus": "single",
  "state": "CO",
  "taxYear": 2026,
  "preTaxDeductions": {"retirement401k": 120, "hsa": 50}
}`

// testEnv points every command at a fresh database through a temp config file.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	content := "database:\n  path: " + filepath.Join(dir, "taxintel.db") + "\ntax:\n  year: 2026\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))

	return &testEnv{dir: dir, config: cfg}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "taxintel dev\n", out)
}

func TestBracketsAndTaxCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "brackets", "--year", "2026", "--status", "married_joint")
	require.NoError(t, err)
	assert.Contains(t, out, "2026 Federal Brackets")
	assert.Contains(t, out, "Standard deduction")

	out, err = env.run(t, "tax", "$50,000", "--year", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "Federal Tax on $50,000.00")
	assert.Contains(t, out, "Total tax")

	_, err = env.run(t, "tax", "-5")
	require.Error(t, err)

	_, err = env.run(t, "brackets", "--year", "1999")
	require.Error(t, err)
}

func TestProfileCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile")

	out, err = env.run(t, "profile", "set",
		"--income", "100000", "--contribution", "3",
		"--match-rate", "50", "--match-cap", "6",
		"--status", "single", "--state", "co", "--age", "35")
	require.NoError(t, err)
	assert.Contains(t, out, "$100,000.00")

	out, err = env.run(t, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "$100,000.00")
	assert.Contains(t, out, "CO")
	assert.Contains(t, out, "50% up to 6% of salary")

	_, err = env.run(t, "profile", "set", "--status", "widowed")
	require.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	env := newTestEnv(t)
	good := env.writeFile(t, "stub.json", testPaystub)
	bad := env.writeFile(t, "bad.json", `{"grossPay": 0}`)

	out, err := env.run(t, "import", "--no-progress", "--dry-run", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Validated 1 paycheck(s)")

	out, err = env.run(t, "snapshots", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No paychecks imported yet")

	out, err = env.run(t, "import", "--no-progress", good, bad)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 paycheck(s)")
	assert.Contains(t, out, "Rejected bad.json")

	out, err = env.run(t, "import", "--no-progress", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 paycheck(s)")
	assert.Contains(t, out, "Skipped 1 already imported")

	out, err = env.run(t, "snapshots", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "$4,000.00")

	_, err = env.run(t, "import", "--no-progress", bad)
	require.Error(t, err)

	_, err = env.run(t, "import", filepath.Join(env.dir, "missing-*.json"))
	require.Error(t, err)
}

func TestAnalyzeCommands(t *testing.T) {
	env := newTestEnv(t)
	stub := env.writeFile(t, "stub.json", testPaystub)

	_, err := env.run(t, "withholding")
	require.Error(t, err)

	_, err = env.run(t, "import", "--no-progress", stub)
	require.NoError(t, err)
	_, err = env.run(t, "profile", "set", "--income", "104000", "--contribution", "3", "--match-rate", "100", "--match-cap", "5")
	require.NoError(t, err)

	out, err := env.run(t, "project")
	require.NoError(t, err)
	assert.Contains(t, out, "2026 Projection")

	out, err = env.run(t, "withholding")
	require.NoError(t, err)
	assert.Contains(t, out, "Federal Withholding")

	out, err = env.run(t, "optimize")
	require.NoError(t, err)
	assert.Contains(t, out, "401(k) Contributions")
	assert.Contains(t, out, "Missed match")

	out, err = env.run(t, "opportunity")
	require.NoError(t, err)
	assert.Contains(t, out, "Cost per year")

	out, err = env.run(t, "analyze", "--format", "json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "projection")
	assert.Contains(t, decoded, "withholding")
	assert.Contains(t, decoded, "plan")
	assert.InDelta(t, 2026, decoded["year"], 0)

	_, err = env.run(t, "analyze", "--no-save")
	require.NoError(t, err)

	pdfPath := filepath.Join(env.dir, "report.pdf")
	out, err = env.run(t, "analyze", "--pdf", pdfPath)
	require.NoError(t, err)
	assert.Contains(t, out, "PDF report written")
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	out, err = env.run(t, "history", "--limit", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "2026")
	assert.NotContains(t, out, "No analyses recorded")

	_, err = env.run(t, "analyze", "--format", "yaml")
	require.Error(t, err)
}

func TestOptimizeRequiresMatch(t *testing.T) {
	env := newTestEnv(t)
	stub := env.writeFile(t, "stub.json", testPaystub)

	_, err := env.run(t, "import", "--no-progress", stub)
	require.NoError(t, err)
	_, err = env.run(t, "profile", "set", "--income", "104000", "--contribution", "3")
	require.NoError(t, err)

	for _, args := range [][]string{{"optimize"}, {"optimize", "--interactive"}} {
		_, err = env.run(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "Set your employer match first", args)
	}
}

func TestAnalyzeWithoutData(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "project")
	require.Error(t, err)

	out, err := env.run(t, "analyze", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"incomplete": true`)

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses recorded")
}

func TestSnapshotsDelete(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "snapshots", "delete", "nope")
	require.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 3")
	assert.Contains(t, out, "Migrations pending")

	out, err = env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "3 of 3")
	assert.Contains(t, out, "Database is up to date")
}

func TestSheetsAuthRequiresClient(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")

	_, err := env.run(t, "sheets", "auth")
	require.Error(t, err)
}

func TestAnalyzeSheetsExport(t *testing.T) {
	env := newTestEnv(t)
	stub := env.writeFile(t, "stub.json", testPaystub)
	f, err := os.OpenFile(env.config, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("sheets:\n  client_id: id\n  client_secret: secret\n  token_file: " + filepath.Join(env.dir, "token.json") + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	mock := sheets.NewMockWriter()
	original := newReportWriter
	newReportWriter = func(context.Context, sheets.Config) (sheets.ReportWriter, error) {
		return mock, nil
	}
	t.Cleanup(func() { newReportWriter = original })

	_, err = env.run(t, "import", "--no-progress", stub)
	require.NoError(t, err)

	out, err := env.run(t, "analyze", "--sheets")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to Google Sheets")
	require.Equal(t, 1, mock.WriteCallCount)
	assert.Equal(t, 2026, mock.LastReport.Year)
	assert.NotEmpty(t, mock.LastReport.Sections)
	assert.Len(t, mock.LastReport.History, 1)

	mock.WriteFunc = func(context.Context, report.Report) error {
		return errors.New("quota exceeded")
	}
	_, err = env.run(t, "analyze", "--sheets", "--no-save")
	require.Error(t, err)
}
