package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/config"
	"github.com/Veraticus/charge-tax-intel/internal/engine"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/Veraticus/charge-tax-intel/internal/sheets"
	"github.com/Veraticus/charge-tax-intel/internal/storage"
	"github.com/Veraticus/charge-tax-intel/internal/tui"
	"github.com/Veraticus/charge-tax-intel/internal/tui/themes"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// withStoredAnalysis opens storage, runs the engine and hands the result to fn.
func withStoredAnalysis(cmd *cobra.Command, fn func(store service.Storage, run *analysisRun) error) error {
	if year, _ := cmd.Flags().GetInt("year"); year > 0 {
		viper.Set(config.KeyTaxYear, year)
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore(store)

	run, err := runStoredAnalysis(cmd.Context(), store)
	if err != nil {
		return err
	}
	return fn(store, run)
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(w))
	}
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project annual taxes from the latest paycheck",
		Long: `Annualize the latest imported paycheck and project federal, FICA and
state tax for the year. Without a paycheck the stated annual income from
the profile is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStoredAnalysis(cmd, func(_ service.Storage, run *analysisRun) error {
				a := run.analysis.Rounded()
				if a.Projection == nil {
					printWarnings(cmd, a.Warnings)
					return common.NewUserError("Nothing to project. Run: taxintel import <file> or taxintel profile set --income", nil)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatProjection(*a.Projection))
				printWarnings(cmd, a.Warnings)
				return nil
			})
		},
	}
	cmd.Flags().Int("year", 0, "Tax year for paychecks without one (default: tax.year)")
	return cmd
}

func withholdingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withholding",
		Short: "Check whether federal withholding covers the projected tax",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStoredAnalysis(cmd, func(_ service.Storage, run *analysisRun) error {
				a := run.analysis.Rounded()
				if a.Withholding == nil {
					return common.NewUserError("Withholding needs an imported paycheck. Run: taxintel import <file>", nil)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatAssessment(*a.Withholding))
				return nil
			})
		},
	}
	cmd.Flags().Int("year", 0, "Tax year for paychecks without one (default: tax.year)")
	return cmd
}

func opportunityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opportunity",
		Short: "Show what unused tax-advantaged room costs you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStoredAnalysis(cmd, func(_ service.Storage, run *analysisRun) error {
				a := run.analysis.Rounded()
				if a.Opportunity == nil {
					printWarnings(cmd, a.Warnings)
					return common.NewUserError("Nothing to estimate yet. Import a paycheck or set your income", nil)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatOpportunity(*a.Opportunity))
				return nil
			})
		},
	}
	cmd.Flags().Int("year", 0, "Tax year for paychecks without one (default: tax.year)")
	return cmd
}

func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Find the 401(k) contribution that captures the full match",
		Long: `Compute the smallest 401(k) contribution that captures the full employer
match, and what the change is worth. With --interactive, explore other
contribution rates and save the one you pick to your profile.`,
		Args: cobra.NoArgs,
		RunE: runOptimize,
	}
	cmd.Flags().BoolP("interactive", "i", false, "Explore contribution rates interactively")
	cmd.Flags().Int("year", 0, "Tax year for paychecks without one (default: tax.year)")
	return cmd
}

const errNoMatch = "Set your employer match first. Run: taxintel profile set --match-rate 50 --match-cap 6"

func runOptimize(cmd *cobra.Command, _ []string) error {
	interactive, _ := cmd.Flags().GetBool("interactive")

	return withStoredAnalysis(cmd, func(store service.Storage, run *analysisRun) error {
		// Without a match formula every rate optimizes to an empty plan.
		if run.analysis.Plan == nil {
			return common.NewUserError(errNoMatch, nil)
		}
		if !interactive {
			fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatPlan(run.analysis.Plan.Rounded()))
			return nil
		}

		in, err := optimizeInput(run)
		if err != nil {
			return err
		}

		result, err := tui.Run(cmd.Context(), in, tuiOptions()...)
		if err != nil {
			return err
		}
		if !result.Accepted {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No changes saved"))
			return nil
		}

		profile := run.profile
		profile.Current401kPercent = result.Plan.CurrentPercent
		profile.UpdatedAt = time.Now()
		if profile.AnnualIncome.IsZero() {
			profile.AnnualIncome = in.Salary
		}
		if err := store.SaveProfile(cmd.Context(), &profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		common.LogInfo("contribution updated", common.Fields{"percent": result.Plan.CurrentPercent.String()})
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved 401(k) contribution of "+common.FormatPercent(result.Plan.CurrentPercent)))
		fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatPlan(result.Plan.Rounded()))
		return nil
	})
}

// tuiOptions applies tui.* settings and the current terminal size.
func tuiOptions() []tui.Option {
	opts := []tui.Option{tui.WithTheme(themes.GetTheme(viper.GetString(config.KeyTUITheme)))}
	if step, err := decimal.NewFromString(viper.GetString(config.KeyTUIStep)); err == nil {
		opts = append(opts, tui.WithStep(step))
	}
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		opts = append(opts, tui.WithSize(width, height))
	}
	return opts
}

// optimizeInput rebuilds the optimizer input the analysis used, so the
// what-if view starts from the same numbers.
func optimizeInput(run *analysisRun) (engine.OptimizeInput, error) {
	proj := run.analysis.Projection
	if proj == nil {
		return engine.OptimizeInput{}, common.NewUserError("Nothing to optimize. Import a paycheck or set your income first", nil)
	}
	if !run.profile.MatchCapPercent.IsPositive() {
		return engine.OptimizeInput{}, common.NewUserError(errNoMatch, nil)
	}

	limit, err := run.catalog.ElectiveDeferralLimit(proj.Year, run.profile.Age)
	if err != nil {
		return engine.OptimizeInput{}, engineError(err)
	}

	salary := run.profile.AnnualIncome
	if !salary.IsPositive() {
		salary = proj.AnnualGross
	}

	in := engine.OptimizeInput{
		Salary:              salary,
		MatchRatePercent:    run.profile.MatchRatePercent,
		MatchCapPercent:     run.profile.MatchCapPercent,
		MarginalRatePercent: proj.MarginalRate.Mul(decimal.NewFromInt(100)),
		AnnualLimit:         limit,
		PeriodsPerYear:      proj.PeriodsPerYear,
	}
	if run.analysis.Plan != nil {
		in.CurrentPercent = run.analysis.Plan.CurrentPercent
	} else {
		in.CurrentPercent = run.profile.Current401kPercent
	}
	return in, nil
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full tax analysis",
		Long: `Run every analysis over the stored profile and latest paycheck: annual
projection, withholding check, 401(k) plan, opportunity cost and ranked
recommendations. Each run is recorded in the analysis history.

Examples:
  taxintel analyze
  taxintel analyze --format json > analysis.json
  taxintel analyze --pdf ~/tax-2026.pdf
  taxintel analyze --sheets`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().String("pdf", "", "Also write a PDF report to this path")
	cmd.Flags().Bool("sheets", false, "Also export the report to Google Sheets")
	cmd.Flags().Bool("no-save", false, "Do not record this run in the history")
	cmd.Flags().Int("year", 0, "Tax year for paychecks without one (default: tax.year)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	noSave, _ := cmd.Flags().GetBool("no-save")

	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return common.NewUserError(fmt.Sprintf("Unknown format %q. Use text or json", format), nil)
	}

	return withStoredAnalysis(cmd, func(store service.Storage, run *analysisRun) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		a := run.analysis

		if format == "json" {
			if err := report.WriteJSON(out, a); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, report.NewCLIFormatter().FormatAnalysis(a))
		}

		if !noSave && a.Projection != nil {
			snapshotID := ""
			if run.snapshot != nil {
				snapshotID = run.snapshot.ID
			}
			record, err := storage.NewAnalysisRecord(a, snapshotID)
			if err != nil {
				return err
			}
			if err := store.SaveAnalysis(ctx, record); err != nil {
				return fmt.Errorf("failed to save analysis: %w", err)
			}
			common.LogDebug("analysis recorded", common.Fields{"id": record.ID})
		}

		if pdfPath == "" && !toSheets {
			return nil
		}

		rep := report.New(a, time.Now())
		records, err := store.ListAnalyses(ctx, 10)
		if err != nil {
			return fmt.Errorf("failed to load analysis history: %w", err)
		}
		rep.History = report.HistoryFromRecords(records)

		if pdfPath != "" {
			path := config.ExpandPath(pdfPath)
			if err := report.WritePDF(path, rep); err != nil {
				return common.NewUserError("Could not write PDF report", err)
			}
			fmt.Fprintln(out, cli.FormatSuccess("PDF report written to "+path))
		}

		if toSheets {
			if err := exportToSheets(cmd, rep); err != nil {
				return err
			}
		}
		return nil
	})
}

// newReportWriter opens the spreadsheet export. Tests swap it for a mock.
var newReportWriter = func(ctx context.Context, cfg sheets.Config) (sheets.ReportWriter, error) {
	return sheets.NewWriter(ctx, cfg, slog.Default())
}

func exportToSheets(cmd *cobra.Command, rep report.Report) error {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets is not configured. Run: taxintel sheets auth", err)
	}

	writer, err := newReportWriter(cmd.Context(), *cfg)
	if err != nil {
		return common.NewUserError("Could not connect to Google Sheets", err)
	}

	if err := writer.Write(cmd.Context(), rep); err != nil {
		common.LogError(err, "sheets export failed", common.Fields{"spreadsheet": firstNonEmpty(cfg.SpreadsheetID, cfg.SpreadsheetName)})
		return common.NewUserError("Google Sheets export failed", err)
	}

	msg := "Exported to Google Sheets"
	if w, ok := writer.(interface{ SpreadsheetID() string }); ok && w.SpreadsheetID() != "" {
		msg += ": https://docs.google.com/spreadsheets/d/" + w.SpreadsheetID()
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStore(store)

			records, err := store.ListAnalyses(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to load analysis history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatHistory(records))
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "Maximum runs to show (0 for all)")
	return cmd
}
