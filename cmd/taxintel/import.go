package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/extraction"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/Veraticus/charge-tax-intel/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import paychecks from extractor JSON files",
		Long: `Import paycheck data produced by a document extractor. Each file holds
one paystub as JSON; prose around the JSON object is ignored.

Paystubs without a positive gross pay, with negative amounts or with
unrecognized pay frequencies or filing statuses are rejected. The same
paystub is never imported twice.

Examples:
  # Import a single paystub
  taxintel import ~/Downloads/paystub-2026-01-15.json

  # Import every paystub in a directory
  taxintel import ~/Downloads/paystubs/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Validate files without saving")
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")

	return cmd
}

// importSummary tallies an import run.
type importSummary struct {
	rejected   map[string]string
	imported   []model.PaycheckSnapshot
	duplicates []string
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	common.LogInfo("importing paychecks", common.Fields{"file_count": len(files), "dry_run": dryRun})

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Nothing from this run was saved.")
	defer stop()

	var store service.Storage
	if !dryRun {
		store, err = initStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer closeStore(store)
	}

	progressOut := io.Discard
	if !noProgress {
		progressOut = cmd.ErrOrStderr()
	}
	bar := newImportProgress(len(files), progressOut)

	summary, err := importFiles(ctx, store, files, bar)
	if err != nil {
		if handler.WasInterrupted() {
			return common.NewUserError("Import interrupted", err)
		}
		return err
	}

	printImportSummary(out, summary, dryRun)
	if len(summary.imported) == 0 && len(summary.rejected) > 0 {
		return common.NewUserError("No paychecks imported", fmt.Errorf("%d file(s) rejected", len(summary.rejected)))
	}
	return nil
}

func newImportProgress(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing paychecks...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// importFiles parses every file and saves accepted snapshots in a single
// transaction. A nil store validates only.
func importFiles(ctx context.Context, store service.Storage, files []string, bar *progressbar.ProgressBar) (importSummary, error) {
	summary := importSummary{rejected: make(map[string]string)}

	var tx service.Transaction
	if store != nil {
		var err error
		tx, err = store.BeginTx(ctx)
		if err != nil {
			return summary, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			if tx != nil {
				_ = tx.Rollback()
			}
		}()
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := extraction.ParseFile(file)
		if err != nil {
			return summary, common.NewUserError("Could not read "+file, err)
		}
		if !result.Accepted() {
			common.LogWarn("paystub rejected", common.Fields{"file": file, "reason": result.Reason})
			summary.rejected[file] = result.Reason
			_ = bar.Add(1)
			continue
		}

		snapshot := result.Snapshot
		if tx != nil {
			err := tx.SaveSnapshot(ctx, &snapshot)
			if errors.Is(err, storage.ErrDuplicateSnapshot) {
				common.LogDebug("skipping duplicate paystub", common.Fields{"file": file})
				summary.duplicates = append(summary.duplicates, file)
				_ = bar.Add(1)
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("failed to save %s: %w", file, err)
			}
		}
		if len(result.Missing) > 0 {
			common.LogInfo("paystub missing fields", common.Fields{"file": file, "missing": strings.Join(result.Missing, ",")})
		}
		summary.imported = append(summary.imported, snapshot)
		_ = bar.Add(1)
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return summary, fmt.Errorf("failed to commit import: %w", err)
		}
		tx = nil
	}
	return summary, nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				common.LogWarn("no files found matching pattern", common.Fields{"pattern": pattern})
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, common.NewUserError("No files found to import", nil)
	}
	return files, nil
}

func printImportSummary(w io.Writer, s importSummary, dryRun bool) {
	verb := "Imported"
	if dryRun {
		verb = "Validated"
	}
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("%s %d paycheck(s)", verb, len(s.imported))))

	if len(s.imported) > 0 {
		fmt.Fprintln(w, report.NewCLIFormatter().FormatSnapshots(s.imported))
	}
	if len(s.duplicates) > 0 {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Skipped %d already imported: %s", len(s.duplicates), strings.Join(s.duplicates, ", "))))
	}
	for file, reason := range s.rejected {
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("Rejected %s: %s", filepath.Base(file), reason)))
	}
	if dryRun {
		fmt.Fprintln(w, cli.FormatInfo("Dry run: nothing was saved"))
	}
}
