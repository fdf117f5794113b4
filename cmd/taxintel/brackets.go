package main

import (
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/Veraticus/charge-tax-intel/internal/taxtable"
	"github.com/spf13/cobra"
)

func bracketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Show the federal bracket schedule",
		Long: `Show the federal income tax brackets and standard deduction for a
tax year and filing status.`,
		Args: cobra.NoArgs,
		RunE: runBrackets,
	}

	cmd.Flags().Int("year", 0, "Tax year (default: tax.year)")
	cmd.Flags().String("status", string(model.FilingSingle), "Filing status (single, married_joint, married_separate, head_of_household)")

	return cmd
}

func runBrackets(cmd *cobra.Command, _ []string) error {
	year, status, err := periodFlags(cmd)
	if err != nil {
		return err
	}

	catalog, err := initCatalog()
	if err != nil {
		return err
	}
	if err := supportedYear(catalog, year); err != nil {
		return err
	}

	table, err := catalog.BracketsFor(year, status)
	if err != nil {
		return engineError(err)
	}
	deduction, err := catalog.StandardDeductionFor(year, status)
	if err != nil {
		return engineError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatBrackets(table, deduction))
	return nil
}

func taxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tax <taxable-income>",
		Short: "Compute federal income tax on a taxable income",
		Long: `Compute the federal income tax owed on a taxable income, bracket by
bracket. Amounts may include "$" and thousands separators.`,
		Example: `  taxintel tax 89500
  taxintel tax '$150,000' --status married_joint --year 2025`,
		Args: cobra.ExactArgs(1),
		RunE: runTax,
	}

	cmd.Flags().Int("year", 0, "Tax year (default: tax.year)")
	cmd.Flags().String("status", string(model.FilingSingle), "Filing status")

	return cmd
}

func runTax(cmd *cobra.Command, args []string) error {
	income, err := cli.ParseAmount(args[0])
	if err != nil {
		return common.NewUserError("Taxable income must be a non-negative amount", err)
	}

	year, status, err := periodFlags(cmd)
	if err != nil {
		return err
	}

	catalog, err := initCatalog()
	if err != nil {
		return err
	}
	if err := supportedYear(catalog, year); err != nil {
		return err
	}

	table, err := catalog.BracketsFor(year, status)
	if err != nil {
		return engineError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatTax(income, table))
	return nil
}

func periodFlags(cmd *cobra.Command) (int, model.FilingStatus, error) {
	year, _ := cmd.Flags().GetInt("year")
	rawStatus, _ := cmd.Flags().GetString("status")

	status, err := model.ParseFilingStatus(rawStatus)
	if err != nil {
		return 0, "", common.NewUserError("Unknown filing status", err)
	}
	return resolveYear(year), status, nil
}

// supportedYear rejects years the catalog has no tables for, naming the
// range it does cover.
func supportedYear(catalog *taxtable.Catalog, year int) error {
	if catalog.Supports(year) {
		return nil
	}
	years := catalog.Years()
	if len(years) == 0 {
		return common.NewUserError("No tax tables loaded", nil)
	}
	return common.NewUserError(fmt.Sprintf("No tax tables for %d. Tables cover %d through %d", year, years[0], catalog.Latest()), nil)
}
