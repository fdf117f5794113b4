package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage what taxintel knows about you",
		Long: `Manage your financial profile: filing status, state, income, 401(k)
contribution, employer match formula, HSA contributions and portfolio size.

Anything you leave unset is treated as unknown and the analysis says so.`,
	}

	cmd.AddCommand(profileSetCmd())
	cmd.AddCommand(profileShowCmd())

	return cmd
}

// profileAmountFlags maps decimal flags to the profile fields they set.
var profileAmountFlags = []struct {
	field func(p *model.FinancialProfile) *decimal.Decimal
	name  string
	usage string
}{
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.AnnualIncome }, "income", "Annual salary before deductions"},
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.Current401kPercent }, "contribution", "Current 401(k) contribution, percent of salary"},
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.MatchRatePercent }, "match-rate", "Employer match, cents per dollar as a percent (50 = 50%)"},
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.MatchCapPercent }, "match-cap", "Share of salary the employer matches on, percent"},
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.HSAAnnual }, "hsa", "Annual HSA contribution"},
	{func(p *model.FinancialProfile) *decimal.Decimal { return &p.PortfolioValue }, "portfolio", "Taxable portfolio value"},
}

func profileSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		Long: `Update one or more profile fields. Only the flags you pass change;
everything else keeps its stored value. Use --interactive to be asked for
each field in turn.`,
		Example: `  taxintel profile set --status married_joint --state CO --income 120000
  taxintel profile set --contribution 3 --match-rate 50 --match-cap 6
  taxintel profile set --interactive`,
		Args: cobra.NoArgs,
		RunE: runProfileSet,
	}

	cmd.Flags().String("status", "", "Filing status (single, married_joint, married_separate, head_of_household)")
	cmd.Flags().String("state", "", "Two-letter state of residence")
	cmd.Flags().Int("age", 0, "Age at the end of the tax year")
	for _, f := range profileAmountFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolP("interactive", "i", false, "Prompt for each field")

	return cmd
}

func runProfileSet(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore(store)

	profile, err := loadProfile(ctx, store)
	if err != nil {
		return err
	}

	if err := applyProfileFlags(cmd, &profile); err != nil {
		return err
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
		promptCtx, stop := handler.HandleInterrupts(ctx, "Profile not saved.")
		err := promptProfile(promptCtx, cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), &profile)
		stop()
		if err != nil {
			return fmt.Errorf("profile prompt: %w", err)
		}
	}

	profile.UpdatedAt = time.Now().UTC()
	if err := store.SaveProfile(ctx, &profile); err != nil {
		return common.NewUserError("Could not save profile", err)
	}

	common.LogInfo("profile saved", common.Fields{"status": profile.FilingStatus, "state": profile.StateOfResidence})
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Profile saved"))
	fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatProfile(profile))
	return nil
}

func applyProfileFlags(cmd *cobra.Command, profile *model.FinancialProfile) error {
	flags := cmd.Flags()

	if flags.Changed("status") {
		raw, _ := flags.GetString("status")
		status, err := model.ParseFilingStatus(raw)
		if err != nil {
			return common.NewUserError("Unknown filing status", err)
		}
		profile.FilingStatus = status
	}
	if flags.Changed("state") {
		raw, _ := flags.GetString("state")
		state, err := parseState(raw)
		if err != nil {
			return common.NewUserError("Invalid state", err)
		}
		profile.StateOfResidence = state
	}
	if flags.Changed("age") {
		age, _ := flags.GetInt("age")
		if age < 0 {
			return common.NewUserError("Age cannot be negative", nil)
		}
		profile.Age = age
	}
	for _, f := range profileAmountFlags {
		if !flags.Changed(f.name) {
			continue
		}
		raw, _ := flags.GetString(f.name)
		amount, err := cli.ParseAmount(raw)
		if err != nil {
			return common.NewUserError("Invalid --"+f.name, err)
		}
		*f.field(profile) = amount
	}
	return nil
}

func promptProfile(ctx context.Context, p *cli.Prompter, profile *model.FinancialProfile) error {
	status, err := cli.AskChoice(ctx, p, "Filing status", string(profile.FilingStatus), parseOptionalStatus)
	if err != nil {
		return err
	}
	profile.FilingStatus = status

	state, err := cli.AskChoice(ctx, p, "State (two letters)", profile.StateOfResidence, parseState)
	if err != nil {
		return err
	}
	profile.StateOfResidence = state

	if profile.Age, err = p.AskInt(ctx, "Age", profile.Age); err != nil {
		return err
	}

	questions := []struct {
		dst   *decimal.Decimal
		label string
	}{
		{&profile.AnnualIncome, "Annual salary"},
		{&profile.Current401kPercent, "401(k) contribution %"},
		{&profile.MatchRatePercent, "Employer match rate %"},
		{&profile.MatchCapPercent, "Employer match cap % of salary"},
		{&profile.HSAAnnual, "HSA contribution per year"},
		{&profile.PortfolioValue, "Taxable portfolio value"},
	}
	for _, q := range questions {
		if *q.dst, err = p.AskDecimal(ctx, q.label, *q.dst); err != nil {
			return err
		}
	}
	return nil
}

func parseOptionalStatus(raw string) (model.FilingStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return model.ParseFilingStatus(raw)
}

// parseState accepts a two-letter code or an empty answer.
func parseState(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", nil
	}
	if len(code) != 2 || strings.Trim(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return "", fmt.Errorf("%s is not a two-letter state code", strconv.Quote(raw))
	}
	return code, nil
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStore(store)

			profile, err := loadProfile(ctx, store)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatProfile(profile))
			return nil
		},
	}
}
