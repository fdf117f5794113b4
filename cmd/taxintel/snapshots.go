package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/report"
	"github.com/Veraticus/charge-tax-intel/internal/service"
	"github.com/Veraticus/charge-tax-intel/internal/storage"
	"github.com/spf13/cobra"
)

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"paychecks"},
		Short:   "List or remove imported paychecks",
	}

	cmd.AddCommand(snapshotsListCmd())
	cmd.AddCommand(snapshotsDeleteCmd())

	return cmd
}

func snapshotsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported paychecks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, _ := cmd.Flags().GetInt("year")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStore(store)

			snapshots, err := store.ListSnapshots(cmd.Context(), service.SnapshotFilter{TaxYear: year, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list paychecks: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.NewCLIFormatter().FormatSnapshots(snapshots))
			return nil
		},
	}

	cmd.Flags().Int("year", 0, "Only paychecks for this tax year")
	cmd.Flags().Int("limit", 20, "Maximum paychecks to show (0 for all)")

	return cmd
}

func snapshotsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an imported paycheck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStore(store)

			err = store.DeleteSnapshot(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return common.NewUserError("No paycheck with ID "+args[0], err)
			}
			if err != nil {
				return fmt.Errorf("failed to delete paycheck: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted paycheck "+args[0]))
			return nil
		},
	}
}
