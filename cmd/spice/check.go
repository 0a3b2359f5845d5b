package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/consistency"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the ledger for inconsistencies",
		Long: `Look for holdings that went negative, bookings that reference unknown
securities, and (unless --quick) cash accounts with a negative balance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			quick, _ := cmd.Flags().GetBool("quick")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			dirty, err := store.IsDirty(ctx)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Ledger changed since the last check"))
			}

			report, err := consistency.NewChecker(store).Run(ctx, !quick)
			if err != nil {
				return fmt.Errorf("consistency check failed: %w", err)
			}
			return cli.RenderReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().Bool("quick", false, "skip the cash balance checks")

	return cmd
}
