package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Inspect booked transactions",
	}

	cmd.AddCommand(listTransactionsCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions in the ledger",
		RunE:  runListTransactions,
	}

	cmd.Flags().String("from", "", "first booking date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last booking date (YYYY-MM-DD)")
	cmd.Flags().String("account", "", "only bookings of this account")
	cmd.Flags().String("security", "", "only bookings of this security id")
	cmd.Flags().Int("limit", 0, "show at most this many bookings")

	return cmd
}

func runListTransactions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := transactionFilter(cmd)
	if err != nil {
		return common.NewUserError("Invalid filter", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txns, err := store.GetTransactions(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}
	if len(txns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No transactions found"))
		return nil
	}

	securities, err := store.GetSecurities(ctx)
	if err != nil {
		return fmt.Errorf("failed to get securities: %w", err)
	}
	names := make(map[string]string, len(securities))
	for i := range securities {
		names[securities[i].ID] = securities[i].DisplayName()
	}

	return cli.RenderTransactions(cmd.OutOrStdout(), txns, names)
}

func transactionFilter(cmd *cobra.Command) (service.TransactionFilter, error) {
	var filter service.TransactionFilter

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	filter.AccountID, _ = cmd.Flags().GetString("account")
	filter.SecurityID, _ = cmd.Flags().GetString("security")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	if from != "" {
		start, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return filter, fmt.Errorf("--from: %w", err)
		}
		filter.StartDate = &start
	}
	if to != "" {
		end, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return filter, fmt.Errorf("--to: %w", err)
		}
		// include bookings later on the last day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, fmt.Errorf("--to %s is before --from %s", to, from)
	}

	return filter, nil
}
