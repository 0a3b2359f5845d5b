package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/extractor"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/plaid"
	"github.com/Veraticus/spice-ledger/internal/reconcile"
	"github.com/Veraticus/spice-ledger/internal/review"
)

func securitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "securities",
		Short: "Inspect and sync security master data",
	}

	cmd.AddCommand(listSecuritiesCmd())
	cmd.AddCommand(showSecurityCmd())
	cmd.AddCommand(syncSecuritiesCmd())

	return cmd
}

func listSecuritiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List securities in the ledger",
		Long:  `List securities in the ledger. Values marked with * were taken from an online source.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			securities, err := store.GetSecurities(ctx)
			if err != nil {
				return fmt.Errorf("failed to get securities: %w", err)
			}
			if len(securities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No securities yet. Import a brokerage statement first."))
				return nil
			}

			return cli.RenderSecurities(cmd.OutOrStdout(), securities)
		},
	}
}

func showSecurityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one security with the online state of each property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sec, err := store.GetSecurity(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("No security with id %s", args[0]), err)
			}
			if err != nil {
				return fmt.Errorf("failed to get security: %w", err)
			}

			return cli.RenderSecurity(cmd.OutOrStdout(), sec)
		},
	}
}

func syncSecuritiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Update security names, tickers, and ISINs from an online source",
		Long: `Look up every security in the ledger and take over suggested values.

Blank properties adopt the suggestion. Properties you edited yourself are
kept. Use --skip to refuse a suggestion for a property and --dry-run to only
show what would change.`,
		RunE: runSyncSecurities,
	}

	cmd.Flags().StringSlice("from-statement", nil, "statement files whose security lists serve as the source")
	cmd.Flags().Bool("plaid", false, "use Plaid investment holdings as the source")
	cmd.Flags().StringSlice("skip", nil, "properties to leave untouched (name, ticker, isin)")
	cmd.Flags().Bool("dry-run", false, "show changes without saving")

	return cmd
}

func runSyncSecurities(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	statements, _ := cmd.Flags().GetStringSlice("from-statement")
	usePlaid, _ := cmd.Flags().GetBool("plaid")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	skipped, err := parseProperties(skip)
	if err != nil {
		return common.NewUserError("Invalid --skip value", err)
	}

	var sources reconcile.MultiSource
	if len(statements) > 0 {
		src, err := statementSource(cmd, statements)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	if usePlaid {
		cfg, err := config.LoadPlaidConfig()
		if err != nil {
			return common.NewUserError("Plaid is not configured", err)
		}
		client, err := plaid.NewClient(cfg)
		if err != nil {
			return err
		}
		sources = append(sources, plaid.NewSource(client))
	}
	if len(sources) == 0 {
		return common.NewUserError("Choose a source with --from-statement or --plaid", nil)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	syncer := reconcile.NewSyncer(store, sources)
	proposals, err := syncer.Plan(ctx)
	if err != nil {
		return err
	}

	for i := range proposals {
		for _, property := range skipped {
			if f := proposals[i].Field(property); f != nil {
				f.SetModified(false)
			}
		}
	}

	pending := 0
	for i := range proposals {
		if proposals[i].Modified() {
			pending++
		}
	}
	if pending == 0 {
		fmt.Fprintln(out, cli.FormatSuccess("Securities are up to date"))
		return nil
	}

	if err := cli.RenderProposals(out, proposals); err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d securities would change (dry run)", pending)))
		return nil
	}

	updated, err := syncer.Apply(ctx, proposals)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %d securities", updated)))
	return nil
}

// statementSource extracts the given statements without touching the ledger.
func statementSource(cmd *cobra.Command, paths []string) (*reconcile.StatementSource, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadImportConfig()
	if err != nil {
		return nil, err
	}
	docs, err := collectDocuments(paths)
	if err != nil {
		return nil, common.NewUserError("Could not read the statement files", err)
	}

	plan, err := extractor.NewPlanner(extractor.Defaults(cfg.ExtractorOptions())).Assign(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to match statements to extractors: %w", err)
	}
	sessions := review.NewSessions(plan)
	if err := review.LoadAll(ctx, sessions, cfg.Workers); err != nil {
		return nil, err
	}

	var items []model.Item
	for _, s := range sessions {
		for _, err := range s.Errors() {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(err.Error()))
		}
		for _, e := range s.Entries() {
			items = append(items, e.Item)
		}
	}
	return reconcile.NewStatementSource(items), nil
}

func parseProperties(names []string) ([]model.SecurityProperty, error) {
	properties := make([]model.SecurityProperty, 0, len(names))
	for _, name := range names {
		p := model.SecurityProperty(strings.ToLower(strings.TrimSpace(name)))
		switch p {
		case model.PropertyName, model.PropertyTicker, model.PropertyISIN:
			properties = append(properties, p)
		default:
			return nil, fmt.Errorf("unknown property %q", name)
		}
	}
	return properties, nil
}
