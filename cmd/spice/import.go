package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/consistency"
	"github.com/Veraticus/spice-ledger/internal/extractor"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/review"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|dir>...",
		Short: "Import statement files into the ledger",
		Long: `Import bank, card, and brokerage statements.

Each file is matched to an extractor (OFX/QFX, XLSX spreadsheets, or
institution-specific OFX extractors from the config). Files nobody claims are
handed to a catch-all that tries every extractor. Extracted entries are shown
for review before anything is written; entries already in the ledger are
rejected automatically.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("extractor", "", "use only this extractor for every file")
	cmd.Flags().BoolP("yes", "y", false, "accept all entries without review")
	cmd.Flags().Bool("convert-to-delivery", false, "book buys and sells as deliveries without cash")
	cmd.Flags().Int("workers", 0, "documents extracted in parallel (default: import.workers or 4)")

	_ = viper.BindPFlag("import.convert_to_delivery", cmd.Flags().Lookup("convert-to-delivery"))
	_ = viper.BindPFlag("import.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.LoadImportConfig()
	if err != nil {
		return err
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return common.NewUserError("Could not read the statement files", err)
	}
	if len(docs) == 0 {
		return common.NewUserError("No statement files found", common.ErrNoDocuments)
	}

	extractors := extractor.Defaults(cfg.ExtractorOptions())
	if name, _ := cmd.Flags().GetString("extractor"); name != "" {
		e, err := extractor.Lookup(extractors, name)
		if err != nil {
			return common.NewUserError("Unknown extractor", err)
		}
		extractors = []extractor.Extractor{e}
	}

	plan, err := extractor.NewPlanner(extractors).Assign(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to match statements to extractors: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	total := 0
	for _, a := range plan.Assignments() {
		total += len(a.Documents)
	}
	progress := cli.NewProgress(cmd.ErrOrStderr(), total)

	sessions := review.NewSessions(plan,
		review.WithLedger(store),
		review.WithProgress(progress.Document),
		review.WithConvertBuySellToDelivery(cfg.ConvertToDelivery))

	if err := review.LoadAll(ctx, sessions, cfg.Workers); err != nil {
		return err
	}
	progress.Finish()

	var reviewer review.Reviewer = cli.NewPrompter(cmd.InOrStdin(), out)
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		reviewer = review.AcceptAll{}
	}
	if err := reviewer.Review(ctx, sessions); err != nil {
		if errors.Is(err, cli.ErrReviewAborted) {
			return common.NewUserError("Import aborted, nothing was written", err)
		}
		return err
	}

	checker := consistency.NewChecker(store)
	scheduler := consistency.NewScheduler(checker, consistency.WithReportHandler(func(r *consistency.Report) {
		if !r.OK() {
			_ = cli.RenderReport(cmd.ErrOrStderr(), r)
		}
	}))
	coordinator := importer.NewCoordinator(store, scheduler)

	handler := interruptHandler(ctx)
	handler.SetCommitting(true)
	changed, err := coordinator.Apply(ctx, sessions)
	handler.SetCommitting(false)
	scheduler.Wait()

	printImportSummary(cmd, sessions, changed)
	common.LogInfo("Import finished", common.Fields{
		"documents": progress.Count(),
		"sessions":  len(sessions),
		"changed":   changed,
	})

	var commitErr *importer.CommitError
	if errors.As(err, &commitErr) {
		common.LogError(err, "Import stopped", common.Fields{
			"source":  commitErr.Source,
			"applied": commitErr.Applied,
		})
		return common.NewUserError(
			fmt.Sprintf("Import stopped at %s; %d entries were written", commitErr.Entry.Item.Label(), commitErr.Applied),
			err)
	}
	return err
}

func printImportSummary(cmd *cobra.Command, sessions []*review.Session, changed bool) {
	var committed, rejected, failedDocs int
	for _, s := range sessions {
		for _, e := range s.Entries() {
			switch {
			case e.Committed():
				committed++
			case !e.Accepted():
				rejected++
			}
		}
		failedDocs += len(s.Errors())
	}

	out := cmd.OutOrStdout()
	if changed {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d entries", committed)))
	} else {
		fmt.Fprintln(out, cli.FormatInfo("Nothing new to import"))
	}
	if rejected > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d entries skipped", rejected)))
	}
	if failedDocs > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d documents could not be read", failedDocs)))
	}
}
