package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/spice-ledger/internal/consistency"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/reconcile"
	"github.com/Veraticus/spice-ledger/internal/review"
)

// RenderSession renders one review session as a numbered entry list. Entries
// in repeats are flagged with the reason they will be skipped.
func RenderSession(s *review.Session, n, total int, repeats map[*review.Entry]string) string {
	var b strings.Builder

	names := make([]string, 0, len(s.Documents()))
	for _, doc := range s.Documents() {
		names = append(names, doc.Name())
	}
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Documents:"), strings.Join(names, ", "))

	conversion := "off"
	if s.ConvertBuySellToDelivery() {
		conversion = "on"
	}
	fmt.Fprintf(&b, "%s %s\n\n", BoldStyle.Render("Buy/sell as delivery:"), conversion)

	if len(s.Entries()) == 0 {
		b.WriteString(SubtleStyle.Render("No entries extracted."))
		b.WriteString("\n")
	}
	for i, entry := range s.Entries() {
		b.WriteString(renderEntry(i+1, entry, len(s.Documents()) > 1, repeats[entry]))
		b.WriteString("\n")
	}

	if errs := s.Errors(); len(errs) > 0 {
		b.WriteString("\n")
		for _, err := range errs {
			b.WriteString(FormatError(err.Error()))
			b.WriteString("\n")
		}
	}

	title := fmt.Sprintf("%s (%d/%d)", s.Extractor().Name(), n, total)
	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}

func renderEntry(n int, entry *review.Entry, showDocument bool, repeat string) string {
	mark := SuccessStyle.Render(AcceptedMark)
	if !entry.Accepted() {
		mark = WarningStyle.Render(RejectedMark)
	}

	line := fmt.Sprintf("%3d. %s %s", n, mark, entry.Item.Label())
	if note := entry.Item.Note; note != "" {
		line += " " + SubtleStyle.Render(note)
	}
	if showDocument {
		line += " " + SubtleStyle.Render("("+entry.Document.Name()+")")
	}
	switch {
	case entry.Committed():
		line += " " + SuccessStyle.Render("committed")
	case entry.Reason() != "":
		line += " " + WarningStyle.Render(entry.Reason())
	case repeat != "":
		line += " " + WarningStyle.Render("skipped: "+repeat)
	}
	return line
}

// RenderSecurities writes a securities table.
func RenderSecurities(w io.Writer, securities []model.Security) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Name"),
		HeaderStyle.Render("Ticker"),
		HeaderStyle.Render("ISIN"),
		HeaderStyle.Render("Currency"))
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 30),
		strings.Repeat("-", 8),
		strings.Repeat("-", 12),
		strings.Repeat("-", 8))

	for i := range securities {
		sec := &securities[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			SubtleStyle.Render(sec.ID),
			stateValue(sec, model.PropertyName),
			stateValue(sec, model.PropertyTicker),
			stateValue(sec, model.PropertyISIN),
			sec.Currency)
	}
	return tw.Flush()
}

// RenderSecurity writes the master data of one security with the online state
// of each property.
func RenderSecurity(w io.Writer, sec *model.Security) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\n", BoldStyle.Render("ID"), sec.ID)
	for _, property := range model.SecurityProperties {
		value := sec.Value(property)
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			BoldStyle.Render(string(property)),
			value,
			SubtleStyle.Render(string(sec.State(property))))
	}
	fmt.Fprintf(tw, "%s\t%s\n", BoldStyle.Render("currency"), sec.Currency)
	return tw.Flush()
}

// RenderTransactions writes a booking table. Security ids are shown by the
// name found in names, if any.
func RenderTransactions(w io.Writer, txns []model.Transaction, names map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Date"),
		HeaderStyle.Render("Type"),
		HeaderStyle.Render("Account"),
		HeaderStyle.Render("Security"),
		HeaderStyle.Render("Shares"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Note"))

	for i := range txns {
		txn := &txns[i]
		security := names[txn.SecurityID]
		if security == "" {
			security = txn.SecurityID
		}
		shares := ""
		if !txn.Shares.IsZero() {
			shares = txn.Shares.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s\t%s\n",
			txn.Date.Format("2006-01-02"),
			txn.Type,
			txn.AccountID,
			security,
			shares,
			txn.Amount.StringFixed(2),
			txn.Currency,
			SubtleStyle.Render(txn.Note))
	}
	return tw.Flush()
}

func stateValue(sec *model.Security, property model.SecurityProperty) string {
	value := sec.Value(property)
	if value == "" {
		value = "-"
	}
	if sec.State(property) == model.StateSynced {
		return value + SubtleStyle.Render("*")
	}
	return value
}

// RenderProposals writes the property changes of every modified proposal.
func RenderProposals(w io.Writer, proposals []reconcile.Proposal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Security"),
		HeaderStyle.Render("Property"),
		HeaderStyle.Render("Current"),
		HeaderStyle.Render("Suggested"))

	for i := range proposals {
		p := &proposals[i]
		if !p.Modified() {
			continue
		}
		for _, pf := range p.Fields {
			if !pf.Field.Modified {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				p.Security.DisplayName(),
				pf.Property,
				orDash(pf.Field.Original),
				SuccessStyle.Render(pf.Field.Suggested))
		}
	}
	return tw.Flush()
}

// RenderReport writes a consistency report.
func RenderReport(w io.Writer, report *consistency.Report) error {
	if report.OK() {
		_, err := fmt.Fprintln(w, FormatSuccess("Ledger is consistent"))
		return err
	}

	if _, err := fmt.Fprintln(w, FormatWarning(fmt.Sprintf("%d issue(s) found", len(report.Issues)))); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, issue := range report.Issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", WarningStyle.Render(string(issue.Kind)), issue.Subject, issue.Detail)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
