package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/stager/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the audit journal",
	Long: `Query and display audit-trail records from a SQLite journal.

Subcommands:
  audit  - Show the audit trail for a strategy
  fills  - List fills for a day

Examples:
  stager journal audit <strategy-id> --db stager.db
  stager journal fills 2026-04-01 --db stager.db`,
}

var journalAuditCmd = &cobra.Command{
	Use:   "audit <strategy-id>",
	Short: "Show the audit trail for a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalAudit,
}

var journalFillsCmd = &cobra.Command{
	Use:   "fills <yyyy-mm-dd>",
	Short: "List fills recorded on a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalFills,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAuditCmd)
	journalCmd.AddCommand(journalFillsCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "stager.db", "path to SQLite journal")
}

func runJournalAudit(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	records, err := j.ListAuditByStrategy(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No audit records for strategy %s\n", args[0])
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Order", "Event", "Actor", "Status", "Note"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Time.Format(time.RFC3339),
			r.OrderID,
			r.Event,
			r.Actor,
			r.Status,
			r.Note,
		})
	}
	t.Render()
	return nil
}

func runJournalFills(cmd *cobra.Command, args []string) error {
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("parse day: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	fills, err := j.ListFillsBetween(day, day.Add(24*time.Hour))
	if err != nil {
		return err
	}
	if len(fills) == 0 {
		fmt.Printf("No fills on %s\n", args[0])
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Order", "Strategy", "Symbol", "Price", "Qty"})
	for _, f := range fills {
		t.AppendRow(table.Row{
			f.Time.Format(time.RFC3339),
			f.OrderID,
			f.StrategyID,
			f.Symbol,
			fmt.Sprintf("%.4f", f.Price),
			f.Quantity,
		})
	}
	t.Render()
	return nil
}
