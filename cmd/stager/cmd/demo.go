package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/stager/config"
	"github.com/rustyeddy/stager/internal/metrics"
	"github.com/rustyeddy/stager/journal"
	"github.com/rustyeddy/stager/ledger"
	"github.com/rustyeddy/stager/risk"
	"github.com/rustyeddy/stager/stage"
	"github.com/rustyeddy/stager/strategy"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk a candidate through the full staging lifecycle",
	Long: `Stage a candidate against an in-memory ledger and walk it through
approve, submit and fill, printing the order table after each step.

Without -c a built-in iron condor is used. With a journal configured, the
audit trail and fills are recorded as they would be in production. With
--metrics-addr the process keeps serving /metrics after the lifecycle so the
counters can be scraped.

Examples:
  stager demo -f stager.yaml
  stager demo -f stager.yaml -c candidate.json -p portfolio.json
  stager demo -f stager.yaml --metrics-addr :9090`,
	RunE: runDemo,
}

var (
	demoConfigPath    string
	demoCandidatePath string
	demoPortfolioPath string
	demoMetricsAddr   string
)

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVarP(&demoConfigPath, "config", "f", "", "path to config file (required)")
	demoCmd.Flags().StringVarP(&demoCandidatePath, "candidate", "c", "", "path to candidate JSON")
	demoCmd.Flags().StringVarP(&demoPortfolioPath, "portfolio", "p", "", "path to portfolio snapshot JSON")
	demoCmd.Flags().StringVar(&demoMetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	demoCmd.MarkFlagRequired("config")
}

func demoCandidate() strategy.Candidate {
	return strategy.Candidate{
		ID:        "demo-condor",
		Symbol:    "SPY",
		Archetype: strategy.IronCondor,
		Legs: []strategy.Leg{
			{Side: strategy.Sell, Instrument: strategy.Put, Strike: 440, Quantity: 1},
			{Side: strategy.Buy, Instrument: strategy.Put, Strike: 435, Quantity: 1},
			{Side: strategy.Sell, Instrument: strategy.Call, Strike: 460, Quantity: 1},
			{Side: strategy.Buy, Instrument: strategy.Call, Strike: 465, Quantity: 1},
		},
		DeclaredMaxRisk: 290,
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadFromFile(demoConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cand := demoCandidate()
	if demoCandidatePath != "" {
		if cand, err = loadCandidate(demoCandidatePath); err != nil {
			return err
		}
	}

	p := risk.Portfolio{}
	if demoPortfolioPath != "" {
		if p, err = loadPortfolio(demoPortfolioPath); err != nil {
			return err
		}
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	if demoMetricsAddr != "" {
		go func() {
			if err := metrics.Serve(demoMetricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	ctrl := stage.New(ledger.NewMemory(), cfg.Limits(), risk.NewDayLoss(), j)

	fmt.Println("=== Staging ===")
	sid, err := ctrl.StageStrategy(ctx, cand, p)
	if err != nil {
		return err
	}
	fmt.Printf("Staged strategy %s\n", sid)
	if err := renderStrategy(ctx, ctrl, sid); err != nil {
		return err
	}

	fmt.Println("=== Approving ===")
	if err := ctrl.ApproveStrategy(ctx, sid, cfg.Actor); err != nil {
		return err
	}
	if err := renderStrategy(ctx, ctrl, sid); err != nil {
		return err
	}

	fmt.Println("=== Submitting and filling ===")
	views, err := ctrl.ListActive(ctx, ledger.Filter{})
	if err != nil {
		return err
	}
	for _, v := range views {
		if v.Strategy.ID != sid {
			continue
		}
		for i, o := range v.Orders {
			ref := fmt.Sprintf("BRK-%04d", i+1)
			if err := ctrl.MarkSubmitted(ctx, o.ID, ref); err != nil {
				return err
			}
			if err := ctrl.MarkFilled(ctx, o.ID, 1.45, o.Leg.Quantity); err != nil {
				return err
			}
		}
	}

	fmt.Println("All orders filled; strategy moved to history.")
	if err := renderStrategy(ctx, ctrl, sid); err != nil {
		return err
	}

	if demoMetricsAddr != "" {
		fmt.Printf("Serving /metrics on %s; interrupt to exit.\n", demoMetricsAddr)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}
	return nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.AuditFile, cfg.Journal.FillsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return nil, nil
}

func renderStrategy(ctx context.Context, ctrl *stage.Controller, sid string) error {
	agg, err := ctrl.StrategyStatus(ctx, sid)
	if err != nil {
		return err
	}

	views, err := ctrl.ListActive(ctx, ledger.Filter{})
	if err != nil {
		return err
	}
	hist, err := ctrl.ListHistory(ctx, ledger.Filter{})
	if err != nil {
		return err
	}

	var target *stage.View
	for i := range views {
		if views[i].Strategy.ID == sid {
			target = &views[i]
		}
	}
	for i := range hist {
		if hist[i].Strategy.ID == sid {
			target = &hist[i]
		}
	}
	if target == nil {
		return fmt.Errorf("strategy %s not found", sid)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Order", "Leg", "Strike", "Qty", "Status", "Filled"})
	for _, o := range target.Orders {
		filled := "-"
		if o.FilledPrice != nil {
			filled = fmt.Sprintf("%d @ %.2f", o.FilledQuantity, *o.FilledPrice)
		}
		t.AppendRow(table.Row{
			o.ID,
			fmt.Sprintf("%s %s", o.Leg.Side, o.Leg.Instrument),
			fmt.Sprintf("%.0f", o.Leg.Strike),
			o.Leg.Quantity,
			o.Status.String(),
			filled,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "aggregate", agg.String()})
	t.Render()
	fmt.Println()
	return nil
}
