package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/stager/config"
	"github.com/rustyeddy/stager/ledger"
	"github.com/rustyeddy/stager/risk"
	"github.com/rustyeddy/stager/stage"
	"github.com/rustyeddy/stager/strategy"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <candidate.json> [more.json ...]",
	Short: "Stage candidate files and list the resulting book",
	Long: `Run each candidate file through validation and risk gating, stage the
ones that pass, and render the resulting staging book. Candidates that fail
either gate are reported and skipped.

The book can be narrowed with --symbol, --archetype and --status.

Examples:
  stager list -f stager.yaml candidates/*.json
  stager list -f stager.yaml candidates/*.json --symbol SPY --status staged`,
	Args: cobra.MinimumNArgs(1),
	RunE: runList,
}

var (
	listConfigPath    string
	listPortfolioPath string
	listSymbol        string
	listArchetype     string
	listStatus        string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listConfigPath, "config", "f", "", "path to config file (required)")
	listCmd.Flags().StringVarP(&listPortfolioPath, "portfolio", "p", "", "path to portfolio snapshot JSON")
	listCmd.Flags().StringVar(&listSymbol, "symbol", "", "only show strategies on this symbol")
	listCmd.Flags().StringVar(&listArchetype, "archetype", "", "only show strategies of this archetype")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only show strategies with an order in this status")
	listCmd.MarkFlagRequired("config")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadFromFile(listConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := risk.Portfolio{}
	if listPortfolioPath != "" {
		if p, err = loadPortfolio(listPortfolioPath); err != nil {
			return err
		}
	}

	f, err := buildFilter()
	if err != nil {
		return err
	}

	ctrl := stage.New(ledger.NewMemory(), cfg.Limits(), risk.NewDayLoss(), nil)

	for _, path := range args {
		cand, err := loadCandidate(path)
		if err != nil {
			return err
		}
		if _, err := ctrl.StageStrategy(ctx, cand, p); err != nil {
			var serr *stage.StructuralError
			var rerr *stage.RiskRejectedError
			if errors.As(err, &serr) || errors.As(err, &rerr) {
				fmt.Printf("Skipped %s: %v\n", path, err)
				continue
			}
			return err
		}
	}

	views, err := ctrl.ListActive(ctx, f)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No strategies match.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Strategy", "Candidate", "Symbol", "Archetype", "Score", "Orders", "Aggregate"})
	for _, v := range views {
		t.AppendRow(table.Row{
			v.Strategy.ID,
			v.Strategy.Candidate.ID,
			v.Strategy.Candidate.Symbol,
			v.Strategy.Candidate.Archetype.String(),
			fmt.Sprintf("%.1f", v.Strategy.Assessment.RiskScore),
			len(v.Orders),
			v.Status.String(),
		})
	}
	t.Render()
	return nil
}

func buildFilter() (ledger.Filter, error) {
	f := ledger.Filter{Symbol: listSymbol}
	if listArchetype != "" {
		a, err := strategy.ParseArchetype(listArchetype)
		if err != nil {
			return f, err
		}
		f.Archetype = &a
	}
	if listStatus != "" {
		s, err := ledger.ParseStatus(listStatus)
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	return f, nil
}
