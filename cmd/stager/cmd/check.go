package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rustyeddy/stager/config"
	"github.com/rustyeddy/stager/risk"
	"github.com/rustyeddy/stager/strategy"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a candidate against archetype rules and risk limits",
	Long: `Run a candidate file through structural validation and risk assessment
without staging anything.

The candidate file is JSON in the shape produced by the strategy-synthesis
service; the optional portfolio file is a point-in-time account snapshot.

Example:
  stager check -c candidate.json -f stager.yaml -p portfolio.json`,
	RunE: runCheck,
}

var (
	checkCandidatePath string
	checkConfigPath    string
	checkPortfolioPath string
	checkDayLoss       float64
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkCandidatePath, "candidate", "c", "", "path to candidate JSON (required)")
	checkCmd.Flags().StringVarP(&checkConfigPath, "config", "f", "", "path to config file (required)")
	checkCmd.Flags().StringVarP(&checkPortfolioPath, "portfolio", "p", "", "path to portfolio snapshot JSON")
	checkCmd.Flags().Float64Var(&checkDayLoss, "day-loss", 0, "realized loss already booked today")
	checkCmd.MarkFlagRequired("candidate")
	checkCmd.MarkFlagRequired("config")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(checkConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cand, err := loadCandidate(checkCandidatePath)
	if err != nil {
		return err
	}

	p := risk.Portfolio{}
	if checkPortfolioPath != "" {
		if p, err = loadPortfolio(checkPortfolioPath); err != nil {
			return err
		}
	}

	fmt.Printf("Candidate %s: %s %s, %d legs, declared max risk $%.2f\n\n",
		cand.ID, cand.Symbol, cand.Archetype, len(cand.Legs), cand.DeclaredMaxRisk)

	if verrs := strategy.Validate(cand); len(verrs) > 0 {
		fmt.Println("Structural validation FAILED:")
		for _, v := range verrs {
			fmt.Printf("  - %s\n", v)
		}
		return fmt.Errorf("candidate is structurally invalid")
	}
	fmt.Println("Structural validation passed.")

	a := risk.Assess(cfg.Limits(), cand, p, checkDayLoss)
	renderAssessment(a)

	if !a.Approved {
		return fmt.Errorf("candidate rejected by risk gate")
	}
	return nil
}

func loadCandidate(path string) (strategy.Candidate, error) {
	var cand strategy.Candidate
	data, err := os.ReadFile(path)
	if err != nil {
		return cand, fmt.Errorf("read candidate: %w", err)
	}
	if err := json.Unmarshal(data, &cand); err != nil {
		return cand, fmt.Errorf("parse candidate: %w", err)
	}
	return cand, nil
}

func loadPortfolio(path string) (risk.Portfolio, error) {
	var p risk.Portfolio
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read portfolio: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse portfolio: %w", err)
	}
	return p, nil
}

func renderAssessment(a risk.Assessment) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Approved", a.Approved},
		{"Risk score", fmt.Sprintf("%.1f / 100", a.RiskScore)},
		{"Position exposure", fmt.Sprintf("$%.2f", a.PositionExposure)},
		{"Portfolio exposure", fmt.Sprintf("$%.2f", a.PortfolioExposure)},
		{"Max loss", fmt.Sprintf("$%.2f", a.MaxLoss)},
	})
	t.Render()

	if len(a.Violations) > 0 {
		fmt.Println(text.FgRed.Sprint("Violations:"))
		for _, v := range a.Violations {
			fmt.Printf("  - %s\n", v)
		}
	}
	for _, w := range a.Warnings {
		fmt.Println(text.FgYellow.Sprintf("Warning: %s", w))
	}
}
