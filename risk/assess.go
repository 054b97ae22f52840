package risk

import (
	"fmt"

	"github.com/rustyeddy/stager/strategy"
)

// Assessment is the outcome of a risk check. Violations block staging,
// warnings do not. Invariant: any violation forces Approved == false.
type Assessment struct {
	Approved          bool
	RiskScore         float64 // 0..100
	Violations        []string
	Warnings          []string
	MaxLoss           float64
	PositionExposure  float64
	PortfolioExposure float64
}

func (a *Assessment) violate(msg string) {
	a.Violations = append(a.Violations, msg)
	a.Approved = false
}

// Assess scores a candidate against the limits and the current portfolio.
// It is deterministic, never mutates its inputs, and is safe to re-run on a
// stale snapshot; the caller decides how fresh the snapshot must be.
func Assess(l Limits, c strategy.Candidate, p Portfolio, dailyLossSoFar float64) Assessment {
	a := Assessment{Approved: true}

	a.PositionExposure = c.DeclaredMaxRisk
	a.MaxLoss = c.DeclaredMaxRisk

	mult := l.ContractMultiplier
	for _, pos := range p.Positions {
		a.PortfolioExposure += abs(pos.Quantity) * pos.AverageCost * mult
	}
	a.PortfolioExposure += a.PositionExposure

	if l.MaxPositionSize <= 0 || a.PositionExposure > l.MaxPositionSize {
		a.violate(fmt.Sprintf("position exposure %.2f exceeds max position size %.2f",
			a.PositionExposure, l.MaxPositionSize))
	}
	if l.MaxLossPerTrade <= 0 || a.PositionExposure > l.MaxLossPerTrade {
		a.violate(fmt.Sprintf("max loss %.2f exceeds per-trade limit %.2f",
			a.PositionExposure, l.MaxLossPerTrade))
	}
	if l.MaxPortfolioExposure <= 0 || a.PortfolioExposure > l.MaxPortfolioExposure {
		a.violate(fmt.Sprintf("portfolio exposure %.2f exceeds max %.2f",
			a.PortfolioExposure, l.MaxPortfolioExposure))
	}
	if l.MaxLossPerDay <= 0 || dailyLossSoFar+a.PositionExposure > l.MaxLossPerDay {
		a.violate(fmt.Sprintf("daily loss %.2f plus staged risk %.2f exceeds daily limit %.2f",
			dailyLossSoFar, a.PositionExposure, l.MaxLossPerDay))
	}

	// Covered calls need the shares in the account; the structural validator
	// cannot see the portfolio so the check lives here.
	if c.Archetype == strategy.CoveredCall && len(c.Legs) == 1 {
		required := float64(c.Legs[0].Quantity) * mult
		owned := p.SharesOf(c.Symbol)
		if owned < required {
			a.violate(fmt.Sprintf("covered_call: need %.0f shares of %s, own %.0f",
				required, c.Symbol, owned))
		}
	}

	a.RiskScore = cappedTerm(40, a.PositionExposure, l.MaxPositionSize) +
		cappedTerm(30, a.PortfolioExposure, l.MaxPortfolioExposure) +
		cappedTerm(30, dailyLossSoFar+a.PositionExposure, l.MaxLossPerDay)
	if a.RiskScore > 100 {
		a.RiskScore = 100
	}

	switch {
	case a.RiskScore > 75:
		a.Warnings = append(a.Warnings, fmt.Sprintf("high risk score %.1f", a.RiskScore))
	case a.RiskScore > 50:
		a.Warnings = append(a.Warnings, fmt.Sprintf("moderate risk score %.1f", a.RiskScore))
	}

	return a
}

// cappedTerm is one weighted component of the risk score: weight scaled by
// value/limit and clamped to weight. An unusable limit contributes nothing
// rather than dividing by zero.
func cappedTerm(weight, value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	term := weight * value / limit
	if term > weight {
		return weight
	}
	if term < 0 {
		return 0
	}
	return term
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
