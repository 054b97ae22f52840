package risk

// Limits holds the configured risk ceilings applied to every candidate.
//
// A zero or negative limit does not mean "unlimited": the corresponding check
// always fails, so a misconfigured account cannot stage anything. The score
// term for that limit contributes zero instead of dividing by it.
type Limits struct {
	MaxPositionSize      float64 // $ exposure ceiling per strategy
	MaxPortfolioExposure float64 // $ exposure ceiling across the book
	MaxLossPerTrade      float64 // $ worst-case loss ceiling per strategy
	MaxLossPerDay        float64 // $ realized + staged loss ceiling per day
	ContractMultiplier   float64 // shares per contract, 100 for standard equity options
}

// Position is one holding inside a portfolio snapshot.
type Position struct {
	Symbol      string
	Quantity    float64
	AverageCost float64
}

// Portfolio is a point-in-time read of the account supplied by the portfolio
// collaborator. The assessor never mutates or caches it.
type Portfolio struct {
	Equity    float64
	Cash      float64
	Positions []Position
}

// SharesOf returns the share count currently held for symbol. Used by the
// covered-call ownership check.
func (p Portfolio) SharesOf(symbol string) float64 {
	var total float64
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			total += pos.Quantity
		}
	}
	return total
}
