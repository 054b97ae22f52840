// ledger/record.go
package ledger

import (
	"time"

	"github.com/rustyeddy/stager/risk"
	"github.com/rustyeddy/stager/strategy"
)

// AuditEntry is one line of an order's append-only audit trail.
type AuditEntry struct {
	Time  time.Time
	Event string
	Actor string
	Note  string
}

// Order is the ledger's record for a single staged leg. Status and the fill
// fields are mutated only through the ledger primitives; everything else is
// fixed at insert time.
type Order struct {
	ID             string
	StrategyID     string
	Leg            strategy.Leg
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FilledPrice    *float64
	FilledQuantity int
	Audit          []AuditEntry
}

// Strategy groups the orders staged from one candidate together with the
// assessment that let them in. Its aggregate status is always derived from
// the constituent orders, never stored.
type Strategy struct {
	ID         string
	Candidate  strategy.Candidate
	Assessment risk.Assessment
	OrderIDs   []string
	CreatedAt  time.Time
}

// AggregateStatus is the derived strategy-level view of its orders.
type AggregateStatus int

const (
	InProgress AggregateStatus = iota
	AggregateFilled
	AggregateRejected
)

func (a AggregateStatus) String() string {
	switch a {
	case InProgress:
		return "in_progress"
	case AggregateFilled:
		return "filled"
	case AggregateRejected:
		return "rejected"
	}
	return "unknown"
}

// Aggregate derives the strategy-level status: rejected when any order was
// rejected and none progressed to the broker, filled when every order filled,
// in progress otherwise.
func Aggregate(orders []Order) AggregateStatus {
	if len(orders) == 0 {
		return InProgress
	}

	var rejected, progressed bool
	allFilled := true
	for _, o := range orders {
		switch o.Status {
		case Rejected:
			rejected = true
		case Submitted, PartiallyFilled, Filled:
			progressed = true
		}
		if o.Status != Filled {
			allFilled = false
		}
	}

	if rejected && !progressed {
		return AggregateRejected
	}
	if allFilled {
		return AggregateFilled
	}
	return InProgress
}

// AllTerminal reports whether every order has reached a terminal status,
// which makes the parent strategy eligible for the history partition.
func AllTerminal(orders []Order) bool {
	if len(orders) == 0 {
		return false
	}
	for _, o := range orders {
		if !o.Status.Terminal() {
			return false
		}
	}
	return true
}
