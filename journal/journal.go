// journal/journal.go
package journal

import "time"

// AuditRecord is one lifecycle event for a staged order, exported for the
// reporting collaborator. The ledger keeps its own in-record audit trail; the
// journal is the durable, append-only copy.
type AuditRecord struct {
	Time       time.Time
	StrategyID string
	OrderID    string
	Event      string
	Actor      string
	Status     string
	Note       string
}

// FillRecord captures an execution reported back from the broker collaborator.
type FillRecord struct {
	Time       time.Time
	OrderID    string
	StrategyID string
	Symbol     string
	Price      float64
	Quantity   int
}

type Journal interface {
	RecordAudit(AuditRecord) error
	RecordFill(FillRecord) error
	Close() error
}
