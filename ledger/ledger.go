// ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/stager/strategy"
)

var (
	// ErrNotFound is returned when no record exists for an id, in either the
	// active or the history partition.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrHistory is returned for mutation attempts against records already
	// moved to the history partition. Post-move records are read-only.
	ErrHistory = errors.New("ledger: record is in history")

	// ErrNotTerminal is returned by MoveToHistory when constituent orders
	// are still live.
	ErrNotTerminal = errors.New("ledger: strategy has non-terminal orders")
)

// ConflictError is the compare-and-set failure: the stored status did not
// match the caller's expectation. The caller's view is stale; re-read and
// retry if the operation still applies.
type ConflictError struct {
	OrderID  string
	Expected Status
	Actual   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ledger: order %s is %s, expected %s", e.OrderID, e.Actual, e.Expected)
}

// Filter narrows List results. Zero/nil fields match everything; Archetype
// and Status are pointers so the zero values remain selectable. Status matches
// strategies with at least one order currently in that status.
type Filter struct {
	Symbol    string
	Archetype *strategy.Archetype
	Status    *Status
}

// Ledger is the keyed store behind the lifecycle controller.
// CompareAndSetStatus is the sole status-mutation primitive and must be
// atomic per key without serializing unrelated keys. Implementations return
// wrapped errors on backend failure and never report success for a write that
// did not take.
type Ledger interface {
	// InsertStrategy atomically creates the strategy and all of its orders;
	// either every record exists afterwards or none do.
	InsertStrategy(ctx context.Context, s Strategy, orders []Order) error

	GetStrategy(ctx context.Context, id string) (Strategy, error)
	GetOrder(ctx context.Context, id string) (Order, error)

	// StrategyOrders returns snapshots of every order belonging to the
	// strategy, in staging order.
	StrategyOrders(ctx context.Context, strategyID string) ([]Order, error)

	// CompareAndSetStatus atomically moves an order from expected to next and
	// appends the audit entry. A stored status other than expected yields a
	// *ConflictError and no mutation.
	CompareAndSetStatus(ctx context.Context, orderID string, expected, next Status, entry AuditEntry) error

	// RecordFill atomically applies a fill increment to an order that is
	// Submitted or PartiallyFilled. The running total and the
	// PartiallyFilled-or-Filled decision are computed under the same per-key
	// lock that guards the status, so concurrent partial fills accumulate
	// rather than overwrite each other; an increment that would exceed the
	// leg quantity is refused with no mutation. Returns the updated snapshot.
	RecordFill(ctx context.Context, orderID string, price float64, quantity int, entry AuditEntry) (Order, error)

	// AppendAudit adds an entry without touching status.
	AppendAudit(ctx context.Context, orderID string, entry AuditEntry) error

	// MoveToHistory moves a strategy and its orders to the append-only
	// history partition. Legal only once every order is terminal;
	// irreversible.
	MoveToHistory(ctx context.Context, strategyID string) error

	ListActive(ctx context.Context, f Filter) ([]Strategy, error)
	ListHistory(ctx context.Context, f Filter) ([]Strategy, error)
}
