// stage/errors.go
package stage

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/stager/ledger"
	"github.com/rustyeddy/stager/risk"
)

// StructuralError reports every archetype rule the candidate violated.
// Recoverable: the caller may correct the candidate and resubmit.
type StructuralError struct {
	Violations []string
}

func (e *StructuralError) Error() string {
	return "structural validation failed: " + strings.Join(e.Violations, "; ")
}

// RiskRejectedError carries the full assessment so callers can show the
// reasons and adjust sizing. Recoverable.
type RiskRejectedError struct {
	Assessment risk.Assessment
}

func (e *RiskRejectedError) Error() string {
	return "risk rejected: " + strings.Join(e.Assessment.Violations, "; ")
}

// InvalidTransitionError means the requested state change is not legal from
// the order's current status. Usually a caller bug or a stale view.
type InvalidTransitionError struct {
	OrderID string
	From    ledger.Status
	To      ledger.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for order %s: %s -> %s", e.OrderID, e.From, e.To)
}

// PartialConflictError means a strategy-level operation lost a race on one of
// its orders. Every order already transitioned was rolled back, so the
// strategy is unchanged; retry after re-reading.
type PartialConflictError struct {
	StrategyID string
	OrderID    string
	Err        error
}

func (e *PartialConflictError) Error() string {
	return fmt.Sprintf("strategy %s: conflict on order %s, all transitions rolled back: %v",
		e.StrategyID, e.OrderID, e.Err)
}

func (e *PartialConflictError) Unwrap() error { return e.Err }
