// ledger/status.go
package ledger

import "fmt"

// Status is the lifecycle state of a staged order. It is a closed variant:
// transitions are checked against the machine below, and the terminal states
// never transition again.
//
//	PENDING → STAGED → APPROVED → SUBMITTED → FILLED
//	                 ↘ REJECTED                ↘ PARTIALLY_FILLED → FILLED
//	                 ↘ CANCELLED (from STAGED/APPROVED)
type Status int

const (
	Pending Status = iota
	Staged
	Approved
	Submitted
	PartiallyFilled
	Filled
	Rejected
	Cancelled
)

var statusNames = map[Status]string{
	Pending:         "pending",
	Staged:          "staged",
	Approved:        "approved",
	Submitted:       "submitted",
	PartiallyFilled: "partially_filled",
	Filled:          "filled",
	Rejected:        "rejected",
	Cancelled:       "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus converts a stored name back to a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Rejected, Cancelled:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle machine permits s → next.
// Compensating rollbacks used inside multi-order operations bypass this check
// deliberately; it governs externally requested transitions.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case Pending:
		return next == Staged
	case Staged:
		return next == Approved || next == Rejected || next == Cancelled
	case Approved:
		return next == Submitted || next == Rejected || next == Cancelled
	case Submitted:
		return next == Filled || next == PartiallyFilled
	case PartiallyFilled:
		return next == Filled
	}
	return false
}
