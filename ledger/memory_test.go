package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/stager/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStrategy(t *testing.T, m *Memory, id string, statuses ...Status) Strategy {
	t.Helper()

	s := Strategy{
		ID: id,
		Candidate: strategy.Candidate{
			ID:        "cand-" + id,
			Symbol:    "SPY",
			Archetype: strategy.IronCondor,
		},
		CreatedAt: time.Now(),
	}

	orders := make([]Order, 0, len(statuses))
	for i, st := range statuses {
		o := Order{
			ID:         id + "-o" + string(rune('1'+i)),
			StrategyID: id,
			Leg:        strategy.Leg{Side: strategy.Sell, Instrument: strategy.Put, Strike: 440, Quantity: 1},
			Status:     st,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.CreatedAt,
		}
		s.OrderIDs = append(s.OrderIDs, o.ID)
		orders = append(orders, o)
	}

	require.NoError(t, m.InsertStrategy(context.Background(), s, orders))
	return s
}

func TestMemoryInsertAndGet(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	s := seedStrategy(t, m, "s1", Staged, Staged)

	got, err := m.GetStrategy(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Len(t, got.OrderIDs, 2)

	orders, err := m.StrategyOrders(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, Staged, orders[0].Status)

	_, err = m.GetStrategy(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInsertDuplicate(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	seedStrategy(t, m, "s1", Staged)

	err := m.InsertStrategy(context.Background(), Strategy{ID: "s1"}, nil)
	assert.Error(t, err)
}

func TestMemoryCAS(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	s := seedStrategy(t, m, "s1", Staged)
	orderID := s.OrderIDs[0]

	entry := AuditEntry{Time: time.Now(), Event: "approved", Actor: "test"}
	require.NoError(t, m.CompareAndSetStatus(ctx, orderID, Staged, Approved, entry))

	o, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, Approved, o.Status)
	assert.Len(t, o.Audit, 1)

	// Stale expectation loses with a conflict, not a silent overwrite.
	err = m.CompareAndSetStatus(ctx, orderID, Staged, Approved, entry)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, Approved, conflict.Actual)
}

func TestMemoryCASRaceHasOneWinner(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	s := seedStrategy(t, m, "s1", Staged)
	orderID := s.OrderIDs[0]

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := AuditEntry{Time: time.Now(), Event: "approved", Actor: "racer"}
			if m.CompareAndSetStatus(ctx, orderID, Staged, Approved, entry) == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	assert.Equal(t, 1, winners)

	o, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, o.Audit, 1)
}

func TestMemoryRecordFill(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	s := seedStrategy(t, m, "s1", Submitted)
	orderID := s.OrderIDs[0]

	entry := AuditEntry{Time: time.Now(), Event: "filled", Actor: "broker"}
	o, err := m.RecordFill(ctx, orderID, 1.45, 1, entry)
	require.NoError(t, err)
	assert.Equal(t, Filled, o.Status)
	require.NotNil(t, o.FilledPrice)
	assert.InDelta(t, 1.45, *o.FilledPrice, 1e-9)
	assert.Equal(t, 1, o.FilledQuantity)

	// A completed order takes no further fills.
	_, err = m.RecordFill(ctx, orderID, 1.45, 1, entry)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func seedSubmittedOrder(t *testing.T, m *Memory, quantity int) string {
	t.Helper()

	s := Strategy{
		ID: "s1",
		Candidate: strategy.Candidate{
			ID:        "cand-s1",
			Symbol:    "AAPL",
			Archetype: strategy.CoveredCall,
		},
		CreatedAt: time.Now(),
	}
	o := Order{
		ID:         "s1-o1",
		StrategyID: s.ID,
		Leg:        strategy.Leg{Side: strategy.Sell, Instrument: strategy.Call, Strike: 180, Quantity: quantity},
		Status:     Submitted,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.CreatedAt,
	}
	s.OrderIDs = []string{o.ID}
	require.NoError(t, m.InsertStrategy(context.Background(), s, []Order{o}))
	return o.ID
}

func TestMemoryRecordFillAccumulates(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	orderID := seedSubmittedOrder(t, m, 3)
	entry := AuditEntry{Time: time.Now(), Event: "filled", Actor: "broker"}

	o, err := m.RecordFill(ctx, orderID, 2.10, 1, entry)
	require.NoError(t, err)
	assert.Equal(t, PartiallyFilled, o.Status)
	assert.Equal(t, 1, o.FilledQuantity)

	// Exceeding the leg quantity is refused with nothing recorded.
	_, err = m.RecordFill(ctx, orderID, 2.10, 3, entry)
	assert.Error(t, err)
	o, err = m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 1, o.FilledQuantity)
	assert.Equal(t, PartiallyFilled, o.Status)

	o, err = m.RecordFill(ctx, orderID, 2.05, 2, entry)
	require.NoError(t, err)
	assert.Equal(t, Filled, o.Status)
	assert.Equal(t, 3, o.FilledQuantity)
}

func TestMemoryRecordFillConcurrentPartials(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	orderID := seedSubmittedOrder(t, m, 3)

	_, err := m.RecordFill(ctx, orderID, 2.10, 1, AuditEntry{Time: time.Now(), Event: "filled"})
	require.NoError(t, err)

	// Two broker callbacks race with the same stale one-filled view. Both
	// increments must land; neither may overwrite the other.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.RecordFill(ctx, orderID, 2.05, 1, AuditEntry{Time: time.Now(), Event: "filled"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	o, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 3, o.FilledQuantity)
	assert.Equal(t, Filled, o.Status)
	assert.Len(t, o.Audit, 3)
}

func TestMemoryMoveToHistory(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	live := seedStrategy(t, m, "live", Staged)
	err := m.MoveToHistory(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotTerminal)

	done := seedStrategy(t, m, "done", Filled, Cancelled)
	require.NoError(t, m.MoveToHistory(ctx, done.ID))

	// Still readable, no longer mutable.
	got, err := m.GetStrategy(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, got.ID)

	orderID := done.OrderIDs[0]
	o, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, Filled, o.Status)

	err = m.CompareAndSetStatus(ctx, orderID, Filled, Staged, AuditEntry{})
	assert.ErrorIs(t, err, ErrHistory)
	err = m.AppendAudit(ctx, orderID, AuditEntry{Event: "late"})
	assert.ErrorIs(t, err, ErrHistory)

	// Idempotent.
	assert.NoError(t, m.MoveToHistory(ctx, done.ID))

	active, err := m.ListActive(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)
	hist, err := m.ListHistory(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	assert.Equal(t, done.ID, hist[0].ID)
}

func TestMemoryListFilter(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	seedStrategy(t, m, "a", Staged)
	b := Strategy{
		ID: "b",
		Candidate: strategy.Candidate{
			ID:        "cand-b",
			Symbol:    "AAPL",
			Archetype: strategy.CoveredCall,
		},
	}
	require.NoError(t, m.InsertStrategy(ctx, b, nil))

	bySymbol, err := m.ListActive(ctx, Filter{Symbol: "AAPL"})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "b", bySymbol[0].ID)

	arch := strategy.IronCondor
	byArch, err := m.ListActive(ctx, Filter{Archetype: &arch})
	require.NoError(t, err)
	require.Len(t, byArch, 1)
	assert.Equal(t, "a", byArch[0].ID)
}

func TestMemoryListStatusFilter(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	a := seedStrategy(t, m, "a", Staged, Staged)
	seedStrategy(t, m, "b", Staged)
	require.NoError(t, m.CompareAndSetStatus(ctx, a.OrderIDs[0], Staged, Approved,
		AuditEntry{Time: time.Now(), Event: "approved"}))

	st := Approved
	approved, err := m.ListActive(ctx, Filter{Status: &st})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "a", approved[0].ID)

	st = Filled
	filled, err := m.ListActive(ctx, Filter{Status: &st})
	require.NoError(t, err)
	assert.Empty(t, filled)

	done := seedStrategy(t, m, "c", Cancelled)
	require.NoError(t, m.MoveToHistory(ctx, done.ID))
	st = Cancelled
	hist, err := m.ListHistory(ctx, Filter{Status: &st})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "c", hist[0].ID)
}

func TestMemorySnapshotsDoNotAlias(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	s := seedStrategy(t, m, "s1", Staged)
	orderID := s.OrderIDs[0]

	o, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	o.Status = Filled
	o.Audit = append(o.Audit, AuditEntry{Event: "tamper"})

	fresh, err := m.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, Staged, fresh.Status)
	assert.Empty(t, fresh.Audit)
}

func TestMemoryCandidateSnapshotsDoNotAlias(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	cand := strategy.Candidate{
		ID:        "cand-s1",
		Symbol:    "SPY",
		Archetype: strategy.CoveredCall,
		Legs:      []strategy.Leg{{Side: strategy.Sell, Instrument: strategy.Call, Strike: 180, Quantity: 1}},
		Metadata:  map[string]string{"source": "desk"},
	}
	s := Strategy{ID: "s1", Candidate: cand, CreatedAt: time.Now()}
	require.NoError(t, m.InsertStrategy(ctx, s, nil))

	// Mutating the caller's candidate after insert must not touch the store.
	cand.Legs[0].Strike = 1
	cand.Metadata["source"] = "tamper"

	got, err := m.GetStrategy(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 180, got.Candidate.Legs[0].Strike, 1e-9)
	assert.Equal(t, "desk", got.Candidate.Metadata["source"])

	// And mutating a snapshot must not leak back in.
	got.Candidate.Legs[0].Strike = 2
	got.Candidate.Metadata["source"] = "tamper"

	fresh, err := m.GetStrategy(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 180, fresh.Candidate.Legs[0].Strike, 1e-9)
	assert.Equal(t, "desk", fresh.Candidate.Metadata["source"])
}

func TestMemoryErrHistoryVsNotFound(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	done := seedStrategy(t, m, "done", Filled)
	require.NoError(t, m.MoveToHistory(ctx, done.ID))

	err := m.CompareAndSetStatus(ctx, done.OrderIDs[0], Filled, Staged, AuditEntry{})
	assert.ErrorIs(t, err, ErrHistory)
	assert.False(t, errors.Is(err, ErrNotFound))
}
