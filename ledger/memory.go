// ledger/memory.go
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rustyeddy/stager/strategy"
)

// Memory is the in-process ledger. The outer RWMutex guards the maps; each
// order carries its own mutex so a compare-and-set on one order never blocks
// work on another.
type Memory struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
	orders     map[string]*orderEntry
	histStrats map[string]*Strategy
	histOrders map[string]*Order
}

type orderEntry struct {
	mu       sync.Mutex
	o        Order
	archived bool
}

func NewMemory() *Memory {
	return &Memory{
		strategies: make(map[string]*Strategy),
		orders:     make(map[string]*orderEntry),
		histStrats: make(map[string]*Strategy),
		histOrders: make(map[string]*Order),
	}
}

func (m *Memory) InsertStrategy(ctx context.Context, s Strategy, orders []Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strategies[s.ID]; ok {
		return fmt.Errorf("insert strategy: id %s already exists", s.ID)
	}
	if _, ok := m.histStrats[s.ID]; ok {
		return fmt.Errorf("insert strategy: id %s already in history", s.ID)
	}
	for _, o := range orders {
		if _, ok := m.orders[o.ID]; ok {
			return fmt.Errorf("insert strategy: order id %s already exists", o.ID)
		}
		if o.StrategyID != s.ID {
			return fmt.Errorf("insert strategy: order %s belongs to strategy %s, not %s", o.ID, o.StrategyID, s.ID)
		}
	}

	sc := cloneStrategy(s)
	m.strategies[s.ID] = &sc
	for _, o := range orders {
		oc := cloneOrder(o)
		m.orders[o.ID] = &orderEntry{o: oc}
	}
	return nil
}

func (m *Memory) GetStrategy(ctx context.Context, id string) (Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.strategies[id]; ok {
		return cloneStrategy(*s), nil
	}
	if s, ok := m.histStrats[id]; ok {
		return cloneStrategy(*s), nil
	}
	return Strategy{}, fmt.Errorf("get strategy %s: %w", id, ErrNotFound)
}

func (m *Memory) GetOrder(ctx context.Context, id string) (Order, error) {
	m.mu.RLock()
	e, ok := m.orders[id]
	if !ok {
		h, hok := m.histOrders[id]
		m.mu.RUnlock()
		if hok {
			return cloneOrder(*h), nil
		}
		return Order{}, fmt.Errorf("get order %s: %w", id, ErrNotFound)
	}
	m.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneOrder(e.o), nil
}

func (m *Memory) StrategyOrders(ctx context.Context, strategyID string) ([]Order, error) {
	s, err := m.GetStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(s.OrderIDs))
	for _, id := range s.OrderIDs {
		o, err := m.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (m *Memory) CompareAndSetStatus(ctx context.Context, orderID string, expected, next Status, entry AuditEntry) error {
	e, err := m.liveOrder(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.archived {
		return fmt.Errorf("cas order %s: %w", orderID, ErrHistory)
	}
	if e.o.Status != expected {
		return &ConflictError{OrderID: orderID, Expected: expected, Actual: e.o.Status}
	}

	e.o.Status = next
	e.o.UpdatedAt = entry.Time
	e.o.Audit = append(e.o.Audit, entry)
	return nil
}

func (m *Memory) RecordFill(ctx context.Context, orderID string, price float64, quantity int, entry AuditEntry) (Order, error) {
	e, err := m.liveOrder(orderID)
	if err != nil {
		return Order{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.archived {
		return Order{}, fmt.Errorf("record fill %s: %w", orderID, ErrHistory)
	}
	if e.o.Status != Submitted && e.o.Status != PartiallyFilled {
		return Order{}, &ConflictError{OrderID: orderID, Expected: Submitted, Actual: e.o.Status}
	}

	total := e.o.FilledQuantity + quantity
	if total > e.o.Leg.Quantity {
		return Order{}, fmt.Errorf("record fill %s: fill of %d exceeds leg quantity %d (already filled %d)",
			orderID, quantity, e.o.Leg.Quantity, e.o.FilledQuantity)
	}
	next := PartiallyFilled
	if total == e.o.Leg.Quantity {
		next = Filled
	}

	e.o.Status = next
	e.o.UpdatedAt = entry.Time
	p := price
	e.o.FilledPrice = &p
	e.o.FilledQuantity = total
	e.o.Audit = append(e.o.Audit, entry)
	return cloneOrder(e.o), nil
}

func (m *Memory) AppendAudit(ctx context.Context, orderID string, entry AuditEntry) error {
	e, err := m.liveOrder(orderID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.archived {
		return fmt.Errorf("append audit %s: %w", orderID, ErrHistory)
	}
	e.o.Audit = append(e.o.Audit, entry)
	return nil
}

func (m *Memory) MoveToHistory(ctx context.Context, strategyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.strategies[strategyID]
	if !ok {
		if _, hok := m.histStrats[strategyID]; hok {
			return nil // already moved; moving twice is harmless
		}
		return fmt.Errorf("move to history %s: %w", strategyID, ErrNotFound)
	}

	entries := make([]*orderEntry, 0, len(s.OrderIDs))
	for _, id := range s.OrderIDs {
		e, ok := m.orders[id]
		if !ok {
			return fmt.Errorf("move to history %s: order %s: %w", strategyID, id, ErrNotFound)
		}
		entries = append(entries, e)
	}

	for _, e := range entries {
		e.mu.Lock()
	}
	defer func() {
		for _, e := range entries {
			e.mu.Unlock()
		}
	}()

	for _, e := range entries {
		if !e.o.Status.Terminal() {
			return fmt.Errorf("move to history %s: order %s is %s: %w",
				strategyID, e.o.ID, e.o.Status, ErrNotTerminal)
		}
	}

	for _, e := range entries {
		e.archived = true
		oc := cloneOrder(e.o)
		m.histOrders[e.o.ID] = &oc
		delete(m.orders, e.o.ID)
	}
	m.histStrats[strategyID] = s
	delete(m.strategies, strategyID)
	return nil
}

func (m *Memory) ListActive(ctx context.Context, f Filter) ([]Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(m.strategies, f, m.activeStatus), nil
}

func (m *Memory) ListHistory(ctx context.Context, f Filter) ([]Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(m.histStrats, f, m.histStatus), nil
}

func (m *Memory) activeStatus(orderID string) (Status, bool) {
	e, ok := m.orders[orderID]
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	st := e.o.Status
	e.mu.Unlock()
	return st, true
}

func (m *Memory) histStatus(orderID string) (Status, bool) {
	o, ok := m.histOrders[orderID]
	if !ok {
		return 0, false
	}
	return o.Status, true
}

func (m *Memory) liveOrder(id string) (*orderEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.orders[id]; ok {
		return e, nil
	}
	if _, ok := m.histOrders[id]; ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrHistory)
	}
	return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
}

func (m *Memory) listLocked(src map[string]*Strategy, f Filter, statusOf func(string) (Status, bool)) []Strategy {
	out := make([]Strategy, 0, len(src))
	for _, s := range src {
		if f.Symbol != "" && s.Candidate.Symbol != f.Symbol {
			continue
		}
		if f.Archetype != nil && s.Candidate.Archetype != *f.Archetype {
			continue
		}
		if f.Status != nil && !anyOrderIn(s.OrderIDs, *f.Status, statusOf) {
			continue
		}
		out = append(out, cloneStrategy(*s))
	}
	// ULIDs sort by creation time, so id order is staging order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func anyOrderIn(orderIDs []string, want Status, statusOf func(string) (Status, bool)) bool {
	for _, id := range orderIDs {
		if st, ok := statusOf(id); ok && st == want {
			return true
		}
	}
	return false
}

func cloneOrder(o Order) Order {
	c := o
	if o.FilledPrice != nil {
		p := *o.FilledPrice
		c.FilledPrice = &p
	}
	c.Audit = append([]AuditEntry(nil), o.Audit...)
	return c
}

func cloneStrategy(s Strategy) Strategy {
	c := s
	c.OrderIDs = append([]string(nil), s.OrderIDs...)
	c.Candidate.Legs = append([]strategy.Leg(nil), s.Candidate.Legs...)
	if s.Candidate.Metadata != nil {
		md := make(map[string]string, len(s.Candidate.Metadata))
		for k, v := range s.Candidate.Metadata {
			md[k] = v
		}
		c.Candidate.Metadata = md
	}
	if s.Candidate.DeclaredMaxProfit != nil {
		p := *s.Candidate.DeclaredMaxProfit
		c.Candidate.DeclaredMaxProfit = &p
	}
	c.Assessment.Violations = append([]string(nil), s.Assessment.Violations...)
	c.Assessment.Warnings = append([]string(nil), s.Assessment.Warnings...)
	return c
}
