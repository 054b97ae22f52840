// stage/controller.go
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yanun0323/logs"

	"github.com/rustyeddy/stager/internal/metrics"
	"github.com/rustyeddy/stager/journal"
	"github.com/rustyeddy/stager/ledger"
	"github.com/rustyeddy/stager/pkg/id"
	"github.com/rustyeddy/stager/risk"
	"github.com/rustyeddy/stager/strategy"
)

// Controller drives candidates through the staging lifecycle: structural
// validation, risk assessment, ledger staging, and the order state machine.
// It is the sole writer of order status; callers may invoke it concurrently
// and losers of a status race get a conflict back, never a silent overwrite.
//
// Construct one per process and hand it to callers. There is no package-level
// instance.
type Controller struct {
	ledger  ledger.Ledger
	limits  risk.Limits
	dayLoss *risk.DayLoss
	journal journal.Journal // optional durable tee for audit entries
	now     func() time.Time
}

func New(led ledger.Ledger, limits risk.Limits, dayLoss *risk.DayLoss, j journal.Journal) *Controller {
	if dayLoss == nil {
		dayLoss = risk.NewDayLoss()
	}
	return &Controller{
		ledger:  led,
		limits:  limits,
		dayLoss: dayLoss,
		journal: j,
		now:     time.Now,
	}
}

// View is a read-only projection of one strategy for listing endpoints.
type View struct {
	Strategy ledger.Strategy
	Orders   []ledger.Order
	Status   ledger.AggregateStatus
}

// StageStrategy validates and risk-gates a candidate, then atomically creates
// one staged order per leg plus the strategy record. On rejection nothing is
// written: a *StructuralError lists every violated rule, a *RiskRejectedError
// carries the full assessment.
func (c *Controller) StageStrategy(ctx context.Context, cand strategy.Candidate, p risk.Portfolio) (string, error) {
	if verrs := strategy.Validate(cand); len(verrs) > 0 {
		metrics.RecordRejected("structural")
		return "", &StructuralError{Violations: verrs}
	}

	now := c.now()
	a := risk.Assess(c.limits, cand, p, c.dayLoss.Total(now))
	metrics.ObserveRiskScore(a.RiskScore)
	if !a.Approved {
		metrics.RecordRejected("risk")
		logs.Infof("risk rejected candidate %s (%s): %v", cand.ID, cand.Symbol, a.Violations)
		return "", &RiskRejectedError{Assessment: a}
	}

	strategyID := id.New()
	s := ledger.Strategy{
		ID:         strategyID,
		Candidate:  cand,
		Assessment: a,
		CreatedAt:  now,
	}

	orders := make([]ledger.Order, 0, len(cand.Legs))
	for _, leg := range cand.Legs {
		o := ledger.Order{
			ID:         id.New(),
			StrategyID: strategyID,
			Leg:        leg,
			Status:     ledger.Staged,
			CreatedAt:  now,
			UpdatedAt:  now,
			Audit: []ledger.AuditEntry{
				{Time: now, Event: "staged", Actor: "pipeline", Note: fmt.Sprintf("risk score %.1f", a.RiskScore)},
			},
		}
		s.OrderIDs = append(s.OrderIDs, o.ID)
		orders = append(orders, o)
	}

	if err := c.ledger.InsertStrategy(ctx, s, orders); err != nil {
		return "", fmt.Errorf("stage strategy: %w", err)
	}

	metrics.RecordStaged(cand.Symbol, cand.Archetype.String())
	for _, o := range orders {
		c.teeAudit(strategyID, o.ID, ledger.Staged, o.Audit[0])
	}
	logs.Infof("staged strategy %s (%s %s, %d legs, score %.1f)",
		strategyID, cand.Symbol, cand.Archetype, len(orders), a.RiskScore)
	return strategyID, nil
}

// ApproveStrategy moves every constituent order Staged -> Approved,
// all-or-nothing. A conflict on any order rolls the others back and returns
// *PartialConflictError; a stale or terminal order yields
// *InvalidTransitionError before anything is touched.
func (c *Controller) ApproveStrategy(ctx context.Context, strategyID, actor string) error {
	return c.transitionAll(ctx, strategyID, actor, "", ledger.Approved, "approved",
		func(from ledger.Status) bool { return from == ledger.Staged })
}

// RejectStrategy terminally rejects a strategy from Staged or Approved,
// recording the reason in every order's audit trail.
func (c *Controller) RejectStrategy(ctx context.Context, strategyID, actor, reason string) error {
	return c.transitionAll(ctx, strategyID, actor, reason, ledger.Rejected, "rejected",
		func(from ledger.Status) bool { return from == ledger.Staged || from == ledger.Approved })
}

// CancelStrategy terminally cancels a strategy from Staged or Approved.
func (c *Controller) CancelStrategy(ctx context.Context, strategyID, actor, reason string) error {
	return c.transitionAll(ctx, strategyID, actor, reason, ledger.Cancelled, "cancelled",
		func(from ledger.Status) bool { return from == ledger.Staged || from == ledger.Approved })
}

// transitionAll applies one transition to every order of a strategy with
// all-or-nothing semantics. No cross-key transaction exists, so failures are
// compensated: orders already moved are CAS'd back to their prior status.
func (c *Controller) transitionAll(ctx context.Context, strategyID, actor, reason string,
	to ledger.Status, event string, allowed func(ledger.Status) bool) error {

	orders, err := c.ledger.StrategyOrders(ctx, strategyID)
	if err != nil {
		return fmt.Errorf("%s strategy %s: %w", event, strategyID, err)
	}

	// Check the whole batch before mutating anything so a stale view fails
	// fast with no compensation needed.
	for _, o := range orders {
		if !allowed(o.Status) {
			return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: to}
		}
	}

	var done []movedOrder

	now := c.now()
	for _, o := range orders {
		entry := ledger.AuditEntry{Time: now, Event: event, Actor: actor, Note: reason}
		if err := c.ledger.CompareAndSetStatus(ctx, o.ID, o.Status, to, entry); err != nil {
			c.compensate(ctx, strategyID, done, to, actor)

			var conflict *ledger.ConflictError
			if errors.As(err, &conflict) {
				metrics.RecordConflict()
				return &PartialConflictError{StrategyID: strategyID, OrderID: o.ID, Err: err}
			}
			return fmt.Errorf("%s strategy %s: %w", event, strategyID, err)
		}
		done = append(done, movedOrder{orderID: o.ID, from: o.Status})
		c.teeAudit(strategyID, o.ID, to, entry)
	}

	metrics.RecordTransition(to.String())
	logs.Infof("strategy %s: %d orders %s by %s", strategyID, len(done), event, actor)

	if to.Terminal() {
		c.archiveIfDone(ctx, strategyID)
	}
	return nil
}

type movedOrder struct {
	orderID string
	from    ledger.Status
}

// compensate rolls already-transitioned orders back to their prior status.
// A compensation that itself fails leaves the order where it is; that is
// logged and surfaced no further, the caller already gets the primary error.
func (c *Controller) compensate(ctx context.Context, strategyID string, done []movedOrder, to ledger.Status, actor string) {
	now := c.now()
	for _, d := range done {
		entry := ledger.AuditEntry{Time: now, Event: "rolled_back", Actor: actor, Note: "compensating transition"}
		if err := c.ledger.CompareAndSetStatus(ctx, d.orderID, to, d.from, entry); err != nil {
			logs.Errorf("strategy %s: rollback of order %s failed: %v", strategyID, d.orderID, err)
			continue
		}
		c.teeAudit(strategyID, d.orderID, d.from, entry)
	}
}

// MarkSubmitted records that an approved order went to the broker.
func (c *Controller) MarkSubmitted(ctx context.Context, orderID, brokerRef string) error {
	o, err := c.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("mark submitted %s: %w", orderID, err)
	}
	if o.Status != ledger.Approved {
		return &InvalidTransitionError{OrderID: orderID, From: o.Status, To: ledger.Submitted}
	}

	entry := ledger.AuditEntry{
		Time:  c.now(),
		Event: "submitted",
		Actor: "broker",
		Note:  "broker_ref=" + brokerRef,
	}
	if err := c.ledger.CompareAndSetStatus(ctx, orderID, ledger.Approved, ledger.Submitted, entry); err != nil {
		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			metrics.RecordConflict()
		}
		return fmt.Errorf("mark submitted %s: %w", orderID, err)
	}

	metrics.RecordTransition(ledger.Submitted.String())
	c.teeAudit(o.StrategyID, orderID, ledger.Submitted, entry)
	return nil
}

// MarkFilled records an execution. Quantity accumulates across partial fills
// inside the ledger's atomic step, so concurrent fill callbacks never drop an
// increment; the order completes when the leg quantity is reached, and once
// every order of the strategy is terminal the whole strategy moves to history.
func (c *Controller) MarkFilled(ctx context.Context, orderID string, price float64, quantity int) error {
	if price <= 0 {
		return fmt.Errorf("mark filled %s: price must be positive, got %g", orderID, price)
	}
	if quantity <= 0 {
		return fmt.Errorf("mark filled %s: quantity must be positive, got %d", orderID, quantity)
	}

	o, err := c.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("mark filled %s: %w", orderID, err)
	}
	if o.Status != ledger.Submitted && o.Status != ledger.PartiallyFilled {
		return &InvalidTransitionError{OrderID: orderID, From: o.Status, To: ledger.Filled}
	}

	entry := ledger.AuditEntry{
		Time:  c.now(),
		Event: "filled",
		Actor: "broker",
		Note:  fmt.Sprintf("%d @ %.4f", quantity, price),
	}
	updated, err := c.ledger.RecordFill(ctx, orderID, price, quantity, entry)
	if err != nil {
		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			metrics.RecordConflict()
		}
		return fmt.Errorf("mark filled %s: %w", orderID, err)
	}

	metrics.RecordTransition(updated.Status.String())
	c.teeAudit(o.StrategyID, orderID, updated.Status, entry)
	c.teeFill(ctx, o, price, quantity, entry.Time)

	if updated.Status == ledger.Filled {
		c.archiveIfDone(ctx, o.StrategyID)
	}
	return nil
}

// RecordLoss feeds a realized loss into the daily accumulator read by the
// risk gate. Amounts are positive dollars.
func (c *Controller) RecordLoss(t time.Time, amount float64) error {
	return c.dayLoss.Add(t, amount)
}

// StrategyStatus derives the aggregate status from the constituent orders.
func (c *Controller) StrategyStatus(ctx context.Context, strategyID string) (ledger.AggregateStatus, error) {
	orders, err := c.ledger.StrategyOrders(ctx, strategyID)
	if err != nil {
		return 0, err
	}
	return ledger.Aggregate(orders), nil
}

// ListActive returns read-only projections of the live strategies.
func (c *Controller) ListActive(ctx context.Context, f ledger.Filter) ([]View, error) {
	return c.list(ctx, f, c.ledger.ListActive)
}

// ListHistory returns read-only projections of archived strategies.
func (c *Controller) ListHistory(ctx context.Context, f ledger.Filter) ([]View, error) {
	return c.list(ctx, f, c.ledger.ListHistory)
}

func (c *Controller) list(ctx context.Context, f ledger.Filter,
	src func(context.Context, ledger.Filter) ([]ledger.Strategy, error)) ([]View, error) {

	strats, err := src(ctx, f)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(strats))
	for _, s := range strats {
		orders, err := c.ledger.StrategyOrders(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, View{Strategy: s, Orders: orders, Status: ledger.Aggregate(orders)})
	}
	return views, nil
}

// archiveIfDone moves the strategy to the history partition once every order
// is terminal. Best effort: a failure leaves the strategy active and is only
// logged, the triggering operation already succeeded.
func (c *Controller) archiveIfDone(ctx context.Context, strategyID string) {
	orders, err := c.ledger.StrategyOrders(ctx, strategyID)
	if err != nil {
		logs.Errorf("strategy %s: archive check failed: %v", strategyID, err)
		return
	}
	if !ledger.AllTerminal(orders) {
		return
	}
	if err := c.ledger.MoveToHistory(ctx, strategyID); err != nil {
		logs.Errorf("strategy %s: move to history failed: %v", strategyID, err)
		return
	}
	logs.Infof("strategy %s archived (%s)", strategyID, ledger.Aggregate(orders))
}

func (c *Controller) teeAudit(strategyID, orderID string, status ledger.Status, e ledger.AuditEntry) {
	if c.journal == nil {
		return
	}
	err := c.journal.RecordAudit(journal.AuditRecord{
		Time:       e.Time,
		StrategyID: strategyID,
		OrderID:    orderID,
		Event:      e.Event,
		Actor:      e.Actor,
		Status:     status.String(),
		Note:       e.Note,
	})
	if err != nil {
		logs.Errorf("journal audit for order %s failed: %v", orderID, err)
	}
}

func (c *Controller) teeFill(ctx context.Context, o ledger.Order, price float64, quantity int, t time.Time) {
	if c.journal == nil {
		return
	}
	symbol := ""
	if s, err := c.ledger.GetStrategy(ctx, o.StrategyID); err == nil {
		symbol = s.Candidate.Symbol
	}
	err := c.journal.RecordFill(journal.FillRecord{
		Time:       t,
		OrderID:    o.ID,
		StrategyID: o.StrategyID,
		Symbol:     symbol,
		Price:      price,
		Quantity:   quantity,
	})
	if err != nil {
		logs.Errorf("journal fill for order %s failed: %v", o.ID, err)
	}
}
