package risk

import (
	"fmt"
	"sync"
	"time"
)

// DayLoss accumulates realized losses per trade date. Increments come from
// fills, reads come from the assessor; a slightly stale read is fine but an
// increment must never be dropped and the counter never goes negative.
//
// Day boundary is UTC. The source data had no explicit boundary definition;
// see DESIGN.md.
type DayLoss struct {
	mu     sync.Mutex
	byDate map[string]float64
}

func NewDayLoss() *DayLoss {
	return &DayLoss{byDate: make(map[string]float64)}
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Add records a realized loss for the trade date of t. Losses are positive
// numbers; a negative amount is rejected so the counter stays monotonic
// within a day.
func (d *DayLoss) Add(t time.Time, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("day loss: amount must be non-negative, got %.2f", amount)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.byDate[dateKey(t)] += amount
	return nil
}

// Total returns the accumulated loss for the trade date of t.
func (d *DayLoss) Total(t time.Time) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byDate[dateKey(t)]
}
