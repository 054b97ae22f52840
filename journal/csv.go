// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	audit  *csv.Writer
	fills  *csv.Writer
	af, ff *os.File
}

func NewCSV(auditPath, fillsPath string) (*CSVJournal, error) {
	af, err := os.Create(auditPath)
	if err != nil {
		return nil, err
	}
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}

	aw := csv.NewWriter(af)
	fw := csv.NewWriter(ff)

	if err := aw.Write([]string{"time", "strategy_id", "order_id", "event", "actor", "status", "note"}); err != nil {
		return nil, err
	}
	if err := fw.Write([]string{"time", "order_id", "strategy_id", "symbol", "price", "quantity"}); err != nil {
		return nil, err
	}

	aw.Flush()
	if err := aw.Error(); err != nil {
		return nil, err
	}
	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{aw, fw, af, ff}, nil
}

func (j *CSVJournal) RecordAudit(r AuditRecord) error {
	err := j.audit.Write([]string{
		r.Time.Format(time.RFC3339),
		r.StrategyID,
		r.OrderID,
		r.Event,
		r.Actor,
		r.Status,
		r.Note,
	})
	if err != nil {
		return err
	}
	j.audit.Flush()
	return j.audit.Error()
}

func (j *CSVJournal) RecordFill(r FillRecord) error {
	err := j.fills.Write([]string{
		r.Time.Format(time.RFC3339),
		r.OrderID,
		r.StrategyID,
		r.Symbol,
		f(r.Price),
		strconv.Itoa(r.Quantity),
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) Close() error {
	j.audit.Flush()
	if err := j.audit.Error(); err != nil {
		return err
	}
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}

	if err := j.af.Close(); err != nil {
		return err
	}
	if err := j.ff.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
