package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordAudit(r AuditRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO audit
		(time, strategy_id, order_id, event, actor, status, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Time, r.StrategyID, r.OrderID, r.Event, r.Actor, r.Status, r.Note,
	)
	return err
}

func (j *SQLite) RecordFill(r FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(time, order_id, strategy_id, symbol, price, quantity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Time, r.OrderID, r.StrategyID, r.Symbol, r.Price, r.Quantity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
