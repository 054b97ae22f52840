package journal

import "time"

// ListAuditByStrategy returns the full audit trail for a strategy in
// chronological order.
func (j *SQLite) ListAuditByStrategy(strategyID string) ([]AuditRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, strategy_id, order_id, event, actor, status, note
		FROM audit
		WHERE strategy_id = ?
		ORDER BY time ASC`, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.Time,
			&rec.StrategyID,
			&rec.OrderID,
			&rec.Event,
			&rec.Actor,
			&rec.Status,
			&rec.Note,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFillsBetween returns fills whose time is within [start, end).
func (j *SQLite) ListFillsBetween(start, end time.Time) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, order_id, strategy_id, symbol, price, quantity
		FROM fills
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var rec FillRecord
		if err := rows.Scan(
			&rec.Time,
			&rec.OrderID,
			&rec.StrategyID,
			&rec.Symbol,
			&rec.Price,
			&rec.Quantity,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
