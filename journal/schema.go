// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS audit (
	time DATETIME NOT NULL,
	strategy_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	event TEXT NOT NULL,
	actor TEXT NOT NULL,
	status TEXT NOT NULL,
	note TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
	time DATETIME NOT NULL,
	order_id TEXT NOT NULL,
	strategy_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	quantity INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_strategy ON audit(strategy_id);
CREATE INDEX IF NOT EXISTS idx_fills_strategy ON fills(strategy_id);
`
