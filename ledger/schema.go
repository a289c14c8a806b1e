// ledger/schema.go
package ledger

const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	balance TEXT NOT NULL DEFAULT '0.00',
	terminal_login TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	ticket TEXT NOT NULL UNIQUE,
	symbol TEXT NOT NULL,
	volume REAL NOT NULL,
	side TEXT NOT NULL,
	open_price REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	open_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);
CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`
