package transactions

import "database/sql"

// Schema for the transactions tables.
// Amounts are stored as TEXT: they round-trip through shopspring/decimal and
// must never pass through float64.
// external_id dedup is scoped per user (matches the dedup query, which
// filters by user); the unique index is the correctness backstop for
// concurrent check-then-insert races.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    external_id TEXT,
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    upstream_category TEXT,
    tax_category TEXT NOT NULL,
    deductible INTEGER NOT NULL,
    vat_applicable INTEGER NOT NULL,
    vat_rate TEXT NOT NULL,
    vat_amount TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_user_external
    ON transactions(user_id, external_id) WHERE external_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);

CREATE TABLE IF NOT EXISTS category_mappings (
    id INTEGER PRIMARY KEY,
    upstream_category TEXT UNIQUE NOT NULL,
    tax_category TEXT NOT NULL,
    deductible INTEGER NOT NULL,
    vat_applicable INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tax_summaries (
    id INTEGER PRIMARY KEY,
    uuid TEXT UNIQUE NOT NULL,
    user_id INTEGER NOT NULL,
    period_start TEXT NOT NULL,
    period_end TEXT NOT NULL,
    total_income TEXT NOT NULL,
    total_expenses TEXT NOT NULL,
    vat_due TEXT NOT NULL,
    vat_reclaimable TEXT NOT NULL,
    net_profit TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tax_summaries_user_period
    ON tax_summaries(user_id, period_start, period_end);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
