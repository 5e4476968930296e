package auth

import "database/sql"

const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    business_name TEXT NOT NULL,
    business_structure TEXT NOT NULL,
    vat_enabled INTEGER NOT NULL DEFAULT 0,
    has_employees INTEGER NOT NULL DEFAULT 0,
    num_employees INTEGER,
    created_at TEXT NOT NULL
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
