package banking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles bank account persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new bank account repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "bank_accounts").Logger(),
	}
}

// Create stores a newly linked account.
func (r *Repository) Create(account *BankAccount) (*BankAccount, error) {
	createdAt := time.Now().UTC().Format("2006-01-02 15:04:05")

	result, err := r.db.Exec(
		"INSERT INTO bank_accounts (user_id, item_id, access_token, created_at) VALUES (?, ?, ?, ?)",
		account.UserID, account.ItemID, account.AccessToken, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bank account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	account.ID = id
	account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return account, nil
}

// GetByUser returns the user's linked account, or nil when the user has not
// connected a bank. Absence is a reportable condition, not an error.
func (r *Repository) GetByUser(userID int64) (*BankAccount, error) {
	var account BankAccount
	var createdAt string

	err := r.db.QueryRow(
		"SELECT id, user_id, item_id, access_token, created_at FROM bank_accounts WHERE user_id = ? ORDER BY id DESC LIMIT 1",
		userID,
	).Scan(&account.ID, &account.UserID, &account.ItemID, &account.AccessToken, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}

	account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &account, nil
}

// All returns every linked account, used by the scheduled sync job.
func (r *Repository) All() ([]BankAccount, error) {
	rows, err := r.db.Query("SELECT id, user_id, item_id, access_token, created_at FROM bank_accounts ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []BankAccount
	for rows.Next() {
		var account BankAccount
		var createdAt string
		if err := rows.Scan(&account.ID, &account.UserID, &account.ItemID, &account.AccessToken, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}
	return accounts, nil
}
