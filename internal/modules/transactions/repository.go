package transactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles transaction persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

const transactionColumns = `id, user_id, external_id, date, description, amount,
       upstream_category, tax_category, deductible, vat_applicable,
       vat_rate, vat_amount, created_at`

// ExistsTx checks, inside the batch transaction, whether this user already
// has a transaction with the given external ID.
func (r *Repository) ExistsTx(tx *sql.Tx, userID int64, externalID string) (bool, error) {
	var count int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE user_id = ? AND external_id = ?",
		userID, externalID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// InsertTx stages one classified transaction inside the batch transaction.
func (r *Repository) InsertTx(tx *sql.Tx, t *Transaction) (*Transaction, error) {
	query := `
		INSERT INTO transactions (
			user_id, external_id, date, description, amount, upstream_category,
			tax_category, deductible, vat_applicable, vat_rate, vat_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := time.Now().UTC().Format("2006-01-02 15:04:05")

	result, err := tx.Exec(
		query,
		t.UserID,
		t.ExternalID,
		t.Date,
		t.Description,
		t.Amount.String(),
		t.UpstreamCategory,
		t.TaxCategory,
		t.Deductible,
		t.VATApplicable,
		t.VATRate.String(),
		t.VATAmount.String(),
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	t.ID = id
	t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return t, nil
}

// GetByUser retrieves all transactions for a user, newest first.
func (r *Repository) GetByUser(userID int64) ([]Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC"

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// GetByUserAndDateRange retrieves a user's transactions with date in
// [startDate, endDate] inclusive.
func (r *Repository) GetByUserAndDateRange(userID int64, startDate, endDate string) ([]Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC, id ASC"

	rows, err := r.db.Query(query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query by date range: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

func (r *Repository) scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var transactions []Transaction

	for rows.Next() {
		var t Transaction
		var externalID, upstreamCategory sql.NullString
		var amount, vatRate, vatAmount, createdAt string

		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&externalID,
			&t.Date,
			&t.Description,
			&amount,
			&upstreamCategory,
			&t.TaxCategory,
			&t.Deductible,
			&t.VATApplicable,
			&vatRate,
			&vatAmount,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if externalID.Valid {
			t.ExternalID = &externalID.String
		}
		if upstreamCategory.Valid {
			t.UpstreamCategory = &upstreamCategory.String
		}

		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		if t.VATRate, err = decimal.NewFromString(vatRate); err != nil {
			return nil, fmt.Errorf("failed to parse vat_rate %q: %w", vatRate, err)
		}
		if t.VATAmount, err = decimal.NewFromString(vatAmount); err != nil {
			return nil, fmt.Errorf("failed to parse vat_amount %q: %w", vatAmount, err)
		}
		t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
