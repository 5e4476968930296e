package banking

import (
	"time"

	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

// BankAccount links a user to an aggregator item via its access token.
type BankAccount struct {
	ID          int64     `json:"id,omitempty"`
	UserID      int64     `json:"user_id"`
	ItemID      string    `json:"item_id"`
	AccessToken string    `json:"-"` // never exposed over the API
	CreatedAt   time.Time `json:"created_at"`
}

// AggregatorClient is the bank-data aggregator capability the banking module
// consumes. Failures must surface as errors, never as empty results.
type AggregatorClient interface {
	IsConfigured() bool
	CreateLinkToken(userID int64) (linkToken, expiration string, err error)
	ExchangePublicToken(publicToken string) (accessToken, itemID string, err error)
	FetchTransactions(accessToken, startDate, endDate string) ([]transactions.RawTransaction, error)
}
