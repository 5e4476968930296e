package jobs

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fiscalguide/fiscalguide/internal/modules/banking"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

type mockAggregator struct {
	configured bool
	// keyed by access token, so per-account failures can be simulated
	results map[string][]transactions.RawTransaction
	fail    map[string]bool
}

func (m *mockAggregator) IsConfigured() bool { return m.configured }

func (m *mockAggregator) CreateLinkToken(userID int64) (string, string, error) {
	return "", "", fmt.Errorf("not used")
}

func (m *mockAggregator) ExchangePublicToken(publicToken string) (string, string, error) {
	return "", "", fmt.Errorf("not used")
}

func (m *mockAggregator) FetchTransactions(accessToken, startDate, endDate string) ([]transactions.RawTransaction, error) {
	if m.fail[accessToken] {
		return nil, fmt.Errorf("mock fetch error")
	}
	return m.results[accessToken], nil
}

func setupSyncTest(t *testing.T) (*sql.DB, *banking.Repository, *transactions.Service) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, banking.InitSchema(db))
	require.NoError(t, transactions.InitSchema(db))

	accounts := banking.NewRepository(db, zerolog.Nop())
	txnRepo := transactions.NewRepository(db, zerolog.Nop())
	resolver := transactions.NewResolver(transactions.NewMappingRepository(db, zerolog.Nop()), zerolog.Nop())
	ingestion := transactions.NewService(db, txnRepo, resolver, zerolog.Nop())
	return db, accounts, ingestion
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSyncJob_SyncsAllAccounts(t *testing.T) {
	db, accounts, ingestion := setupSyncTest(t)

	_, err := accounts.Create(&banking.BankAccount{UserID: 1, ItemID: "item-1", AccessToken: "tok-1"})
	require.NoError(t, err)
	_, err = accounts.Create(&banking.BankAccount{UserID: 2, ItemID: "item-2", AccessToken: "tok-2"})
	require.NoError(t, err)

	mock := &mockAggregator{
		configured: true,
		results: map[string][]transactions.RawTransaction{
			"tok-1": {{ExternalID: strPtr("a"), Date: strPtr("2026-01-10"), Description: strPtr("Coffee"), Amount: decPtr("-3.50")}},
			"tok-2": {{ExternalID: strPtr("b"), Date: strPtr("2026-01-11"), Description: strPtr("Invoice payment"), Amount: decPtr("500.00")}},
		},
		fail: map[string]bool{},
	}

	job := NewSyncJob(accounts, mock, ingestion, zerolog.Nop())
	require.NoError(t, job.Run())

	txnRepo := transactions.NewRepository(db, zerolog.Nop())
	for userID, want := range map[int64]int{1: 1, 2: 1} {
		txns, err := txnRepo.GetByUser(userID)
		require.NoError(t, err)
		assert.Len(t, txns, want)
	}
}

func TestSyncJob_OneAccountFailingDoesNotBlockOthers(t *testing.T) {
	db, accounts, ingestion := setupSyncTest(t)

	_, err := accounts.Create(&banking.BankAccount{UserID: 1, ItemID: "item-1", AccessToken: "tok-1"})
	require.NoError(t, err)
	_, err = accounts.Create(&banking.BankAccount{UserID: 2, ItemID: "item-2", AccessToken: "tok-2"})
	require.NoError(t, err)

	mock := &mockAggregator{
		configured: true,
		results: map[string][]transactions.RawTransaction{
			"tok-2": {{ExternalID: strPtr("b"), Date: strPtr("2026-01-11"), Description: strPtr("Invoice payment"), Amount: decPtr("500.00")}},
		},
		fail: map[string]bool{"tok-1": true},
	}

	job := NewSyncJob(accounts, mock, ingestion, zerolog.Nop())
	err = job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// The healthy account still synced.
	txnRepo := transactions.NewRepository(db, zerolog.Nop())
	txns, err := txnRepo.GetByUser(2)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestSyncJob_SkipsWhenNotConfigured(t *testing.T) {
	_, accounts, ingestion := setupSyncTest(t)

	job := NewSyncJob(accounts, &mockAggregator{configured: false}, ingestion, zerolog.Nop())
	assert.NoError(t, job.Run())
}
