// Package jobs contains the scheduled bank sync job.
package jobs

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/modules/banking"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

// SyncJob pulls recent transactions for every linked bank account. Each
// account is synced independently so one upstream failure does not block the
// rest.
type SyncJob struct {
	accounts   *banking.Repository
	aggregator banking.AggregatorClient
	ingestion  *transactions.Service
	log        zerolog.Logger
}

// NewSyncJob creates a new bank sync job.
func NewSyncJob(accounts *banking.Repository, aggregator banking.AggregatorClient, ingestion *transactions.Service, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		accounts:   accounts,
		aggregator: aggregator,
		ingestion:  ingestion,
		log:        log.With().Str("job", "bank_sync").Logger(),
	}
}

// Name returns the job name for scheduler logs.
func (j *SyncJob) Name() string {
	return "bank_sync"
}

// Run syncs the last 30 days for every linked account.
func (j *SyncJob) Run() error {
	if !j.aggregator.IsConfigured() {
		j.log.Debug().Msg("Aggregator not configured, skipping bank sync")
		return nil
	}

	accounts, err := j.accounts.All()
	if err != nil {
		return fmt.Errorf("failed to list bank accounts: %w", err)
	}
	if len(accounts) == 0 {
		j.log.Debug().Msg("No linked bank accounts to sync")
		return nil
	}

	endDate := time.Now().UTC().Format("2006-01-02")
	startDate := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")

	var failures int
	for _, account := range accounts {
		raw, err := j.aggregator.FetchTransactions(account.AccessToken, startDate, endDate)
		if err != nil {
			failures++
			j.log.Error().Err(err).Int64("user_id", account.UserID).Msg("Failed to fetch transactions")
			continue
		}

		result, err := j.ingestion.Ingest(account.UserID, raw)
		if err != nil {
			failures++
			j.log.Error().Err(err).Int64("user_id", account.UserID).Msg("Failed to ingest transactions")
			continue
		}

		j.log.Info().
			Int64("user_id", account.UserID).
			Int("fetched", len(raw)).
			Int("inserted", len(result.Inserted)).
			Int("skipped", result.SkippedDuplicates).
			Msg("Bank account synced")
	}

	if failures > 0 {
		return fmt.Errorf("bank sync completed with %d of %d accounts failing", failures, len(accounts))
	}
	return nil
}
