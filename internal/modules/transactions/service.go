package transactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/database"
)

// Service is the ingestion/dedup engine: it validates a batch, filters out
// transactions already persisted for the user, classifies the rest, and
// commits everything as one atomic unit.
type Service struct {
	db       *sql.DB
	repo     *Repository
	resolver *Resolver
	log      zerolog.Logger
}

// NewService creates a new ingestion service.
func NewService(db *sql.DB, repo *Repository, resolver *Resolver, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		resolver: resolver,
		log:      log.With().Str("service", "transactions").Logger(),
	}
}

// Ingest processes a batch in input order. Validation is all-or-nothing: the
// first malformed item rejects the whole batch before any write. Inserts are
// staged in a single transaction; a commit failure rolls back everything.
// Idempotent on external_id: re-ingesting a batch inserts nothing new.
func (s *Service) Ingest(userID int64, batch []RawTransaction) (*IngestResult, error) {
	for i, raw := range batch {
		if err := validateRawTransaction(i, raw); err != nil {
			return nil, err
		}
	}

	result := &IngestResult{Inserted: []Transaction{}}

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		for _, raw := range batch {
			if raw.ExternalID != nil && *raw.ExternalID != "" {
				exists, err := s.repo.ExistsTx(tx, userID, *raw.ExternalID)
				if err != nil {
					return err
				}
				if exists {
					result.SkippedDuplicates++
					continue
				}
			}

			classification, err := s.resolver.Resolve(tx, *raw.Description, *raw.Amount, raw.UpstreamCategory)
			if err != nil {
				return err
			}

			t := Transaction{
				UserID:           userID,
				ExternalID:       raw.ExternalID,
				Date:             *raw.Date,
				Description:      *raw.Description,
				Amount:           *raw.Amount,
				UpstreamCategory: raw.UpstreamCategory,
				TaxCategory:      classification.TaxCategory,
				Deductible:       classification.Deductible,
				VATApplicable:    classification.VATApplicable,
				VATRate:          classification.VATRate,
				VATAmount:        raw.Amount.Mul(classification.VATRate),
			}

			inserted, err := s.repo.InsertTx(tx, &t)
			if err != nil {
				return err
			}
			result.Inserted = append(result.Inserted, *inserted)
		}
		return nil
	})

	if err != nil {
		// A unique violation here means a concurrent batch won the
		// check-then-insert race; the constraint is the backstop.
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int("inserted", len(result.Inserted)).
		Int("skipped", result.SkippedDuplicates).
		Msg("Batch ingested")

	return result, nil
}

// validateRawTransaction checks the required fields of one batch item.
func validateRawTransaction(index int, raw RawTransaction) error {
	if raw.Date == nil || *raw.Date == "" {
		return &ValidationError{Index: index, Field: "date"}
	}
	if _, err := time.Parse("2006-01-02", *raw.Date); err != nil {
		return &ValidationError{Index: index, Field: "date"}
	}
	if raw.Description == nil || *raw.Description == "" {
		return &ValidationError{Index: index, Field: "description"}
	}
	if raw.Amount == nil {
		return &ValidationError{Index: index, Field: "amount"}
	}
	return nil
}
