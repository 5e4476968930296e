package transactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SummaryRepository persists tax summaries. Append-only: a new row per
// aggregation request, never merged or superseded.
type SummaryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *sql.DB, log zerolog.Logger) *SummaryRepository {
	return &SummaryRepository{
		db:  db,
		log: log.With().Str("repo", "tax_summaries").Logger(),
	}
}

// Create inserts a summary row and assigns its UUID.
func (r *SummaryRepository) Create(s *TaxSummary) (*TaxSummary, error) {
	s.UUID = uuid.New().String()
	createdAt := time.Now().UTC().Format("2006-01-02 15:04:05")

	result, err := r.db.Exec(`
		INSERT INTO tax_summaries (
			uuid, user_id, period_start, period_end, total_income,
			total_expenses, vat_due, vat_reclaimable, net_profit, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UUID,
		s.UserID,
		s.PeriodStart,
		s.PeriodEnd,
		s.TotalIncome.String(),
		s.TotalExpenses.String(),
		s.VATDue.String(),
		s.VATReclaimable.String(),
		s.NetProfit.String(),
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tax summary: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	s.ID = id
	s.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return s, nil
}

// GetByUserAndPeriod retrieves stored summaries matching a period exactly,
// newest first. Overlapping periods may return multiple rows.
func (r *SummaryRepository) GetByUserAndPeriod(userID int64, periodStart, periodEnd string) ([]TaxSummary, error) {
	rows, err := r.db.Query(`
		SELECT id, uuid, user_id, period_start, period_end, total_income,
		       total_expenses, vat_due, vat_reclaimable, net_profit, created_at
		FROM tax_summaries
		WHERE user_id = ? AND period_start = ? AND period_end = ?
		ORDER BY created_at DESC, id DESC`,
		userID, periodStart, periodEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax summaries: %w", err)
	}
	defer rows.Close()

	var summaries []TaxSummary
	for rows.Next() {
		var s TaxSummary
		var totalIncome, totalExpenses, vatDue, vatReclaimable, netProfit, createdAt string

		err := rows.Scan(
			&s.ID, &s.UUID, &s.UserID, &s.PeriodStart, &s.PeriodEnd,
			&totalIncome, &totalExpenses, &vatDue, &vatReclaimable, &netProfit, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax summary: %w", err)
		}

		if s.TotalIncome, err = decimal.NewFromString(totalIncome); err != nil {
			return nil, fmt.Errorf("failed to parse total_income %q: %w", totalIncome, err)
		}
		if s.TotalExpenses, err = decimal.NewFromString(totalExpenses); err != nil {
			return nil, fmt.Errorf("failed to parse total_expenses %q: %w", totalExpenses, err)
		}
		if s.VATDue, err = decimal.NewFromString(vatDue); err != nil {
			return nil, fmt.Errorf("failed to parse vat_due %q: %w", vatDue, err)
		}
		if s.VATReclaimable, err = decimal.NewFromString(vatReclaimable); err != nil {
			return nil, fmt.Errorf("failed to parse vat_reclaimable %q: %w", vatReclaimable, err)
		}
		if s.NetProfit, err = decimal.NewFromString(netProfit); err != nil {
			return nil, fmt.Errorf("failed to parse net_profit %q: %w", netProfit, err)
		}
		s.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax summaries: %w", err)
	}

	return summaries, nil
}
