package transactions

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TaxService aggregates a user's transactions over a period into a VAT and
// profit summary, and persists the result.
type TaxService struct {
	repo      *Repository
	summaries *SummaryRepository
	log       zerolog.Logger
}

// NewTaxService creates a new tax aggregation service.
func NewTaxService(repo *Repository, summaries *SummaryRepository, log zerolog.Logger) *TaxService {
	return &TaxService{
		repo:      repo,
		summaries: summaries,
		log:       log.With().Str("service", "tax").Logger(),
	}
}

// Summarize aggregates transactions with date in [periodStart, periodEnd]
// inclusive, stores a new summary row, and returns it with the report-only
// corporation tax figure. A failed fetch or insert surfaces as a persistence
// failure with no partial summary stored.
func (s *TaxService) Summarize(userID int64, periodStart, periodEnd string) (*TaxSummaryReport, error) {
	txns, err := s.repo.GetByUserAndDateRange(userID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summary := aggregate(txns)
	summary.UserID = userID
	summary.PeriodStart = periodStart
	summary.PeriodEnd = periodEnd

	stored, err := s.summaries.Create(&summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("period_start", periodStart).
		Str("period_end", periodEnd).
		Str("net_profit", stored.NetProfit.String()).
		Msg("Tax summary created")

	return &TaxSummaryReport{
		TaxSummary:     *stored,
		CorporationTax: corporationTax(stored.NetProfit),
	}, nil
}

// GetStored returns previously persisted summaries for an exact period,
// with corporation tax recomputed from each stored net profit.
func (s *TaxService) GetStored(userID int64, periodStart, periodEnd string) ([]TaxSummaryReport, error) {
	summaries, err := s.summaries.GetByUserAndPeriod(userID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	reports := make([]TaxSummaryReport, 0, len(summaries))
	for _, summary := range summaries {
		reports = append(reports, TaxSummaryReport{
			TaxSummary:     summary,
			CorporationTax: corporationTax(summary.NetProfit),
		})
	}
	return reports, nil
}

// aggregate computes the six summary figures from a transaction set.
//
// Amounts are stored signed as received; totals sum absolute values so that
// either upstream sign convention yields positive figures. A transaction
// contributes to income when its category is Sales or Income, to expenses
// when it is deductible and not income-categorized, and to neither when it
// is non-deductible and non-income (tax-neutral by design). The VAT buckets
// are deliberately not mutually exclusive: a Sales transaction that is also
// flagged deductible counts in both.
func aggregate(txns []Transaction) TaxSummary {
	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	vatDue := decimal.Zero
	vatReclaimable := decimal.Zero

	for _, t := range txns {
		income := t.TaxCategory == CategorySales || t.TaxCategory == CategoryIncome

		if income {
			totalIncome = totalIncome.Add(t.Amount.Abs())
		} else if t.Deductible {
			totalExpenses = totalExpenses.Add(t.Amount.Abs())
		}

		if t.VATApplicable {
			if t.TaxCategory == CategorySales {
				vatDue = vatDue.Add(t.VATAmount.Abs())
			}
			if t.Deductible {
				vatReclaimable = vatReclaimable.Add(t.VATAmount.Abs())
			}
		}
	}

	return TaxSummary{
		TotalIncome:    totalIncome,
		TotalExpenses:  totalExpenses,
		VATDue:         vatDue,
		VATReclaimable: vatReclaimable,
		NetProfit:      totalIncome.Sub(totalExpenses),
	}
}

// corporationTax is a flat 25% of positive net profit, zero otherwise.
// Report-only: never persisted.
func corporationTax(netProfit decimal.Decimal) decimal.Decimal {
	if netProfit.IsPositive() {
		return netProfit.Mul(CorporationTaxRate)
	}
	return decimal.Zero
}
