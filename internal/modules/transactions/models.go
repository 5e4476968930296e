package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax categories assigned at ingestion time. The set is closed: the resolver
// never produces a value outside this list.
const (
	CategoryTax            = "Tax"
	CategoryIncome         = "Income"
	CategoryRentMortgage   = "Rent/Mortgage"
	CategoryUtilities      = "Utilities"
	CategorySales          = "Sales"
	CategoryGeneralExpense = "General Expense"
)

// Flat rates. Real tax law is out of scope.
var (
	StandardVATRate    = decimal.NewFromFloat(0.20)
	CorporationTaxRate = decimal.NewFromFloat(0.25)
)

// Transaction is a persisted, classified bank transaction (append-mostly).
// Classification fields are a snapshot taken at ingestion and are never
// rewritten, even if the category mapping table changes later.
type Transaction struct {
	ID               int64           `json:"id,omitempty"`
	UserID           int64           `json:"user_id"`
	ExternalID       *string         `json:"external_id,omitempty"` // aggregator transaction id, dedup key
	Date             string          `json:"date"`                  // YYYY-MM-DD
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"` // signed, stored as received
	UpstreamCategory *string         `json:"upstream_category,omitempty"`
	TaxCategory      string          `json:"tax_category"`
	Deductible       bool            `json:"deductible"`
	VATApplicable    bool            `json:"vat_applicable"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	VATAmount        decimal.Decimal `json:"vat_amount"` // amount x vat_rate, computed once
	CreatedAt        time.Time       `json:"created_at"`
}

// RawTransaction is an unclassified transaction as received from the
// aggregator or an upload request. Pointer fields distinguish absent from
// zero-valued input during validation.
type RawTransaction struct {
	ExternalID       *string          `json:"external_id,omitempty"`
	Date             *string          `json:"date"`
	Description      *string          `json:"description"`
	Amount           *decimal.Decimal `json:"amount"`
	UpstreamCategory *string          `json:"upstream_category,omitempty"`
}

// Classification is the resolver's verdict for a single transaction.
type Classification struct {
	TaxCategory   string
	Deductible    bool
	VATApplicable bool
	VATRate       decimal.Decimal
}

// CategoryMapping maps an aggregator category label to a classification.
// Global reference data, shared read-only by the resolver.
type CategoryMapping struct {
	ID               int64  `json:"id,omitempty"`
	UpstreamCategory string `json:"upstream_category"`
	TaxCategory      string `json:"tax_category"`
	Deductible       bool   `json:"deductible"`
	VATApplicable    bool   `json:"vat_applicable"`
}

// IngestResult reports the outcome of one batch ingestion.
type IngestResult struct {
	Inserted          []Transaction `json:"inserted"`
	SkippedDuplicates int           `json:"skipped_duplicates"`
}

// TaxSummary is a persisted per-period aggregate. Append-only: overlapping
// periods may accumulate multiple summaries.
type TaxSummary struct {
	ID             int64           `json:"id,omitempty"`
	UUID           string          `json:"uuid"`
	UserID         int64           `json:"user_id"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	VATDue         decimal.Decimal `json:"vat_due"`
	VATReclaimable decimal.Decimal `json:"vat_reclaimable"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TaxSummaryReport is the API view of a summary: the persisted aggregates
// plus the report-only corporation tax figure.
type TaxSummaryReport struct {
	TaxSummary
	CorporationTax decimal.Decimal `json:"corporation_tax"`
}
