package transactions

import (
	"database/sql"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Resolver assigns a tax classification to a raw transaction. It is a
// two-stage pipeline with a fixed precedence: an exact match in the category
// mapping table wins outright; otherwise ordered keyword rules on the
// description decide, with the amount sign as the final tiebreaker.
type Resolver struct {
	mappings *MappingRepository
	log      zerolog.Logger
}

// NewResolver creates a category resolver backed by the mapping table.
func NewResolver(mappings *MappingRepository, log zerolog.Logger) *Resolver {
	return &Resolver{
		mappings: mappings,
		log:      log.With().Str("component", "categorizer").Logger(),
	}
}

// Resolve classifies one transaction. A mapping row, when present, is
// returned verbatim and keyword rules are not consulted. An absent row is
// the designed fallthrough, not an error; a failed lookup query propagates.
// The lookup runs on the caller's transaction so classification and the
// batch insert share one unit of work.
func (r *Resolver) Resolve(tx *sql.Tx, description string, amount decimal.Decimal, upstreamCategory *string) (Classification, error) {
	if upstreamCategory != nil {
		mapping, err := r.mappings.GetByUpstreamCategoryTx(tx, *upstreamCategory)
		if err != nil {
			return Classification{}, err
		}
		if mapping != nil {
			return classificationWithRate(mapping.TaxCategory, mapping.Deductible, mapping.VATApplicable), nil
		}
	}

	category := categorizeByKeywords(description, amount)

	// Heuristic path defaults: deductible and VAT-applicable unless a
	// mapping row says otherwise.
	return classificationWithRate(category, true, true), nil
}

func classificationWithRate(category string, deductible, vatApplicable bool) Classification {
	rate := decimal.Zero
	if vatApplicable {
		rate = StandardVATRate
	}
	return Classification{
		TaxCategory:   category,
		Deductible:    deductible,
		VATApplicable: vatApplicable,
		VATRate:       rate,
	}
}

// categorizeByKeywords applies the ordered keyword rules, first match wins.
func categorizeByKeywords(description string, amount decimal.Decimal) string {
	desc := strings.ToLower(description)

	switch {
	case strings.Contains(desc, "hmrc"):
		return CategoryTax
	case strings.Contains(desc, "salary"), strings.Contains(desc, "payroll"):
		return CategoryIncome
	case strings.Contains(desc, "rent"), strings.Contains(desc, "mortgage"):
		return CategoryRentMortgage
	case strings.Contains(desc, "utility"), strings.Contains(desc, "electricity"), strings.Contains(desc, "gas"):
		return CategoryUtilities
	case amount.IsPositive():
		return CategorySales
	default:
		return CategoryGeneralExpense
	}
}
