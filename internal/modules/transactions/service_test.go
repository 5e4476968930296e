package transactions

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, db *sql.DB) *Service {
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(NewMappingRepository(db, zerolog.Nop()), zerolog.Nop())
	return NewService(db, repo, resolver, zerolog.Nop())
}

func TestIngest_ClassifiesAndComputesVAT(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	result, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-01-15"), Description: strPtr("HMRC VAT payment"), Amount: decPtr("-500.00")},
	})
	require.NoError(t, err)
	require.Len(t, result.Inserted, 1)

	inserted := result.Inserted[0]
	assert.Equal(t, CategoryTax, inserted.TaxCategory)
	assert.True(t, inserted.Deductible)
	assert.True(t, inserted.VATApplicable)
	assert.True(t, inserted.VATRate.Equal(decimal.RequireFromString("0.2")))
	// vat_amount = amount x vat_rate, stored once, sign preserved.
	assert.True(t, inserted.VATAmount.Equal(decimal.RequireFromString("-100")))
}

func TestIngest_IdempotentOnExternalID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	batch := []RawTransaction{
		{ExternalID: strPtr("plaid-tx-1"), Date: strPtr("2026-01-10"), Description: strPtr("Coffee"), Amount: decPtr("-3.50")},
		{ExternalID: strPtr("plaid-tx-2"), Date: strPtr("2026-01-11"), Description: strPtr("Invoice payment"), Amount: decPtr("250.00")},
	}

	first, err := service.Ingest(1, batch)
	require.NoError(t, err)
	assert.Len(t, first.Inserted, 2)
	assert.Equal(t, 0, first.SkippedDuplicates)

	second, err := service.Ingest(1, batch)
	require.NoError(t, err)
	assert.Len(t, second.Inserted, 0)
	assert.Equal(t, 2, second.SkippedDuplicates)

	repo := NewRepository(db, zerolog.Nop())
	txns, err := repo.GetByUser(1)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestIngest_SameExternalIDDifferentUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	batch := []RawTransaction{
		{ExternalID: strPtr("shared-id"), Date: strPtr("2026-01-10"), Description: strPtr("Subscription"), Amount: decPtr("-9.99")},
	}

	_, err := service.Ingest(1, batch)
	require.NoError(t, err)

	// Uniqueness is scoped per user, not global.
	result, err := service.Ingest(2, batch)
	require.NoError(t, err)
	assert.Len(t, result.Inserted, 1)
}

func TestIngest_ValidationRejectsWholeBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	_, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-01-10"), Description: strPtr("Valid item"), Amount: decPtr("100.00")},
		{Date: strPtr("2026-01-11"), Description: strPtr("Missing amount")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, "amount", vErr.Field)

	// Nothing was written, including the valid item.
	repo := NewRepository(db, zerolog.Nop())
	txns, err := repo.GetByUser(1)
	require.NoError(t, err)
	assert.Len(t, txns, 0)
}

func TestIngest_InvalidDateFormat(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	_, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("15/01/2026"), Description: strPtr("Wrong date format"), Amount: decPtr("10.00")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestIngest_ZeroAmountIsValid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	result, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-01-10"), Description: strPtr("Fee waiver"), Amount: decPtr("0")},
	})
	require.NoError(t, err)
	require.Len(t, result.Inserted, 1)
	assert.Equal(t, CategoryGeneralExpense, result.Inserted[0].TaxCategory)
}

func TestIngest_MissingExternalIDNeverDeduped(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	service := newTestService(t, db)

	batch := []RawTransaction{
		{Date: strPtr("2026-01-10"), Description: strPtr("Cash expense"), Amount: decPtr("-20.00")},
	}

	_, err := service.Ingest(1, batch)
	require.NoError(t, err)

	// No external id means no dedup key; a re-upload inserts again.
	result, err := service.Ingest(1, batch)
	require.NoError(t, err)
	assert.Len(t, result.Inserted, 1)
	assert.Equal(t, 0, result.SkippedDuplicates)
}

func TestIngest_MappingOverridesKeywords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	mappings := NewMappingRepository(db, zerolog.Nop())
	_, err := mappings.Create(&CategoryMapping{
		UpstreamCategory: "INCOME.WAGES",
		TaxCategory:      CategoryIncome,
		Deductible:       false,
		VATApplicable:    false,
	})
	require.NoError(t, err)

	repo := NewRepository(db, zerolog.Nop())
	service := NewService(db, repo, NewResolver(mappings, zerolog.Nop()), zerolog.Nop())

	result, err := service.Ingest(1, []RawTransaction{
		{
			Date:             strPtr("2026-01-10"),
			Description:      strPtr("Rent received"), // keyword rule would say Rent/Mortgage
			Amount:           decPtr("1500.00"),
			UpstreamCategory: strPtr("INCOME.WAGES"),
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Inserted, 1)

	inserted := result.Inserted[0]
	assert.Equal(t, CategoryIncome, inserted.TaxCategory)
	assert.False(t, inserted.Deductible)
	assert.False(t, inserted.VATApplicable)
	assert.True(t, inserted.VATAmount.IsZero())
}

func TestIngest_MappedBatchIsOneUnitOfWork(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	mappings := NewMappingRepository(db, zerolog.Nop())
	_, err := mappings.Create(&CategoryMapping{
		UpstreamCategory: "GENERAL_SERVICES.ACCOUNTING",
		TaxCategory:      CategoryGeneralExpense,
		Deductible:       true,
		VATApplicable:    true,
	})
	require.NoError(t, err)

	repo := NewRepository(db, zerolog.Nop())
	service := NewService(db, repo, NewResolver(mappings, zerolog.Nop()), zerolog.Nop())

	// Mapping lookups happen while the batch transaction already holds
	// staged inserts. An in-memory database gives every pool connection
	// its own empty database, so a lookup that strayed off the batch
	// connection would not even see the schema.
	result, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-02-01"), Description: strPtr("Stationery"), Amount: decPtr("-12.00")},
		{Date: strPtr("2026-02-02"), Description: strPtr("Accountant fees"), Amount: decPtr("-300.00"), UpstreamCategory: strPtr("GENERAL_SERVICES.ACCOUNTING")},
		{Date: strPtr("2026-02-03"), Description: strPtr("Consulting invoice"), Amount: decPtr("900.00"), UpstreamCategory: strPtr("NOT_MAPPED")},
	})
	require.NoError(t, err)
	require.Len(t, result.Inserted, 3)

	assert.Equal(t, CategoryGeneralExpense, result.Inserted[0].TaxCategory)
	assert.Equal(t, CategoryGeneralExpense, result.Inserted[1].TaxCategory)
	assert.Equal(t, CategorySales, result.Inserted[2].TaxCategory)
}
