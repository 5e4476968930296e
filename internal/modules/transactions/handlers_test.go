package transactions

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, db *sql.DB) *Handler {
	repo := NewRepository(db, zerolog.Nop())
	resolver := NewResolver(NewMappingRepository(db, zerolog.Nop()), zerolog.Nop())
	service := NewService(db, repo, resolver, zerolog.Nop())
	tax := NewTaxService(repo, NewSummaryRepository(db, zerolog.Nop()), zerolog.Nop())
	return NewHandler(repo, service, tax, zerolog.Nop())
}

func TestHandleUpload(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	body := `{
		"user_id": 1,
		"transactions": [
			{"date": "2026-01-15", "description": "HMRC VAT payment", "amount": "-500.00"},
			{"date": "2026-01-16", "description": "Invoice payment", "amount": "1000.00"}
		]
	}`

	req := httptest.NewRequest("POST", "/upload", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleUpload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Inserted          int           `json:"inserted"`
		SkippedDuplicates int           `json:"skipped_duplicates"`
		Transactions      []Transaction `json:"transactions"`
	}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Inserted)
	assert.Equal(t, 0, resp.SkippedDuplicates)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, CategoryTax, resp.Transactions[0].TaxCategory)
	assert.Equal(t, CategorySales, resp.Transactions[1].TaxCategory)
}

func TestHandleUpload_MissingUserID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	req := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"transactions": []}`))
	w := httptest.NewRecorder()
	handler.HandleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpload_ValidationError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	body := `{
		"user_id": 1,
		"transactions": [
			{"date": "2026-01-15", "description": "No amount"}
		]
	}`

	req := httptest.NewRequest("POST", "/upload", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "amount")
}

func TestHandleList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	service := newTestService(t, db)
	_, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-01-10"), Description: strPtr("Coffee"), Amount: decPtr("-3.50")},
		{Date: strPtr("2026-01-12"), Description: strPtr("Invoice payment"), Amount: decPtr("250.00")},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/?user_id=1", nil)
	w := httptest.NewRecorder()
	handler.HandleList(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)
	// Newest first.
	assert.Equal(t, "2026-01-12", resp.Transactions[0].Date)
}

func TestHandleList_EmptyForUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	req := httptest.NewRequest("GET", "/?user_id=99", nil)
	w := httptest.NewRecorder()
	handler.HandleList(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transactions": []}`, w.Body.String())
}

func TestHandleCreateTaxSummary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	service := newTestService(t, db)
	_, err := service.Ingest(1, []RawTransaction{
		{Date: strPtr("2026-01-05"), Description: strPtr("Invoice payment"), Amount: decPtr("1000.00")},
		{Date: strPtr("2026-01-12"), Description: strPtr("Office rent"), Amount: decPtr("-200.00")},
	})
	require.NoError(t, err)

	body := `{"user_id": 1, "start_date": "2026-01-01", "end_date": "2026-01-31"}`
	req := httptest.NewRequest("POST", "/tax-summary", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleCreateTaxSummary(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TaxSummary TaxSummaryReport `json:"tax_summary"`
	}
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.TaxSummary.NetProfit.Equal(dec("800")))
	assert.True(t, resp.TaxSummary.CorporationTax.Equal(dec("200")))
}

func TestHandleCreateTaxSummary_InvalidPeriod(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	tests := []struct {
		name string
		body string
	}{
		{"bad date format", `{"user_id": 1, "start_date": "01-01-2026", "end_date": "2026-01-31"}`},
		{"reversed range", `{"user_id": 1, "start_date": "2026-02-01", "end_date": "2026-01-01"}`},
		{"missing user", `{"start_date": "2026-01-01", "end_date": "2026-01-31"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/tax-summary", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.HandleCreateTaxSummary(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleGetTaxSummaries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	body := `{"user_id": 1, "start_date": "2026-01-01", "end_date": "2026-01-31"}`
	req := httptest.NewRequest("POST", "/tax-summary", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleCreateTaxSummary(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/tax-summary?user_id=1&period_start=2026-01-01&period_end=2026-01-31", nil)
	w = httptest.NewRecorder()
	handler.HandleGetTaxSummaries(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summaries []TaxSummaryReport `json:"summaries"`
	}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Len(t, resp.Summaries, 1)
}
