package transactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles transaction HTTP requests.
type Handler struct {
	repo    *Repository
	service *Service
	tax     *TaxService
	log     zerolog.Logger
}

// NewHandler creates a new transactions handler.
func NewHandler(repo *Repository, service *Service, tax *TaxService, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
		tax:     tax,
		log:     log.With().Str("handler", "transactions").Logger(),
	}
}

type uploadRequest struct {
	UserID       *int64           `json:"user_id"`
	Transactions []RawTransaction `json:"transactions"`
}

// HandleUpload handles POST /upload - ingest a JSON batch.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.UserID == nil || req.Transactions == nil {
		http.Error(w, "user_id and transactions array required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(*req.UserID, req.Transactions)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":            fmt.Sprintf("Inserted %d transactions", len(result.Inserted)),
		"inserted":           len(result.Inserted),
		"skipped_duplicates": result.SkippedDuplicates,
		"transactions":       result.Inserted,
	})
}

// HandleList handles GET / - list a user's transactions, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	txns, err := h.repo.GetByUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	if txns == nil {
		txns = []Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"transactions": txns})
}

type taxSummaryRequest struct {
	UserID    *int64 `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// HandleCreateTaxSummary handles POST /tax-summary - aggregate a period and
// persist the resulting summary.
func (h *Handler) HandleCreateTaxSummary(w http.ResponseWriter, r *http.Request) {
	var req taxSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.UserID == nil {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if !isValidDate(req.StartDate) || !isValidDate(req.EndDate) {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if req.StartDate > req.EndDate {
		http.Error(w, "start_date must be <= end_date", http.StatusBadRequest)
		return
	}

	report, err := h.tax.Summarize(*req.UserID, req.StartDate, req.EndDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create tax summary")
		http.Error(w, "Failed to create tax summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"tax_summary": report})
}

// HandleGetTaxSummaries handles GET /tax-summary - retrieve stored summaries
// for an exact period.
func (h *Handler) HandleGetTaxSummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	periodStart := r.URL.Query().Get("period_start")
	periodEnd := r.URL.Query().Get("period_end")
	if !isValidDate(periodStart) || !isValidDate(periodEnd) {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	reports, err := h.tax.GetStored(userID, periodStart, periodEnd)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get tax summaries")
		http.Error(w, "Failed to retrieve tax summaries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"summaries": reports})
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDuplicate):
		http.Error(w, "Duplicate transaction", http.StatusConflict)
	default:
		h.log.Error().Err(err).Msg("Failed to ingest batch")
		http.Error(w, "Failed to ingest transactions", http.StatusInternalServerError)
	}
}

func parseUserID(w http.ResponseWriter, raw string) (int64, bool) {
	if raw == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}

// isValidDate validates YYYY-MM-DD format.
func isValidDate(dateStr string) bool {
	_, err := time.Parse("2006-01-02", dateStr)
	return err == nil
}
