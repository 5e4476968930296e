package banking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

// Handler handles bank linking and sync HTTP requests.
type Handler struct {
	repo       *Repository
	aggregator AggregatorClient
	ingestion  *transactions.Service
	log        zerolog.Logger
}

// NewHandler creates a new banking handler.
func NewHandler(repo *Repository, aggregator AggregatorClient, ingestion *transactions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		repo:       repo,
		aggregator: aggregator,
		ingestion:  ingestion,
		log:        log.With().Str("handler", "banking").Logger(),
	}
}

type linkTokenRequest struct {
	UserID *int64 `json:"user_id"`
}

// HandleCreateLinkToken handles POST /link-token - start the linking flow.
func (h *Handler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	var req linkTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	if !h.aggregator.IsConfigured() {
		http.Error(w, "Bank aggregator not configured", http.StatusServiceUnavailable)
		return
	}

	linkToken, expiration, err := h.aggregator.CreateLinkToken(*req.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", *req.UserID).Msg("Failed to create link token")
		http.Error(w, "Failed to create link token", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"link_token": linkToken,
		"expiration": expiration,
	})
}

type exchangeRequest struct {
	UserID      *int64 `json:"user_id"`
	PublicToken string `json:"public_token"`
}

// HandleExchangePublicToken handles POST /exchange - finish linking by trading
// the public token for a persistent access token.
func (h *Handler) HandleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == nil || req.PublicToken == "" {
		http.Error(w, "user_id and public_token required", http.StatusBadRequest)
		return
	}

	accessToken, itemID, err := h.aggregator.ExchangePublicToken(req.PublicToken)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", *req.UserID).Msg("Failed to exchange public token")
		http.Error(w, "Failed to exchange public token", http.StatusBadGateway)
		return
	}

	account, err := h.repo.Create(&BankAccount{
		UserID:      *req.UserID,
		ItemID:      itemID,
		AccessToken: accessToken,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store bank account")
		http.Error(w, "Failed to store bank account", http.StatusInternalServerError)
		return
	}

	h.log.Info().Int64("user_id", *req.UserID).Str("item_id", itemID).Msg("Bank account linked")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Bank account linked",
		"item_id": account.ItemID,
	})
}

// HandleStatus handles GET /status - report whether a bank is connected.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	account, err := h.repo.GetByUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up bank account")
		http.Error(w, "Failed to look up bank account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if account == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{"connected": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"connected": true,
		"item_id":   account.ItemID,
		"linked_at": account.CreatedAt,
	})
}

// HandleSync handles GET /sync - pull transactions from the aggregator for a
// date range and run them through ingestion. Defaults to the last 30 days.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	endDate := r.URL.Query().Get("end_date")
	startDate := r.URL.Query().Get("start_date")
	if endDate == "" {
		endDate = time.Now().UTC().Format("2006-01-02")
	}
	if startDate == "" {
		startDate = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}
	if !isValidDate(startDate) || !isValidDate(endDate) {
		http.Error(w, "Invalid date format. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	account, err := h.repo.GetByUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up bank account")
		http.Error(w, "Failed to look up bank account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "No bank account connected", http.StatusNotFound)
		return
	}

	raw, err := h.aggregator.FetchTransactions(account.AccessToken, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to fetch transactions from aggregator")
		if errors.Is(err, transactions.ErrUpstream) {
			http.Error(w, "Failed to fetch transactions from bank", http.StatusBadGateway)
		} else {
			http.Error(w, "Failed to fetch transactions from bank", http.StatusInternalServerError)
		}
		return
	}

	result, err := h.ingestion.Ingest(userID, raw)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to ingest synced transactions")
		http.Error(w, "Failed to store synced transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"fetched":            len(raw),
		"inserted":           len(result.Inserted),
		"skipped_duplicates": result.SkippedDuplicates,
		"transactions":       result.Inserted,
		"start_date":         startDate,
		"end_date":           endDate,
	})
}

func (h *Handler) parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
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

func isValidDate(dateStr string) bool {
	_, err := time.Parse("2006-01-02", dateStr)
	return err == nil
}
