// Package advisor answers what-if scenario questions using the external
// advisor service, with the user's transaction history as context.
package advisor

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/clients/advisor"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

// fallbackAnswer is returned when the advisor service is down. The question
// is never silently dropped.
const fallbackAnswer = "Sorry, the advisor is unavailable right now. Please try again in a few minutes."

// Handler handles scenario chat requests.
type Handler struct {
	client       *advisor.Client
	transactions *transactions.Repository
	log          zerolog.Logger
}

// NewHandler creates a new advisor handler.
func NewHandler(client *advisor.Client, txns *transactions.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		client:       client,
		transactions: txns,
		log:          log.With().Str("handler", "advisor").Logger(),
	}
}

type queryRequest struct {
	UserID *int64 `json:"user_id"`
	Query  string `json:"query"`
}

// HandleQuery handles POST /query - forward a scenario question to the
// advisor service along with the user's transactions.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == nil || req.Query == "" {
		http.Error(w, "user_id and query required", http.StatusBadRequest)
		return
	}

	if !h.client.IsConfigured() {
		h.writeAnswer(w, fallbackAnswer)
		return
	}

	txns, err := h.transactions.GetByUser(*req.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions for advisor context")
		http.Error(w, "Failed to load transaction context", http.StatusInternalServerError)
		return
	}

	answer, err := h.client.Query(*req.UserID, req.Query, txns)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", *req.UserID).Msg("Advisor service failed, returning fallback")
		h.writeAnswer(w, fallbackAnswer)
		return
	}

	h.writeAnswer(w, answer)
}

func (h *Handler) writeAnswer(w http.ResponseWriter, answer string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"answer": answer})
}
