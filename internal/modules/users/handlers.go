// Package users exposes public user profiles.
package users

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/modules/auth"
)

// Handler handles user profile requests.
type Handler struct {
	repo *auth.Repository
	log  zerolog.Logger
}

// NewHandler creates a new users handler.
func NewHandler(repo *auth.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "users").Logger(),
	}
}

// HandleProfile handles GET /profile - fetch a profile by username.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetByUsername(username)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		http.Error(w, "Failed to retrieve profile", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user": user.Profile()})
}
