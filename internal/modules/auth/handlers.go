package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiscalguide/fiscalguide/internal/database"
)

// Handler handles signup and login.
type Handler struct {
	repo   *Repository
	tokens *TokenIssuer
	log    zerolog.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(repo *Repository, tokens *TokenIssuer, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		tokens: tokens,
		log:    log.With().Str("handler", "auth").Logger(),
	}
}

type signupRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	BusinessName      string `json:"business_name"`
	BusinessStructure string `json:"business_structure"`
	VATEnabled        bool   `json:"vat_enabled"`
	HasEmployees      bool   `json:"has_employees"`
	NumEmployees      *int64 `json:"num_employees"`
}

// HandleSignup handles POST /signup - register a business owner.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" || req.BusinessName == "" || req.BusinessStructure == "" {
		http.Error(w, "username, password, business_name and business_structure required", http.StatusBadRequest)
		return
	}

	// Headcount only makes sense for employers.
	numEmployees := req.NumEmployees
	if !req.HasEmployees {
		numEmployees = nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to hash password")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	user, err := h.repo.Create(&User{
		Username:          req.Username,
		PasswordHash:      string(hash),
		BusinessName:      req.BusinessName,
		BusinessStructure: req.BusinessStructure,
		VATEnabled:        req.VATEnabled,
		HasEmployees:      req.HasEmployees,
		NumEmployees:      numEmployees,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("User registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User registered",
		"user":    user.Profile(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /login - verify credentials and issue a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetByUsername(req.Username)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	// Unknown user and wrong password get the same answer.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user.Profile(),
	})
}
