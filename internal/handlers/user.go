package handlers

import (
	"encoding/json"
	"net/http"

	"pollme-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse carries the session token issued after
// registration or login
type SessionResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(ctx, req.Username, req.Password)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		respondServiceError(w, err)
		return
	}

	token, err := h.userService.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, SessionResponse{
		UserID:   user.ID,
		Username: user.Username,
		Token:    token,
	})
}

// Login handles POST /api/v1/sessions
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Msg("Failed login attempt")
		respondServiceError(w, err)
		return
	}

	token, err := h.userService.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("User logged in")

	respondJSON(w, http.StatusOK, SessionResponse{
		UserID:   user.ID,
		Username: user.Username,
		Token:    token,
	})
}
