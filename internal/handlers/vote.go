package handlers

import (
	"encoding/json"
	"net/http"

	"pollme-backend/internal/middleware"
	"pollme-backend/internal/models"
	"pollme-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// VoteHandler handles vote-related HTTP requests
type VoteHandler struct {
	voteService *services.VoteService
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(voteService *services.VoteService) *VoteHandler {
	return &VoteHandler{
		voteService: voteService,
	}
}

// CastVoteRequest represents the request body for casting a vote
type CastVoteRequest struct {
	ChoiceID string `json:"choice_id"`
}

// ResultsResponse is the tally of a poll
type ResultsResponse struct {
	PollID string               `json:"poll_id"`
	Tally  []models.ChoiceTally `json:"tally"`
}

// Cast handles POST /api/v1/polls/{poll_id}/votes
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	pollID := chi.URLParam(r, "poll_id")

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	vote, err := h.voteService.CastVote(ctx, userID, pollID, req.ChoiceID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("poll_id", pollID).
			Str("choice_id", req.ChoiceID).
			Msg("Failed to cast vote")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", pollID).
		Str("choice_id", vote.ChoiceID).
		Msg("Vote cast")

	respondJSON(w, http.StatusCreated, vote)
}

// Close handles POST /api/v1/polls/{poll_id}/close
func (h *VoteHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	pollID := chi.URLParam(r, "poll_id")

	poll, err := h.voteService.ClosePoll(ctx, pollID, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("poll_id", pollID).Msg("Failed to close poll")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", pollID).
		Msg("Poll closed")

	respondJSON(w, http.StatusOK, poll)
}

// Results handles GET /api/v1/polls/{poll_id}/results
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "poll_id")

	tally, err := h.voteService.Tally(ctx, pollID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ResultsResponse{
		PollID: pollID,
		Tally:  tally,
	})
}
