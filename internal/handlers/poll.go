package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pollme-backend/internal/middleware"
	"pollme-backend/internal/models"
	"pollme-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PollHandler handles poll-related HTTP requests
type PollHandler struct {
	pollService *services.PollService
	voteService *services.VoteService
	userService *services.UserService
}

// NewPollHandler creates a new poll handler
func NewPollHandler(pollService *services.PollService, voteService *services.VoteService, userService *services.UserService) *PollHandler {
	return &PollHandler{
		pollService: pollService,
		voteService: voteService,
		userService: userService,
	}
}

// CreatePollRequest represents the request body for creating a poll
type CreatePollRequest struct {
	Text    string `json:"text"`
	Choice1 string `json:"choice1"`
	Choice2 string `json:"choice2"`
}

// EditPollRequest represents the request body for editing a poll
type EditPollRequest struct {
	Text string `json:"text"`
}

// ChoiceRequest represents the request body for adding or editing a choice
type ChoiceRequest struct {
	ChoiceText string `json:"choice_text"`
}

// PollDetailResponse is a poll with its choices and, when the caller
// is authenticated, the caller's existing vote. Closed polls include
// their tally.
type PollDetailResponse struct {
	Poll     *models.Poll         `json:"poll"`
	Choices  []*models.Choice     `json:"choices"`
	UserVote *models.Vote         `json:"user_vote,omitempty"`
	Tally    []models.ChoiceTally `json:"tally,omitempty"`
}

// ListResponse is one page of polls plus the filter parameters that
// produced it, so clients can carry them across page links
type ListResponse struct {
	*models.PollPage
	Sort   string `json:"sort,omitempty"`
	Search string `json:"search,omitempty"`
}

// List handles GET /api/v1/polls
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sortParam := r.URL.Query().Get("sort")
	search := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	pollPage, err := h.pollService.ListPolls(ctx, services.ParseSort(sortParam), search, page)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list polls")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{
		PollPage: pollPage,
		Sort:     sortParam,
		Search:   search,
	})
}

// ListMine handles GET /api/v1/polls/mine
func (h *PollHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	pollPage, err := h.pollService.ListOwnPolls(ctx, userID, page)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list own polls")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{PollPage: pollPage})
}

// Create handles POST /api/v1/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	owner, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve caller")
		respondServiceError(w, err)
		return
	}

	poll, err := h.pollService.CreatePoll(ctx, owner, req.Text, req.Choice1, req.Choice2)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create poll")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", poll.ID).
		Msg("Poll created")

	respondJSON(w, http.StatusCreated, poll)
}

// Detail handles GET /api/v1/polls/{poll_id}
func (h *PollHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID := chi.URLParam(r, "poll_id")
	userID := middleware.GetUserID(ctx)

	poll, choices, err := h.pollService.GetPoll(ctx, pollID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := PollDetailResponse{Poll: poll, Choices: choices}

	if userID != "" {
		vote, err := h.voteService.GetUserVote(ctx, userID, pollID)
		if err != nil {
			log.Error().Err(err).Str("poll_id", pollID).Msg("Failed to get user vote")
			respondServiceError(w, err)
			return
		}
		resp.UserVote = vote
	}

	// Closed polls answer with their results directly.
	if !poll.Active {
		tally, err := h.voteService.Tally(ctx, pollID)
		if err != nil {
			log.Error().Err(err).Str("poll_id", pollID).Msg("Failed to tally poll")
			respondServiceError(w, err)
			return
		}
		resp.Tally = tally
	}

	respondJSON(w, http.StatusOK, resp)
}

// Edit handles PATCH /api/v1/polls/{poll_id}
func (h *PollHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	pollID := chi.URLParam(r, "poll_id")

	var req EditPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	poll, err := h.pollService.EditPoll(ctx, pollID, userID, req.Text)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("poll_id", pollID).Msg("Failed to edit poll")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", pollID).
		Msg("Poll updated")

	respondJSON(w, http.StatusOK, poll)
}

// Delete handles DELETE /api/v1/polls/{poll_id}
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	pollID := chi.URLParam(r, "poll_id")

	if err := h.pollService.DeletePoll(ctx, pollID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("poll_id", pollID).Msg("Failed to delete poll")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", pollID).
		Msg("Poll deleted")

	w.WriteHeader(http.StatusNoContent)
}

// AddChoice handles POST /api/v1/polls/{poll_id}/choices
func (h *PollHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	pollID := chi.URLParam(r, "poll_id")

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	choice, err := h.pollService.AddChoice(ctx, pollID, userID, req.ChoiceText)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("poll_id", pollID).Msg("Failed to add choice")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("poll_id", pollID).
		Str("choice_id", choice.ID).
		Msg("Choice added")

	respondJSON(w, http.StatusCreated, choice)
}

// EditChoice handles PATCH /api/v1/choices/{choice_id}
func (h *PollHandler) EditChoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	choiceID := chi.URLParam(r, "choice_id")

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	choice, err := h.pollService.EditChoice(ctx, choiceID, userID, req.ChoiceText)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("choice_id", choiceID).Msg("Failed to edit choice")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("choice_id", choiceID).
		Msg("Choice updated")

	respondJSON(w, http.StatusOK, choice)
}

// DeleteChoice handles DELETE /api/v1/choices/{choice_id}
func (h *PollHandler) DeleteChoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	choiceID := chi.URLParam(r, "choice_id")

	if err := h.pollService.DeleteChoice(ctx, choiceID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("choice_id", choiceID).Msg("Failed to delete choice")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("choice_id", choiceID).
		Msg("Choice deleted")

	w.WriteHeader(http.StatusNoContent)
}
