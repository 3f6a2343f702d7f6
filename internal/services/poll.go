package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pollme-backend/internal/models"
	"pollme-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	maxPollTextLength   = 255
	maxChoiceTextLength = 255
	minChoicesPerPoll   = 2

	// Page sizes match the listing pages of the web UI.
	ListPageSize    = 6
	OwnListPageSize = 7
)

// PollService handles poll and choice business logic: creation,
// ownership-gated mutation, deletion, and listing.
type PollService struct {
	pollRepo *repository.PollRepository
	userRepo *repository.UserRepository
}

// NewPollService creates a new poll service
func NewPollService(pollRepo *repository.PollRepository, userRepo *repository.UserRepository) *PollService {
	return &PollService{
		pollRepo: pollRepo,
		userRepo: userRepo,
	}
}

func validateText(field, text string, max int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrValidation, field)
	}
	if len(text) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, field, max)
	}
	return nil
}

// CreatePoll creates a poll with its two initial choices. The owner
// must hold the create-poll capability. Poll and choices are written
// in one transaction.
func (s *PollService) CreatePoll(ctx context.Context, owner *models.User, text, choice1, choice2 string) (*models.Poll, error) {
	if owner == nil || !owner.CanCreatePolls {
		return nil, ErrPermissionDenied
	}
	if err := validateText("text", text, maxPollTextLength); err != nil {
		return nil, err
	}
	if err := validateText("choice1", choice1, maxChoiceTextLength); err != nil {
		return nil, err
	}
	if err := validateText("choice2", choice2, maxChoiceTextLength); err != nil {
		return nil, err
	}

	poll := &models.Poll{
		ID:      uuid.New().String(),
		OwnerID: owner.ID,
		Text:    strings.TrimSpace(text),
		Active:  true,
		PubDate: time.Now(),
	}
	choices := []*models.Choice{
		{ID: uuid.New().String(), PollID: poll.ID, ChoiceText: strings.TrimSpace(choice1)},
		{ID: uuid.New().String(), PollID: poll.ID, ChoiceText: strings.TrimSpace(choice2)},
	}

	if err := s.pollRepo.CreateWithChoices(ctx, poll, choices); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

// GetPoll retrieves a poll by ID together with its choices
func (s *PollService) GetPoll(ctx context.Context, pollID string) (*models.Poll, []*models.Choice, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get poll: %w", err)
	}

	choices, err := s.pollRepo.GetChoicesByPoll(ctx, pollID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get choices: %w", err)
	}
	return poll, choices, nil
}

// EditPoll updates the prompt text of a poll. The lookup is scoped to
// the editor, so another user's poll reports as not found.
func (s *PollService) EditPoll(ctx context.Context, pollID, editorID, newText string) (*models.Poll, error) {
	if err := validateText("text", newText, maxPollTextLength); err != nil {
		return nil, err
	}

	poll, err := s.pollRepo.GetByIDAndOwner(ctx, pollID, editorID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	poll.Text = strings.TrimSpace(newText)
	if err := s.pollRepo.UpdateText(ctx, poll.ID, poll.Text); err != nil {
		return nil, fmt.Errorf("failed to update poll: %w", err)
	}
	return poll, nil
}

// DeletePoll removes a poll and, through cascades, its choices and
// votes. Owner-scoped lookup as in EditPoll.
func (s *PollService) DeletePoll(ctx context.Context, pollID, ownerID string) error {
	poll, err := s.pollRepo.GetByIDAndOwner(ctx, pollID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get poll: %w", err)
	}

	if err := s.pollRepo.Delete(ctx, poll.ID); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	return nil
}

// AddChoice appends a choice to a poll owned by the caller
func (s *PollService) AddChoice(ctx context.Context, pollID, ownerID, choiceText string) (*models.Choice, error) {
	if err := validateText("choice_text", choiceText, maxChoiceTextLength); err != nil {
		return nil, err
	}

	poll, err := s.pollRepo.GetByIDAndOwner(ctx, pollID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	choice := &models.Choice{
		ID:         uuid.New().String(),
		PollID:     poll.ID,
		ChoiceText: strings.TrimSpace(choiceText),
	}
	if err := s.pollRepo.AddChoice(ctx, choice); err != nil {
		return nil, fmt.Errorf("failed to add choice: %w", err)
	}
	return choice, nil
}

// resolveOwnedChoice fetches a choice and verifies the caller owns
// its parent poll. Unlike poll-level operations the ownership check
// is explicit here and reports ErrForbidden on mismatch.
func (s *PollService) resolveOwnedChoice(ctx context.Context, choiceID, callerID string) (*models.Choice, error) {
	choice, err := s.pollRepo.GetChoice(ctx, choiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}

	poll, err := s.pollRepo.GetByID(ctx, choice.PollID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return choice, nil
}

// EditChoice updates the text of a choice belonging to a poll the
// caller owns
func (s *PollService) EditChoice(ctx context.Context, choiceID, editorID, newText string) (*models.Choice, error) {
	if err := validateText("choice_text", newText, maxChoiceTextLength); err != nil {
		return nil, err
	}

	choice, err := s.resolveOwnedChoice(ctx, choiceID, editorID)
	if err != nil {
		return nil, err
	}

	choice.ChoiceText = strings.TrimSpace(newText)
	if err := s.pollRepo.UpdateChoice(ctx, choice.ID, choice.ChoiceText); err != nil {
		return nil, fmt.Errorf("failed to update choice: %w", err)
	}
	return choice, nil
}

// DeleteChoice removes a choice belonging to a poll the caller owns.
// A poll never drops below its two initial choices.
func (s *PollService) DeleteChoice(ctx context.Context, choiceID, callerID string) error {
	choice, err := s.resolveOwnedChoice(ctx, choiceID, callerID)
	if err != nil {
		return err
	}

	count, err := s.pollRepo.CountChoices(ctx, choice.PollID)
	if err != nil {
		return fmt.Errorf("failed to count choices: %w", err)
	}
	if count <= minChoicesPerPoll {
		return fmt.Errorf("%w: a poll must keep at least %d choices", ErrValidation, minChoicesPerPoll)
	}

	if err := s.pollRepo.DeleteChoice(ctx, choice.ID); err != nil {
		return fmt.Errorf("failed to delete choice: %w", err)
	}
	return nil
}

// ParseSort maps a query parameter to a listing sort order. Unknown
// values fall back to the default ordering.
func ParseSort(s string) repository.PollSort {
	switch s {
	case "name":
		return repository.SortByName
	case "date":
		return repository.SortByDate
	case "votes":
		return repository.SortByVotes
	default:
		return repository.SortDefault
	}
}

// ListPolls returns one page of all polls, optionally filtered by a
// case-insensitive substring of the prompt text and sorted by name,
// date, or vote count ascending.
func (s *PollService) ListPolls(ctx context.Context, sort repository.PollSort, search string, page int) (*models.PollPage, error) {
	return s.listPage(ctx, page, ListPageSize, func(limit, offset int) ([]models.PollSummary, int, error) {
		return s.pollRepo.List(ctx, sort, search, limit, offset)
	})
}

// ListOwnPolls returns one page of the caller's polls
func (s *PollService) ListOwnPolls(ctx context.Context, ownerID string, page int) (*models.PollPage, error) {
	return s.listPage(ctx, page, OwnListPageSize, func(limit, offset int) ([]models.PollSummary, int, error) {
		return s.pollRepo.ListByOwner(ctx, ownerID, limit, offset)
	})
}

func (s *PollService) listPage(ctx context.Context, page, pageSize int, fetch func(limit, offset int) ([]models.PollSummary, int, error)) (*models.PollPage, error) {
	if page < 1 {
		page = 1
	}

	polls, total, err := fetch(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return &models.PollPage{
		Polls:      polls,
		Page:       page,
		PageSize:   pageSize,
		TotalPolls: total,
		TotalPages: totalPages,
	}, nil
}
