package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pollme-backend/internal/models"
	"pollme-backend/internal/repository"

	"github.com/google/uuid"
)

// VoteService handles vote casting, poll closing, and tallying
type VoteService struct {
	voteRepo *repository.VoteRepository
	pollRepo *repository.PollRepository
}

// NewVoteService creates a new vote service
func NewVoteService(voteRepo *repository.VoteRepository, pollRepo *repository.PollRepository) *VoteService {
	return &VoteService{
		voteRepo: voteRepo,
		pollRepo: pollRepo,
	}
}

// CanVote reports whether a user may still vote on a poll: the poll
// must be active and the user must not have voted yet. This is an
// advisory check; the real guarantee comes from the storage layer.
func (s *VoteService) CanVote(ctx context.Context, userID, pollID string) (bool, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to get poll: %w", err)
	}
	if !poll.Active {
		return false, nil
	}

	voted, err := s.voteRepo.HasVoted(ctx, userID, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return !voted, nil
}

// CastVote records a single vote for a user on a poll. The choice
// must belong to the poll. The insert runs inside a transaction and
// the (user, poll) uniqueness constraint turns a concurrent double
// submission into ErrAlreadyVoted.
func (s *VoteService) CastVote(ctx context.Context, userID, pollID, choiceID string) (*models.Vote, error) {
	ok, err := s.CanVote(ctx, userID, pollID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyVoted
	}

	if choiceID == "" {
		return nil, ErrNoChoiceSelected
	}

	vote := &models.Vote{
		ID:        uuid.New().String(),
		UserID:    userID,
		PollID:    pollID,
		ChoiceID:  choiceID,
		CreatedAt: time.Now(),
	}

	err = s.voteRepo.Cast(ctx, vote)
	switch {
	case err == nil:
		return vote, nil
	case errors.Is(err, repository.ErrNoRows):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrChoiceMismatch):
		return nil, ErrChoiceNotFound
	case errors.Is(err, repository.ErrDuplicateVote), errors.Is(err, repository.ErrPollClosed):
		return nil, ErrAlreadyVoted
	default:
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}
}

// GetUserVote returns the vote a user cast on a poll, or nil if none
func (s *VoteService) GetUserVote(ctx context.Context, userID, pollID string) (*models.Vote, error) {
	vote, err := s.voteRepo.GetByUserAndPoll(ctx, userID, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user vote: %w", err)
	}
	return vote, nil
}

// ClosePoll flips an active poll to closed. Owner-scoped lookup, so
// another user's poll reports as not found. Closing an already closed
// poll is a no-op.
func (s *VoteService) ClosePoll(ctx context.Context, pollID, ownerID string) (*models.Poll, error) {
	poll, err := s.pollRepo.GetByIDAndOwner(ctx, pollID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if poll.Active {
		if err := s.pollRepo.SetActive(ctx, poll.ID, false); err != nil {
			return nil, fmt.Errorf("failed to close poll: %w", err)
		}
		poll.Active = false
	}
	return poll, nil
}

// Tally computes the per-choice vote counts of a poll on demand
func (s *VoteService) Tally(ctx context.Context, pollID string) ([]models.ChoiceTally, error) {
	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	tallies, err := s.voteRepo.TallyByPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally poll: %w", err)
	}
	return tallies, nil
}
