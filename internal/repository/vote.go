package repository

import (
	"context"
	"errors"
	"fmt"

	"pollme-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateVote is returned when the votes uniqueness constraint
// rejects a second vote for the same (user, poll) pair.
var ErrDuplicateVote = errors.New("duplicate vote")

// ErrChoiceMismatch is returned when the submitted choice does not
// belong to the poll being voted on.
var ErrChoiceMismatch = errors.New("choice does not belong to poll")

// ErrPollClosed is returned when a vote is cast against an inactive poll.
var ErrPollClosed = errors.New("poll is closed")

const uniqueViolation = "23505"

// VoteRepository handles database operations for votes
type VoteRepository struct {
	db *pgxpool.Pool
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{db: db}
}

// Cast records a vote inside a single transaction. The poll row is
// locked so its active flag cannot flip between the check and the
// insert, the choice is verified to belong to the poll, and the
// (user_id, poll_id) uniqueness constraint closes the race between
// two concurrent casts by the same user.
func (r *VoteRepository) Cast(ctx context.Context, vote *models.Vote) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `SELECT active FROM polls WHERE id = $1 FOR SHARE`, vote.PollID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return fmt.Errorf("failed to get poll for vote: %w", err)
	}
	if !active {
		return ErrPollClosed
	}

	var choicePollID string
	err = tx.QueryRow(ctx, `SELECT poll_id FROM choices WHERE id = $1`, vote.ChoiceID).Scan(&choicePollID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrChoiceMismatch
		}
		return fmt.Errorf("failed to get choice for vote: %w", err)
	}
	if choicePollID != vote.PollID {
		return ErrChoiceMismatch
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO votes (id, user_id, poll_id, choice_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.UserID, vote.PollID, vote.ChoiceID, vote.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return nil
}

// HasVoted checks whether a user already voted on a poll
func (r *VoteRepository) HasVoted(ctx context.Context, userID, pollID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM votes WHERE user_id = $1 AND poll_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, pollID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote existence: %w", err)
	}
	return exists, nil
}

// GetByUserAndPoll retrieves the vote a user cast on a poll, if any
func (r *VoteRepository) GetByUserAndPoll(ctx context.Context, userID, pollID string) (*models.Vote, error) {
	query := `
		SELECT id, user_id, poll_id, choice_id, created_at
		FROM votes
		WHERE user_id = $1 AND poll_id = $2
	`
	var vote models.Vote
	err := r.db.QueryRow(ctx, query, userID, pollID).Scan(
		&vote.ID, &vote.UserID, &vote.PollID, &vote.ChoiceID, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

// TallyByPoll counts votes grouped by choice. Choices without votes
// are included with a zero count.
func (r *VoteRepository) TallyByPoll(ctx context.Context, pollID string) ([]models.ChoiceTally, error) {
	query := `
		SELECT c.id, c.choice_text, COUNT(v.id) AS vote_count
		FROM choices c
		LEFT JOIN votes v ON v.choice_id = c.id
		WHERE c.poll_id = $1
		GROUP BY c.id, c.choice_text
		ORDER BY c.id
	`
	rows, err := r.db.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	var tallies []models.ChoiceTally
	for rows.Next() {
		var t models.ChoiceTally
		if err := rows.Scan(&t.ChoiceID, &t.ChoiceText, &t.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tallies: %w", err)
	}
	return tallies, nil
}
