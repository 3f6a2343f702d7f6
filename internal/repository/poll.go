package repository

import (
	"context"
	"errors"
	"fmt"

	"pollme-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PollSort selects the ordering of a poll listing
type PollSort string

const (
	SortDefault PollSort = ""
	SortByName  PollSort = "name"
	SortByDate  PollSort = "date"
	SortByVotes PollSort = "votes"
)

// PollRepository handles database operations for polls and their choices
type PollRepository struct {
	db *pgxpool.Pool
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *pgxpool.Pool) *PollRepository {
	return &PollRepository{db: db}
}

// CreateWithChoices creates a poll and its initial choices in a single
// transaction so that a poll can never be observed with fewer choices
// than it was created with.
func (r *PollRepository) CreateWithChoices(ctx context.Context, poll *models.Poll, choices []*models.Choice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO polls (id, owner_id, text, active, pub_date)
		VALUES ($1, $2, $3, $4, $5)
	`, poll.ID, poll.OwnerID, poll.Text, poll.Active, poll.PubDate)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}

	for _, choice := range choices {
		_, err = tx.Exec(ctx, `
			INSERT INTO choices (id, poll_id, choice_text)
			VALUES ($1, $2, $3)
		`, choice.ID, choice.PollID, choice.ChoiceText)
		if err != nil {
			return fmt.Errorf("failed to create choice: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit poll creation: %w", err)
	}
	return nil
}

// GetByID retrieves a poll by ID
func (r *PollRepository) GetByID(ctx context.Context, id string) (*models.Poll, error) {
	query := `
		SELECT id, owner_id, text, active, pub_date
		FROM polls
		WHERE id = $1
	`
	var poll models.Poll
	err := r.db.QueryRow(ctx, query, id).Scan(
		&poll.ID, &poll.OwnerID, &poll.Text, &poll.Active, &poll.PubDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return &poll, nil
}

// GetByIDAndOwner retrieves a poll by ID scoped to its owner. A poll
// owned by someone else is indistinguishable from a missing poll.
func (r *PollRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Poll, error) {
	query := `
		SELECT id, owner_id, text, active, pub_date
		FROM polls
		WHERE id = $1 AND owner_id = $2
	`
	var poll models.Poll
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&poll.ID, &poll.OwnerID, &poll.Text, &poll.Active, &poll.PubDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get poll by owner: %w", err)
	}
	return &poll, nil
}

// UpdateText updates the prompt text of a poll
func (r *PollRepository) UpdateText(ctx context.Context, id, text string) error {
	result, err := r.db.Exec(ctx, `UPDATE polls SET text = $1 WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// SetActive updates the active flag of a poll
func (r *PollRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE polls SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update poll active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Delete deletes a poll by ID. Choices and votes are removed by the
// ON DELETE CASCADE constraints.
func (r *PollRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// AddChoice appends a choice to an existing poll
func (r *PollRepository) AddChoice(ctx context.Context, choice *models.Choice) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO choices (id, poll_id, choice_text)
		VALUES ($1, $2, $3)
	`, choice.ID, choice.PollID, choice.ChoiceText)
	if err != nil {
		return fmt.Errorf("failed to add choice: %w", err)
	}
	return nil
}

// GetChoice retrieves a choice by ID
func (r *PollRepository) GetChoice(ctx context.Context, id string) (*models.Choice, error) {
	query := `SELECT id, poll_id, choice_text FROM choices WHERE id = $1`
	var choice models.Choice
	err := r.db.QueryRow(ctx, query, id).Scan(&choice.ID, &choice.PollID, &choice.ChoiceText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get choice: %w", err)
	}
	return &choice, nil
}

// GetChoicesByPoll retrieves all choices of a poll
func (r *PollRepository) GetChoicesByPoll(ctx context.Context, pollID string) ([]*models.Choice, error) {
	query := `SELECT id, poll_id, choice_text FROM choices WHERE poll_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get choices: %w", err)
	}
	defer rows.Close()

	var choices []*models.Choice
	for rows.Next() {
		var choice models.Choice
		if err := rows.Scan(&choice.ID, &choice.PollID, &choice.ChoiceText); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, &choice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating choices: %w", err)
	}
	return choices, nil
}

// CountChoices returns the number of choices a poll has
func (r *PollRepository) CountChoices(ctx context.Context, pollID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM choices WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count choices: %w", err)
	}
	return count, nil
}

// UpdateChoice updates the text of a choice
func (r *PollRepository) UpdateChoice(ctx context.Context, id, text string) error {
	result, err := r.db.Exec(ctx, `UPDATE choices SET choice_text = $1 WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update choice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteChoice deletes a choice by ID
func (r *PollRepository) DeleteChoice(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM choices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete choice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// List retrieves one page of polls with their aggregated vote counts.
// search is a case-insensitive substring match on the prompt text.
func (r *PollRepository) List(ctx context.Context, sort PollSort, search string, limit, offset int) ([]models.PollSummary, int, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = `WHERE p.text ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM polls p ` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}

	// Sort column is chosen from a fixed set, never from user input.
	var orderBy string
	switch sort {
	case SortByName:
		orderBy = `p.text ASC`
	case SortByDate:
		orderBy = `p.pub_date ASC`
	case SortByVotes:
		orderBy = `vote_count ASC`
	default:
		orderBy = `p.pub_date DESC`
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.owner_id, p.text, p.active, p.pub_date, COUNT(v.id) AS vote_count
		FROM polls p
		LEFT JOIN votes v ON v.poll_id = p.id
		%s
		GROUP BY p.id
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []models.PollSummary
	for rows.Next() {
		var p models.PollSummary
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Text, &p.Active, &p.PubDate, &p.VoteCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, total, nil
}

// ListByOwner retrieves one page of polls created by a user
func (r *PollRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.PollSummary, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM polls WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}

	query := `
		SELECT p.id, p.owner_id, p.text, p.active, p.pub_date, COUNT(v.id) AS vote_count
		FROM polls p
		LEFT JOIN votes v ON v.poll_id = p.id
		WHERE p.owner_id = $1
		GROUP BY p.id
		ORDER BY p.pub_date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list polls by owner: %w", err)
	}
	defer rows.Close()

	var polls []models.PollSummary
	for rows.Next() {
		var p models.PollSummary
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Text, &p.Active, &p.PubDate, &p.VoteCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, total, nil
}