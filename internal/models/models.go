package models

import "time"

// User represents a registered user in the system
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	CanCreatePolls bool      `json:"can_create_polls"`
	CreatedAt      time.Time `json:"created_at"`
}

// Poll represents a poll question owned by a user
type Poll struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	Text    string    `json:"text"`
	Active  bool      `json:"active"`
	PubDate time.Time `json:"pub_date"`
}

// Choice represents one selectable option of a poll
type Choice struct {
	ID         string `json:"id"`
	PollID     string `json:"poll_id"`
	ChoiceText string `json:"choice_text"`
}

// Vote represents a single user's selection of one choice within one poll.
// At most one vote exists per (user, poll) pair.
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PollID    string    `json:"poll_id"`
	ChoiceID  string    `json:"choice_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChoiceTally is the per-choice vote count of a poll, computed on demand
type ChoiceTally struct {
	ChoiceID   string `json:"choice_id"`
	ChoiceText string `json:"choice_text"`
	VoteCount  int    `json:"vote_count"`
}

// PollSummary is a poll together with its aggregated vote count,
// as returned by the listing queries
type PollSummary struct {
	Poll
	VoteCount int `json:"vote_count"`
}

// PollPage is one page of a poll listing
type PollPage struct {
	Polls      []PollSummary `json:"polls"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPolls int           `json:"total_polls"`
	TotalPages int           `json:"total_pages"`
}
