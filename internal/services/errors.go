package services

import "errors"

// Failure conditions exposed to the presentation layer. Handlers
// match these with errors.Is and choose a status code; the services
// never let a raw storage error stand in for one of them.
var (
	// ErrPermissionDenied means the caller lacks a required capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means no matching entity exists for the caller. For
	// poll-level mutations the ownership check is folded into the
	// lookup, so another user's poll reports as not found.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the entity exists but the caller is not its owner.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyVoted means the user has already voted on the poll,
	// or the poll no longer accepts votes.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrNoChoiceSelected means a vote was cast without a choice.
	ErrNoChoiceSelected = errors.New("no choice selected")

	// ErrChoiceNotFound means the submitted choice does not exist
	// within the poll being voted on.
	ErrChoiceNotFound = errors.New("choice not found in poll")

	// ErrValidation means a field failed input validation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials means authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken means the requested username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)
