package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pollme-backend/internal/models"
	"pollme-backend/internal/services"
	"pollme-backend/internal/testutil"

	"github.com/jackc/pgx/v5/pgxpool"
)

func createTestPoll(t *testing.T, db *pgxpool.Pool, owner *models.User) (*models.Poll, []*models.Choice) {
	t.Helper()
	svc := newPollService(db)
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, owner, "Best color?", "Red", "Blue")
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	_, choices, err := svc.GetPoll(ctx, poll.ID)
	if err != nil {
		t.Fatalf("GetPoll failed: %v", err)
	}
	return poll, choices
}

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	voter := testutil.CreateTestUser(t, db, "bob", false)
	poll, choices := createTestPoll(t, db, owner)

	ok, err := svc.CanVote(ctx, voter.ID, poll.ID)
	if err != nil {
		t.Fatalf("CanVote failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected voter to be allowed to vote")
	}

	vote, err := svc.CastVote(ctx, voter.ID, poll.ID, choices[0].ID)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if vote.ChoiceID != choices[0].ID {
		t.Errorf("Expected vote for choice %s, got %s", choices[0].ID, vote.ChoiceID)
	}

	ok, err = svc.CanVote(ctx, voter.ID, poll.ID)
	if err != nil {
		t.Fatalf("CanVote failed: %v", err)
	}
	if ok {
		t.Error("Expected CanVote to be false after voting")
	}

	// Second vote fails and leaves the tally unchanged.
	if _, err := svc.CastVote(ctx, voter.ID, poll.ID, choices[1].ID); !errors.Is(err, services.ErrAlreadyVoted) {
		t.Errorf("Expected ErrAlreadyVoted, got %v", err)
	}

	tally, err := svc.Tally(ctx, poll.ID)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	counts := map[string]int{}
	for _, entry := range tally {
		counts[entry.ChoiceText] = entry.VoteCount
	}
	if counts["Red"] != 1 || counts["Blue"] != 0 {
		t.Errorf("Expected tally Red:1 Blue:0, got %v", counts)
	}
}

func TestCastVoteFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	voter := testutil.CreateTestUser(t, db, "bob", false)
	poll, _ := createTestPoll(t, db, owner)

	otherOwner := testutil.CreateTestUser(t, db, "carol", true)
	_, otherChoices := createTestPoll(t, db, otherOwner)

	t.Run("no choice selected", func(t *testing.T) {
		if _, err := svc.CastVote(ctx, voter.ID, poll.ID, ""); !errors.Is(err, services.ErrNoChoiceSelected) {
			t.Errorf("Expected ErrNoChoiceSelected, got %v", err)
		}
	})

	t.Run("choice from another poll", func(t *testing.T) {
		if _, err := svc.CastVote(ctx, voter.ID, poll.ID, otherChoices[0].ID); !errors.Is(err, services.ErrChoiceNotFound) {
			t.Errorf("Expected ErrChoiceNotFound, got %v", err)
		}
	})

	t.Run("missing poll", func(t *testing.T) {
		if _, err := svc.CastVote(ctx, voter.ID, "no-such-poll", otherChoices[0].ID); !errors.Is(err, services.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestClosePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	voter := testutil.CreateTestUser(t, db, "bob", false)
	poll, choices := createTestPoll(t, db, owner)

	if _, err := svc.ClosePoll(ctx, poll.ID, voter.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-owner close, got %v", err)
	}

	closed, err := svc.ClosePoll(ctx, poll.ID, owner.ID)
	if err != nil {
		t.Fatalf("ClosePoll failed: %v", err)
	}
	if closed.Active {
		t.Error("Expected poll to be inactive after close")
	}

	// Closing again is a no-op, not an error.
	closed, err = svc.ClosePoll(ctx, poll.ID, owner.ID)
	if err != nil {
		t.Fatalf("Second ClosePoll failed: %v", err)
	}
	if closed.Active {
		t.Error("Expected poll to stay inactive")
	}

	// No votes are recorded against a closed poll.
	ok, err := svc.CanVote(ctx, voter.ID, poll.ID)
	if err != nil {
		t.Fatalf("CanVote failed: %v", err)
	}
	if ok {
		t.Error("Expected CanVote to be false on a closed poll")
	}
	if _, err := svc.CastVote(ctx, voter.ID, poll.ID, choices[0].ID); !errors.Is(err, services.ErrAlreadyVoted) {
		t.Errorf("Expected ErrAlreadyVoted on closed poll, got %v", err)
	}
}

func TestGetUserVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	voter := testutil.CreateTestUser(t, db, "bob", false)
	poll, choices := createTestPoll(t, db, owner)

	vote, err := svc.GetUserVote(ctx, voter.ID, poll.ID)
	if err != nil {
		t.Fatalf("GetUserVote failed: %v", err)
	}
	if vote != nil {
		t.Error("Expected nil vote before voting")
	}

	if _, err := svc.CastVote(ctx, voter.ID, poll.ID, choices[1].ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	vote, err = svc.GetUserVote(ctx, voter.ID, poll.ID)
	if err != nil {
		t.Fatalf("GetUserVote failed: %v", err)
	}
	if vote == nil || vote.ChoiceID != choices[1].ID {
		t.Errorf("Expected vote for choice %s, got %+v", choices[1].ID, vote)
	}
}

func TestConcurrentVotesByDistinctUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	poll, choices := createTestPoll(t, db, owner)

	const voters = 10
	users := make([]*models.User, voters)
	for i := range users {
		users[i] = testutil.CreateTestUser(t, db, fmt.Sprintf("voter-%d", i), false)
	}

	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i, user := range users {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = svc.CastVote(ctx, userID, poll.ID, choices[i%2].ID)
		}(i, user.ID)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Vote %d failed: %v", i, err)
		}
	}

	tally, err := svc.Tally(ctx, poll.ID)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	total := 0
	for _, entry := range tally {
		total += entry.VoteCount
	}
	if total != voters {
		t.Errorf("Expected %d votes in total, got %d", voters, total)
	}
}

func TestConcurrentDoubleSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, db, "alice", true)
	voter := testutil.CreateTestUser(t, db, "bob", false)
	poll, choices := createTestPoll(t, db, owner)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CastVote(ctx, voter.ID, poll.ID, choices[0].ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, services.ErrAlreadyVoted):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly 1 successful vote, got %d", succeeded)
	}

	tally, err := svc.Tally(ctx, poll.ID)
	if err != nil {
		t.Fatalf("Tally failed: %v", err)
	}
	total := 0
	for _, entry := range tally {
		total += entry.VoteCount
	}
	if total != 1 {
		t.Errorf("Expected exactly 1 recorded vote, got %d", total)
	}
}
