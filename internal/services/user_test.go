package services_test

import (
	"context"
	"errors"
	"testing"

	"pollme-backend/internal/models"
	"pollme-backend/internal/repository"
	"pollme-backend/internal/services"
	"pollme-backend/internal/testutil"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := services.NewUserService(nil, "test-secret")

	token, err := svc.GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	userID, err := svc.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Expected user-123, got %s", userID)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	svc := services.NewUserService(nil, "test-secret")

	if _, err := svc.ValidateJWT("not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	issuer := services.NewUserService(nil, "secret-a")
	verifier := services.NewUserService(nil, "secret-b")

	token, err := issuer.GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := verifier.ValidateJWT(token); err == nil {
		t.Error("Expected error for token signed with a different secret")
	}
}

func TestHasPermission(t *testing.T) {
	svc := services.NewUserService(nil, "test-secret")

	tests := []struct {
		name       string
		user       *models.User
		permission string
		want       bool
	}{
		{"granted user", &models.User{CanCreatePolls: true}, services.PermAddPoll, true},
		{"ungranted user", &models.User{CanCreatePolls: false}, services.PermAddPoll, false},
		{"nil user", nil, services.PermAddPoll, false},
		{"unknown permission", &models.User{CanCreatePolls: true}, "polls.delete_everything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.HasPermission(tt.user, tt.permission); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(repository.NewUserRepository(db), "test-secret")
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Expected username alice, got %s", user.Username)
	}
	if !user.CanCreatePolls {
		t.Error("Expected new user to hold the create-poll grant")
	}
	if user.PasswordHash == "correct horse battery" {
		t.Error("Password stored in plain text")
	}

	got, err := svc.Authenticate(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong password"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(repository.NewUserRepository(db), "test-secret")
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"username too short", "ab", "long enough password", services.ErrValidation},
		{"password too short", "bob", "short", services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(repository.NewUserRepository(db), "test-secret")
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol", "password12345"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "password12345"); !errors.Is(err, services.ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken, got %v", err)
	}
}
