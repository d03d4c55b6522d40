package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"task-assistant/internal/models"
)

func uniqueViolation(constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: constraint,
	}
}

func TestInsertUserWithUsernameRetry_FirstAttemptSucceeds(t *testing.T) {
	user := models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	var calls []string
	err := insertUserWithUsernameRetry(context.Background(), &user,
		func(_ context.Context, u models.User) error {
			calls = append(calls, u.Username)
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 insert attempt, got %d", len(calls))
	}
	if user.Username != "alice" {
		t.Errorf("username changed without a collision: %q", user.Username)
	}
}

func TestInsertUserWithUsernameRetry_UsernameCollision(t *testing.T) {
	user := models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	var calls []string
	err := insertUserWithUsernameRetry(context.Background(), &user,
		func(_ context.Context, u models.User) error {
			calls = append(calls, u.Username)
			if len(calls) == 1 {
				return uniqueViolation(usersUsernameConstraint)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", len(calls))
	}
	if !strings.HasPrefix(calls[1], "alice-") || calls[1] == "alice-" {
		t.Errorf("retry username %q is not a suffixed form of %q", calls[1], "alice")
	}
	if user.Username != calls[1] {
		t.Errorf("user.Username = %q, want the stored username %q", user.Username, calls[1])
	}
}

func TestInsertUserWithUsernameRetry_EmailCollisionNotRetried(t *testing.T) {
	user := models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	var calls int
	violation := uniqueViolation("users_email_key")
	err := insertUserWithUsernameRetry(context.Background(), &user,
		func(context.Context, models.User) error {
			calls++
			return violation
		})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.ConstraintName != "users_email_key" {
		t.Fatalf("expected the email unique violation back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no retry on email collision, got %d attempts", calls)
	}
	if user.Username != "alice" {
		t.Errorf("username changed on email collision: %q", user.Username)
	}
}

func TestInsertUserWithUsernameRetry_RetryFailure(t *testing.T) {
	user := models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	err := insertUserWithUsernameRetry(context.Background(), &user,
		func(context.Context, models.User) error {
			return uniqueViolation(usersUsernameConstraint)
		})
	if err == nil {
		t.Fatal("expected an error when the retry also collides")
	}
}
