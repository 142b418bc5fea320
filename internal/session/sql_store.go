package session

import (
	"context"
	"log"
	"time"

	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/security"
)

// SQLStore keeps sessions in the sessions table
type SQLStore struct {
	users    *repository.UserRepository
	duration time.Duration
	now      func() time.Time
}

// NewSQLStore creates a session store backed by the relational database
func NewSQLStore(users *repository.UserRepository, duration time.Duration) *SQLStore {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &SQLStore{users: users, duration: duration, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

// Create persists a new session for userID and returns its token
func (s *SQLStore) Create(ctx context.Context, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := security.GenerateSessionID()
	if _, err := s.users.CreateSession(token, userID, s.now().Add(s.duration)); err != nil {
		return "", unavailable("create", err)
	}
	return token, nil
}

// Resolve returns the user owning a live session
func (s *SQLStore) Resolve(ctx context.Context, token string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.users.GetSession(token)
	if err != nil {
		return nil, unavailable("resolve", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.IsExpiredAt(s.now()) {
		if err := s.users.DeleteSession(token); err != nil {
			log.Printf("Failed to delete expired session: %v", err)
		}
		return nil, nil
	}

	user, err := s.users.GetUserByID(sess.UserID)
	if err != nil {
		return nil, unavailable("resolve user", err)
	}
	return user, nil
}

// Revoke deletes a session. Unknown tokens are ignored.
func (s *SQLStore) Revoke(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.users.DeleteSession(token); err != nil {
		return unavailable("revoke", err)
	}
	return nil
}

// Cleanup removes expired sessions and returns how many were deleted
func (s *SQLStore) Cleanup(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.users.DeleteExpiredSessions(s.now())
	if err != nil {
		return 0, unavailable("cleanup", err)
	}
	return n, nil
}
