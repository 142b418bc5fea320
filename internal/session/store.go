// Package session maps opaque bearer tokens to users with a fixed lifetime.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendtrack/internal/models"
)

// ErrStoreUnavailable marks a failure of the backing store. It is never returned
// for a token that is simply unknown or expired.
var ErrStoreUnavailable = errors.New("session store unavailable")

// DefaultDuration is the lifetime of a new session
const DefaultDuration = 24 * time.Hour

// Store issues, resolves and revokes session tokens.
//
// Resolve returns (user, nil) for a live session, (nil, nil) when the token is
// unknown or expired, and (nil, err) wrapping ErrStoreUnavailable otherwise.
// Revoke is idempotent.
type Store interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	Revoke(ctx context.Context, token string) error
}

// UserLookup loads the user a session refers to
type UserLookup interface {
	GetUserByID(id int64) (*models.User, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
