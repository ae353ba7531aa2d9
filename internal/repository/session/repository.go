package session

import (
	"context"
	"time"

	"clonedirect/internal/domain"
)

// Store persists per-user sessions keyed uniquely by user id.
type Store interface {
	// GetOrCreate returns the stored session for userID, or a fresh
	// unconfirmed session when none exists. The fresh session is not
	// persisted until the first Save.
	GetOrCreate(ctx context.Context, userID string) (*domain.Session, error)

	// Save upserts the session and bumps its last-activity timestamp.
	Save(ctx context.Context, s *domain.Session) error

	// Delete removes the session for userID. Deleting an absent session is
	// not an error.
	Delete(ctx context.Context, userID string) error

	// DeleteIdle removes every session whose last activity is strictly
	// before olderThan and reports how many were removed.
	DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error)
}
