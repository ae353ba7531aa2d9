package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clonedirect/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Store backed by the sessions table. Session state is
// stored as a JSONB document so shape changes never touch the schema.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresStore{pool: pool, logger: logger}
}

func (s *postgresStore) GetOrCreate(ctx context.Context, userID string) (*domain.Session, error) {
	const q = `
SELECT state, last_activity_at
FROM sessions
WHERE user_id = $1
`
	var state []byte
	var lastActivity time.Time
	err := s.pool.QueryRow(ctx, q, userID).Scan(&state, &lastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session store: get %s: %w", userID, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(state, &sess); err != nil {
		// A row that no longer unmarshals is unrecoverable; the user only
		// loses an in-flight conversation.
		s.logger.Warn("session state unreadable, starting fresh",
			zap.String("user_id", userID), zap.Error(err))
		return domain.NewSession(userID), nil
	}
	sess.UserID = userID
	sess.LastActivityAt = lastActivity
	return &sess, nil
}

func (s *postgresStore) Save(ctx context.Context, sess *domain.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session store: marshal %s: %w", sess.UserID, err)
	}

	const q = `
INSERT INTO sessions (user_id, state, last_activity_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET
    state = EXCLUDED.state,
    last_activity_at = now()
RETURNING last_activity_at
`
	if err := s.pool.QueryRow(ctx, q, sess.UserID, state).Scan(&sess.LastActivityAt); err != nil {
		return fmt.Errorf("session store: save %s: %w", sess.UserID, err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("session store: delete %s: %w", userID, err)
	}
	return nil
}

func (s *postgresStore) DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE last_activity_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("session store: delete idle: %w", err)
	}
	return cmd.RowsAffected(), nil
}
