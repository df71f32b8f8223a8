package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/threadstat/internal/domain/session/entity"
)

// SessionPostgres stores sessions in the threads_sessions table
type SessionPostgres struct {
	pool *pgxpool.Pool
}

// NewSessionPostgres creates a new PostgreSQL session repository
func NewSessionPostgres(pool *pgxpool.Pool) *SessionPostgres {
	return &SessionPostgres{pool: pool}
}

// EnsureSchema creates the sessions table if it does not exist
func (r *SessionPostgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS threads_sessions (
			id                  UUID PRIMARY KEY,
			user_id             TEXT NOT NULL,
			username            TEXT NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			profile_picture_url TEXT NOT NULL DEFAULT '',
			access_token        TEXT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at          TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS threads_sessions_expires_at_idx ON threads_sessions (expires_at);
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}
	return nil
}

// Create inserts a session
func (r *SessionPostgres) Create(ctx context.Context, sess *entity.Session) error {
	query := `
		INSERT INTO threads_sessions (id, user_id, username, name, profile_picture_url, access_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		sess.ID,
		sess.UserID,
		sess.Username,
		sess.Name,
		sess.ProfilePictureURL,
		sess.AccessToken,
		sess.CreatedAt,
		sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// Get retrieves a session by id
func (r *SessionPostgres) Get(ctx context.Context, id string) (*entity.Session, error) {
	query := `
		SELECT id, user_id, username, name, profile_picture_url, access_token, created_at, expires_at
		FROM threads_sessions
		WHERE id = $1
	`

	var sess entity.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Username,
		&sess.Name,
		&sess.ProfilePictureURL,
		&sess.AccessToken,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	return &sess, nil
}

// Delete removes a session
func (r *SessionPostgres) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM threads_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired at or before now
func (r *SessionPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM threads_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
