package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/playit/internal/models"
)

// SessionStore persists refresh token records. Every method takes the
// Querier to run on so callers can group calls into one transaction.
type SessionStore struct{}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// LockUser serializes session changes for one user until the surrounding
// transaction ends.
func (s *SessionStore) LockUser(ctx context.Context, q Querier, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
		return fmt.Errorf("locking sessions: %w", err)
	}
	return nil
}

// EvictLive removes the user's non-expired records. While the user lock is
// held there is at most one.
func (s *SessionStore) EvictLive(ctx context.Context, q Querier, userID uuid.UUID, now time.Time) (int64, error) {
	result, err := q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at > $2`,
		userID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("evicting live sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *SessionStore) PurgeExpired(ctx context.Context, q Querier, userID uuid.UUID, now time.Time) (int64, error) {
	result, err := q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at <= $2`,
		userID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("purging expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *SessionStore) Insert(ctx context.Context, q Querier, rec *models.RefreshTokenRecord) error {
	err := q.QueryRow(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, ip_address, device, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rec.UserID, rec.TokenHash, rec.IPAddress, rec.Device, rec.ExpiresAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetForUser(ctx context.Context, q Querier, id, userID uuid.UUID) (*models.RefreshTokenRecord, error) {
	rec := &models.RefreshTokenRecord{}
	err := q.QueryRow(ctx,
		`SELECT id, user_id, token_hash, ip_address, device, expires_at, created_at
		 FROM refresh_tokens WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.IPAddress, &rec.Device, &rec.ExpiresAt, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return rec, nil
}

func (s *SessionStore) DeleteForUser(ctx context.Context, q Querier, id, userID uuid.UUID) (bool, error) {
	result, err := q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
