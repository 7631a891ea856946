package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/auth/domain"
	"gorm.io/gorm"
)

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSessionByTokenHash looks a session up by the sha256 of its bearer
// token. Raw tokens are never stored.
func (r *sessionRepo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return first[domain.Session](ctx, r.db, domain.ErrSessionNotFound, "session_token_hash = ?", tokenHash)
}

func (r *sessionRepo) UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error {
	return r.stamp(ctx, sessionID, "last_seen_at", lastSeen)
}

func (r *sessionRepo) RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error {
	return r.stamp(ctx, sessionID, "revoked_at", revokedAt)
}

func (r *sessionRepo) stamp(ctx context.Context, sessionID snowflake.ID, column string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", sessionID).
		Update(column, at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
