package refreshtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trove-app/trove/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// Store owns the refresh_tokens table. Every write is committed before the
// caller may hand anything to a client; an unrecorded token would be
// invisible to reuse detection.
type Store struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new active token row. An empty family mints a fresh
// family id; rotation passes the parent's family through unchanged.
func (s *Store) Create(ctx context.Context, userID, family string, lifetime time.Duration) (*RefreshToken, error) {
	if family == "" {
		family = uuid.NewString()
	}

	token := RefreshToken{
		ID:          uuid.NewString(),
		UserID:      userID,
		TokenFamily: family,
		IsRevoked:   false,
		ExpiresAt:   time.Now().Add(lifetime),
		CreatedAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		s.logger.Error("failed to store refresh token", zap.Error(err))
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Debug("refresh token stored",
		zap.String("token_id", token.ID),
		zap.String("user_id", userID),
		zap.String("family", family),
		zap.Time("expires_at", token.ExpiresAt))

	return &token, nil
}

func (s *Store) Get(ctx context.Context, tokenID string) (*RefreshToken, error) {
	var token RefreshToken
	err := s.db.WithContext(ctx).Where("id = ?", tokenID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &token, nil
}

// ConsumeAndReplace flips is_revoked false -> true for the parent and, in
// the same transaction, inserts its successor. The conditional update is the
// gate that serializes concurrent rotations of one token: exactly one caller
// wins the flip and gets a successor back; every loser gets (nil, false) and
// must treat the token as reused. Keeping the insert inside the winning
// transaction means a concurrent RevokeFamily cannot run between the flip
// and the insert and miss the successor.
func (s *Store) ConsumeAndReplace(ctx context.Context, parent *RefreshToken, lifetime time.Duration) (*RefreshToken, bool, error) {
	successor := &RefreshToken{
		ID:          uuid.NewString(),
		UserID:      parent.UserID,
		TokenFamily: parent.TokenFamily,
		IsRevoked:   false,
		ExpiresAt:   time.Now().Add(lifetime),
		CreatedAt:   time.Now(),
	}

	won := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RefreshToken{}).
			Where("id = ? AND is_revoked = ?", parent.ID, false).
			Update("is_revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}

		won = true
		return tx.Create(successor).Error
	})

	if err != nil {
		s.logger.Error("failed to rotate refresh token",
			zap.Error(err),
			zap.String("token_id", parent.ID))
		return nil, false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !won {
		return nil, false, nil
	}

	return successor, true, nil
}

// RevokeFamily marks every token in the family revoked. The blind update is
// idempotent, so concurrent revocations converge without extra locking.
func (s *Store) RevokeFamily(ctx context.Context, family string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&RefreshToken{}).
		Where("token_family = ? AND is_revoked = ?", family, false).
		Update("is_revoked", true)

	if result.Error != nil {
		s.logger.Error("failed to revoke token family",
			zap.Error(result.Error),
			zap.String("family", family))
		return 0, fmt.Errorf("failed to revoke token family: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("token family revoked",
			zap.String("family", family),
			zap.Int64("count", result.RowsAffected))
	}

	return result.RowsAffected, nil
}

// PurgeDead deletes every expired or revoked row. Maintenance only; rotation
// never deletes.
func (s *Store) PurgeDead(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR is_revoked = ?", time.Now(), true).
		Delete(&RefreshToken{})

	if result.Error != nil {
		s.logger.Error("failed to purge dead refresh tokens", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to purge dead refresh tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("purged dead refresh tokens", zap.Int64("count", result.RowsAffected))
	}

	return result.RowsAffected, nil
}
