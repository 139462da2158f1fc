package refreshtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trove-app/trove/config"
	"github.com/trove-app/trove/services/logging"
	"github.com/trove-app/trove/services/tokencodec"
	"go.uber.org/zap"
)

// Service is the rotation engine: it validates a presented refresh token,
// detects reuse, rotates the winner, and revokes whole families on theft
// detection. Reused and Invalid are result values; errors are reserved for
// store or signing failures.
type Service struct {
	store  *Store
	codec  *tokencodec.Service
	config *config.Config
	logger *logging.Service
	stop   chan struct{}
}

func NewService(store *Store, codec *tokencodec.Service, cfg *config.Config, logger *logging.Service) *Service {
	logger.Info("initializing refresh token service",
		zap.Duration("token_expiry", cfg.RefreshToken.Expiry),
		zap.Duration("cleanup_interval", cfg.RefreshToken.CleanupInterval))

	return &Service{
		store:  store,
		codec:  codec,
		config: cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Issue creates a brand-new token in a brand-new family. Used at login,
// registration, and OAuth success.
func (s *Service) Issue(ctx context.Context, userID string) (string, error) {
	row, err := s.store.Create(ctx, userID, "", s.config.RefreshToken.Expiry)
	if err != nil {
		return "", err
	}

	tokenString, err := s.codec.Encode(userID, row.ID, row.TokenFamily, tokencodec.RefreshAudience, s.config.RefreshToken.Expiry)
	if err != nil {
		// the orphaned row is collected by the next PurgeDead sweep
		return "", fmt.Errorf("failed to encode refresh token: %w", err)
	}

	s.logger.Info("refresh token issued",
		zap.String("user_id", userID),
		zap.String("token_id", row.ID),
		zap.String("family", row.TokenFamily))

	return tokenString, nil
}

// ValidateAndRotate runs the rotation state machine for one presented token.
//
// The reuse check and the consume step share a single conditional update:
// whichever concurrent caller flips is_revoked wins the rotation, every
// other caller lands on the reuse path and burns the family.
func (s *Service) ValidateAndRotate(ctx context.Context, tokenString string) (*RotationResult, error) {
	claims, err := s.codec.Decode(tokenString, tokencodec.RefreshAudience)
	if err != nil {
		return &RotationResult{Status: StatusInvalid}, nil
	}

	tokenID := claims.ID
	userID := claims.Subject
	family := claims.Family
	if tokenID == "" || userID == "" || family == "" {
		return &RotationResult{Status: StatusInvalid}, nil
	}

	row, err := s.store.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			// garbage input, or a row the purge sweep already collected
			return &RotationResult{Status: StatusInvalid}, nil
		}
		return nil, err
	}

	if row.IsRevoked {
		return s.reuseDetected(ctx, row)
	}

	// plain expiry is not evidence of compromise; the family survives
	if time.Now().After(row.ExpiresAt) {
		s.logger.Warn("refresh token expired",
			zap.String("token_id", row.ID),
			zap.String("user_id", row.UserID))
		return &RotationResult{Status: StatusInvalid}, nil
	}

	successor, won, err := s.store.ConsumeAndReplace(ctx, row, s.config.RefreshToken.Expiry)
	if err != nil {
		return nil, err
	}
	if !won {
		// lost the race against a concurrent rotation of the same token;
		// indistinguishable from replay, so it takes the same path
		return s.reuseDetected(ctx, row)
	}

	newToken, err := s.codec.Encode(successor.UserID, successor.ID, successor.TokenFamily, tokencodec.RefreshAudience, s.config.RefreshToken.Expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rotated token: %w", err)
	}

	s.logger.Info("refresh token rotated",
		zap.String("user_id", row.UserID),
		zap.String("old_token_id", row.ID),
		zap.String("new_token_id", successor.ID),
		zap.String("family", row.TokenFamily))

	return &RotationResult{
		Status:   StatusRotated,
		UserID:   row.UserID,
		Family:   row.TokenFamily,
		NewToken: newToken,
	}, nil
}

func (s *Service) reuseDetected(ctx context.Context, row *RefreshToken) (*RotationResult, error) {
	s.logger.Warn("refresh token reuse detected, revoking family",
		zap.String("token_id", row.ID),
		zap.String("user_id", row.UserID),
		zap.String("family", row.TokenFamily))

	if _, err := s.store.RevokeFamily(ctx, row.TokenFamily); err != nil {
		return nil, err
	}

	return &RotationResult{
		Status: StatusReused,
		UserID: row.UserID,
		Family: row.TokenFamily,
	}, nil
}

// RevokeByPresentedToken ends the family behind a presented token string.
// Used by logout, which must never fail for the caller: an undecodable token
// is reported as an empty family and no error.
func (s *Service) RevokeByPresentedToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.codec.Decode(tokenString, tokencodec.RefreshAudience)
	if err != nil || claims.Family == "" {
		s.logger.Debug("logout with undecodable refresh token")
		return "", nil
	}

	if _, err := s.store.RevokeFamily(ctx, claims.Family); err != nil {
		return "", err
	}

	return claims.Family, nil
}

func (s *Service) PurgeDead(ctx context.Context) (int64, error) {
	return s.store.PurgeDead(ctx)
}

// StartCleanupWorker runs the purge sweep on the configured interval until
// StopCleanupWorker is called.
func (s *Service) StartCleanupWorker() {
	interval := s.config.RefreshToken.CleanupInterval
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.PurgeDead(context.Background()); err != nil {
					s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
				}
			case <-s.stop:
				return
			}
		}
	}()

	s.logger.Info("started refresh token cleanup worker",
		zap.Duration("interval", interval))
}

func (s *Service) StopCleanupWorker() {
	close(s.stop)
}
