package refreshtoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

var (
	ErrRefreshTokenNotFound  = errors.New("refresh token not found or no longer active")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
)

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
	stop   chan struct{}
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing refresh token service",
			zap.Duration("token_expiry", cfg.RefreshToken.Expiry),
			zap.Int("token_length", cfg.RefreshToken.TokenLength),
			zap.Duration("cleanup_interval", cfg.RefreshToken.CleanupInterval))
	}

	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Generate mints a new refresh session for the employee and returns the
// opaque token. The raw value is the credential; callers hand it to the
// client and never log it.
func (s *Service) Generate(employeeID uint) (*RefreshTokenData, error) {
	token, err := s.generateSecureToken()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate secure refresh token", zap.Error(err))
		}
		return nil, ErrTokenGenerationFailed
	}

	expiresAt := time.Now().Add(s.config.RefreshToken.Expiry)

	record := RefreshToken{
		Token:      token,
		EmployeeID: employeeID,
		ExpiresAt:  expiresAt,
		Revoked:    false,
		CreatedAt:  time.Now(),
	}

	if err := s.db.Create(&record).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store refresh token", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("refresh session created",
			zap.Uint("employee_id", employeeID),
			zap.Uint("token_id", record.ID),
			zap.Time("expires_at", expiresAt))
	}

	return &RefreshTokenData{
		Token:     token,
		TokenID:   record.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// FindActive resolves a token to its session row, matching only rows that
// are unrevoked and unexpired. Revoked, expired and unknown tokens are
// indistinguishable to the caller.
func (s *Service) FindActive(token string) (*RefreshToken, error) {
	var record RefreshToken
	err := s.db.
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("refresh token lookup failed - no active session")
			}
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &record, nil
}

// Rotate revokes the old session and issues a replacement. The revocation is
// an update guarded by revoked=false, so two concurrent rotations of the same
// token can both read the row but only one flips it; the loser gets
// ErrRefreshTokenNotFound and no second token family is created.
func (s *Service) Rotate(token string) (*RotationResult, error) {
	old, err := s.FindActive(token)
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&RefreshToken{}).
		Where("id = ? AND revoked = ?", old.ID, false).
		Update("revoked", true)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if s.logger != nil {
			s.logger.Warn("refresh rotation lost race - token already revoked",
				zap.Uint("token_id", old.ID))
		}
		return nil, ErrRefreshTokenNotFound
	}

	fresh, err := s.Generate(old.EmployeeID)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("refresh token rotated",
			zap.Uint("employee_id", old.EmployeeID),
			zap.Uint("old_token_id", old.ID),
			zap.Uint("new_token_id", fresh.TokenID))
	}

	return &RotationResult{
		EmployeeID:   old.EmployeeID,
		RefreshToken: fresh.Token,
		ExpiresAt:    fresh.ExpiresAt,
		OldTokenID:   old.ID,
	}, nil
}

// Revoke marks a single session unusable. Idempotent: revoking an already
// revoked or unknown token is not an error.
func (s *Service) Revoke(token string) error {
	res := s.db.Model(&RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Update("revoked", true)
	if res.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke refresh token", zap.Error(res.Error))
		}
		return fmt.Errorf("failed to revoke refresh token: %w", res.Error)
	}

	if s.logger != nil {
		s.logger.Info("refresh token revoked", zap.Int64("affected_rows", res.RowsAffected))
	}

	return nil
}

func (s *Service) RevokeAllForEmployee(employeeID uint) error {
	res := s.db.Model(&RefreshToken{}).
		Where("employee_id = ? AND revoked = ?", employeeID, false).
		Update("revoked", true)
	if res.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke all employee refresh tokens",
				zap.Error(res.Error),
				zap.Uint("employee_id", employeeID))
		}
		return fmt.Errorf("failed to revoke all employee refresh tokens: %w", res.Error)
	}

	if s.logger != nil {
		s.logger.Info("all employee refresh sessions revoked",
			zap.Uint("employee_id", employeeID),
			zap.Int64("count", res.RowsAffected))
	}

	return nil
}

// HasActiveSession reports whether any live session exists for the employee.
// Access tokens are only honored while this is true, which is what makes
// logout-all take effect before the access tokens themselves expire.
func (s *Service) HasActiveSession(employeeID uint) (bool, error) {
	var count int64
	err := s.db.Model(&RefreshToken{}).
		Where("employee_id = ? AND revoked = ? AND expires_at > ?", employeeID, false, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

// CountActive reports live sessions across all employees.
func (s *Service) CountActive() (int64, error) {
	var count int64
	err := s.db.Model(&RefreshToken{}).
		Where("revoked = ? AND expires_at > ?", false, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// CleanupExpired hard-deletes rows past their expiry. Revoked-but-unexpired
// rows are kept so a replayed token still resolves to "revoked" rather than
// "unknown" in the logs.
func (s *Service) CleanupExpired() error {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&RefreshToken{})
	if res.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to cleanup expired refresh tokens", zap.Error(res.Error))
		}
		return fmt.Errorf("failed to cleanup expired tokens: %w", res.Error)
	}

	if s.logger != nil && res.RowsAffected > 0 {
		s.logger.Info("cleaned up expired refresh tokens", zap.Int64("count", res.RowsAffected))
	}

	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.RefreshToken.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.CleanupExpired(); err != nil && s.logger != nil {
					s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
				}
			case <-s.stop:
				return
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("started refresh token cleanup worker",
			zap.Duration("interval", s.config.RefreshToken.CleanupInterval))
	}
}

func (s *Service) StopCleanupWorker() {
	close(s.stop)
}

func (s *Service) generateSecureToken() (string, error) {
	tokenBytes := make([]byte, s.config.RefreshToken.TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}
