package logingate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

// LockoutError reports an active lockout. Remaining time is surfaced to the
// caller so the 423 response can include it.
type LockoutError struct {
	UnlockTime time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked until %s", e.UnlockTime.Format(time.RFC3339))
}

func (e *LockoutError) RemainingMinutes() int {
	remaining := time.Until(e.UnlockTime)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Minute - 1) / time.Minute)
}

type attemptState struct {
	Count        int        `json:"count"`
	FirstAttempt time.Time  `json:"firstAttempt"`
	LockUntil    *time.Time `json:"lockUntil,omitempty"`
}

// Service tracks failed login attempts per employee identifier and client IP.
// The counters live in the cache only; when the cache misbehaves the gate
// allows the attempt rather than failing the login path.
type Service struct {
	store  cache.Store
	config *config.Config
	logger *logging.Service
}

func NewService(store cache.Store, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) key(employeeID, ip string) string {
	return fmt.Sprintf("lockout:%s:%s", employeeID, ip)
}

func (s *Service) ttl() time.Duration {
	ttl := s.config.LoginGate.LockoutDuration
	if s.config.LoginGate.AttemptWindow > ttl {
		ttl = s.config.LoginGate.AttemptWindow
	}
	return ttl
}

func (s *Service) load(ctx context.Context, key string) (*attemptState, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var state attemptState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Service) save(ctx context.Context, key string, state *attemptState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(raw), s.ttl())
}

// Check reports whether a login attempt may proceed. It returns *LockoutError
// while a lockout is in force; expired lockouts are reset in place.
func (s *Service) Check(ctx context.Context, employeeID, ip string) error {
	key := s.key(employeeID, ip)

	state, err := s.load(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && s.logger != nil {
			s.logger.Warn("login gate check degraded to allow",
				zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	if state.LockUntil == nil {
		return nil
	}

	now := time.Now()
	if state.LockUntil.After(now) {
		return &LockoutError{UnlockTime: *state.LockUntil}
	}

	// Lockout expired: clear the stale state so the next failure starts
	// a fresh count.
	if err := s.store.Delete(ctx, key); err != nil && s.logger != nil {
		s.logger.Warn("failed to clear expired lockout", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// RecordFailure bumps the failure counter and arms the lockout once the
// attempt count reaches the configured maximum. The returned count is what
// the gate now holds; 0 with a nil error means the cache was unavailable.
func (s *Service) RecordFailure(ctx context.Context, employeeID, ip string) (int, error) {
	key := s.key(employeeID, ip)
	now := time.Now()

	state, err := s.load(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			if s.logger != nil {
				s.logger.Warn("login gate failure not recorded",
					zap.String("key", key), zap.Error(err))
			}
			return 0, nil
		}
		state = &attemptState{FirstAttempt: now}
	}

	// A counter older than the attempt window starts over.
	if state.LockUntil == nil && now.Sub(state.FirstAttempt) > s.config.LoginGate.AttemptWindow {
		state = &attemptState{FirstAttempt: now}
	}

	state.Count++
	if state.Count >= s.config.LoginGate.MaxAttempts && state.LockUntil == nil {
		lockUntil := now.Add(s.config.LoginGate.LockoutDuration)
		state.LockUntil = &lockUntil
		if s.logger != nil {
			s.logger.Warn("account locked after repeated login failures",
				zap.String("employee_id", employeeID),
				zap.String("ip", ip),
				zap.Int("attempts", state.Count),
				zap.Time("unlock_time", lockUntil))
		}
	}

	if err := s.save(ctx, key, state); err != nil {
		if s.logger != nil {
			s.logger.Warn("login gate failure not recorded",
				zap.String("key", key), zap.Error(err))
		}
		return 0, nil
	}

	return state.Count, nil
}

// RecordSuccess clears the failure counter after a successful login.
func (s *Service) RecordSuccess(ctx context.Context, employeeID, ip string) {
	key := s.key(employeeID, ip)
	if err := s.store.Delete(ctx, key); err != nil && s.logger != nil {
		s.logger.Warn("failed to reset login gate counter",
			zap.String("key", key), zap.Error(err))
	}
}
