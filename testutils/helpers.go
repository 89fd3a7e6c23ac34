package testutils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
)

func SetupTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		err = db.AutoMigrate(models...)
		require.NoError(t, err)
	}

	return db
}

// SetupRedisStore returns a cache store backed by miniredis, plus the
// miniredis handle for clock manipulation.
func SetupRedisStore(t *testing.T) (cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(cache.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "qore-backend",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			MinLength:     8,
			RequireUpper:  true,
			RequireLower:  true,
			RequireNumber: true,
			BcryptCost:    4,
		},
		JWT: config.JWTConfig{
			SecretKey:    "0f8fad5bd9cb469fa165b7aa7f5748x1y2z3w4v5",
			AccessExpiry: 15 * time.Minute,
			Issuer:       "qore-backend",
			Audience:     "qore-employees",
			Algorithm:    "HS256",
		},
		RefreshToken: config.RefreshTokenConfig{
			TokenLength: 64,
			Expiry:      720 * time.Hour,
		},
		LoginGate: config.LoginGateConfig{
			MaxAttempts:     5,
			LockoutDuration: 15 * time.Minute,
			AttemptWindow:   15 * time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			Requests:       100,
			Period:         15 * time.Minute,
			UploadRequests: 5,
			UploadPeriod:   time.Minute,
		},
		Upload: config.UploadConfig{
			Dir:             "uploads",
			MaxPhotoSize:    2 << 20,
			MaxDocumentSize: 10 << 20,
			MaxDocuments:    5,
		},
	}
}
