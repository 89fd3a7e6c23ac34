package refreshtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/testutils"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutils.SetupTestDB(t, &RefreshToken{})
	cfg := &config.Config{
		RefreshToken: config.RefreshTokenConfig{
			TokenLength: 64,
			Expiry:      720 * time.Hour,
		},
	}
	return NewService(db, cfg, nil)
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Generate(7)
	require.NoError(t, err)

	assert.NotEmpty(t, data.Token)
	assert.Len(t, data.Token, 128) // 64 random bytes hex encoded
	assert.NotZero(t, data.TokenID)
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), data.ExpiresAt, time.Minute)

	record, err := svc.FindActive(data.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), record.EmployeeID)
	assert.False(t, record.Revoked)
}

func TestFindActive_UnknownToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.FindActive("no-such-token")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestFindActive_ExpiredToken(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Generate(1)
	require.NoError(t, err)

	err = svc.db.Model(&RefreshToken{}).
		Where("id = ?", data.TokenID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	_, err = svc.FindActive(data.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRotate(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Generate(3)
	require.NoError(t, err)

	result, err := svc.Rotate(data.Token)
	require.NoError(t, err)

	assert.Equal(t, uint(3), result.EmployeeID)
	assert.NotEqual(t, data.Token, result.RefreshToken)
	assert.Equal(t, data.TokenID, result.OldTokenID)

	// the new token resolves, the old one no longer does
	_, err = svc.FindActive(result.RefreshToken)
	require.NoError(t, err)

	_, err = svc.FindActive(data.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRotate_ReplayRejected(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Generate(3)
	require.NoError(t, err)

	_, err = svc.Rotate(data.Token)
	require.NoError(t, err)

	_, err = svc.Rotate(data.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRevoke_Monotonic(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Generate(5)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(data.Token))

	_, err = svc.FindActive(data.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// revoking again is a no-op, not an error
	require.NoError(t, svc.Revoke(data.Token))

	// the row still exists and stays revoked
	var record RefreshToken
	require.NoError(t, svc.db.Where("token = ?", data.Token).First(&record).Error)
	assert.True(t, record.Revoked)
}

func TestRevokeAllForEmployee(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Generate(9)
	require.NoError(t, err)
	second, err := svc.Generate(9)
	require.NoError(t, err)
	other, err := svc.Generate(10)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForEmployee(9))

	_, err = svc.FindActive(first.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	_, err = svc.FindActive(second.Token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	// other employee untouched
	_, err = svc.FindActive(other.Token)
	assert.NoError(t, err)
}

func TestHasActiveSession(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.HasActiveSession(11)
	require.NoError(t, err)
	assert.False(t, ok)

	data, err := svc.Generate(11)
	require.NoError(t, err)

	ok, err = svc.HasActiveSession(11)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Revoke(data.Token))

	ok, err = svc.HasActiveSession(11)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCleanupExpired(t *testing.T) {
	svc := newTestService(t)

	expired, err := svc.Generate(1)
	require.NoError(t, err)
	live, err := svc.Generate(1)
	require.NoError(t, err)

	err = svc.db.Model(&RefreshToken{}).
		Where("id = ?", expired.TokenID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	require.NoError(t, svc.CleanupExpired())

	var count int64
	require.NoError(t, svc.db.Model(&RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.FindActive(live.Token)
	assert.NoError(t, err)
}
