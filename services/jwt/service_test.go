package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qore-hq/qore-backend/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:    "0f8fad5bd9cb469fa165b7aa7f5748x1y2z3w4v5",
			AccessExpiry: 15 * time.Minute,
			Issuer:       "qore-backend",
			Audience:     "qore-employees",
			Algorithm:    "HS256",
		},
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService(testConfig(), nil)

	tokenString, err := svc.GenerateToken(42, "E042")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.EmployeeID)
	assert.Equal(t, "E042", claims.ExternalID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "qore-backend", claims.Issuer)
	assert.Equal(t, gojwt.ClaimStrings{"qore-employees"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessExpiry = -time.Minute
	svc := NewService(cfg, nil)

	tokenString, err := svc.GenerateToken(1, "E001")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := NewService(testConfig(), nil)

	tokenString, err := svc.GenerateToken(1, "E001")
	require.NoError(t, err)

	other := testConfig()
	other.JWT.SecretKey = "another-signing-key-entirely-0123456789ab"
	otherSvc := NewService(other, nil)

	_, err = otherSvc.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateToken_Malformed(t *testing.T) {
	svc := NewService(testConfig(), nil)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateToken_NoneAlgorithmRejected(t *testing.T) {
	svc := NewService(testConfig(), nil)

	token := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
		"employee_id": 1,
	})
	tokenString, err := token.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.Error(t, err)
}
