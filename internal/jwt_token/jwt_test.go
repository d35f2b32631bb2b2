package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "resimed/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "resimed", "resimed-admin")
	userID := uuid.New()
	scholarID := uuid.New().String()

	token, err := svc.GenerateAccessToken(userID, "becado", scholarID, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "becado", claims.Role)
	assert.Equal(t, scholarID, claims.ScholarID)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-signing-key", "resimed", "resimed-admin")

	token, err := svc.GenerateAccessToken(uuid.New(), "doctor", "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-a", "resimed", "resimed-admin")
	validator := NewJWTService("key-b", "resimed", "resimed-admin")

	token, err := issuer.GenerateAccessToken(uuid.New(), "admin", "", time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
