package jwtutil

import (
	"testing"

	"tenant-service/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	id := uuid.New()
	token, err := GenerateToken("ops@example.com", id, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, id, claims.UserID)
	assert.True(t, claims.IsSuper)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("ops@example.com", uuid.New(), false)
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
