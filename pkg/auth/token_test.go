package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailsignals/pricewise-backend/pkg/config"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "pricewise-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	branchID := uuid.New()
	payload := AccessTokenPayload{
		ActorID:  uuid.New(),
		TenantID: uuid.New(),
		BranchID: &branchID,
		Role:     enums.ActorRoleBranchManager,
	}

	signed, err := MintAccessToken(cfg, time.Now(), payload)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)

	assert.Equal(t, payload.ActorID, claims.ActorID)
	assert.Equal(t, payload.TenantID, claims.TenantID)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, branchID, *claims.BranchID)
	assert.Equal(t, enums.ActorRoleBranchManager, claims.Role)
	assert.False(t, claims.HasHQAuthority())
}

func TestMintRejectsInvalidPayload(t *testing.T) {
	cfg := testJWTConfig()

	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		ActorID:  uuid.New(),
		TenantID: uuid.New(),
		Role:     "superuser",
	})
	require.Error(t, err)

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		ActorID: uuid.New(),
		Role:    enums.ActorRoleHQAdmin,
	})
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	payload := AccessTokenPayload{
		ActorID:  uuid.New(),
		TenantID: uuid.New(),
		Role:     enums.ActorRoleHQAdmin,
	}

	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		ActorID:  uuid.New(),
		TenantID: uuid.New(),
		Role:     enums.ActorRoleHQAdmin,
	})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, signed)
	require.Error(t, err)
}

func TestHQAuthority(t *testing.T) {
	claims := &AccessTokenClaims{Role: enums.ActorRoleHQAdmin}
	assert.True(t, claims.HasHQAuthority())
	claims.Role = enums.ActorRoleClerk
	assert.False(t, claims.HasHQAuthority())
}
