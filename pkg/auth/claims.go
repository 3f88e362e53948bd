package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID  uuid.UUID
	TenantID uuid.UUID
	BranchID *uuid.UUID
	Role     enums.ActorRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	ActorID  uuid.UUID       `json:"actor_id"`
	TenantID uuid.UUID       `json:"tenant_id"`
	BranchID *uuid.UUID      `json:"branch_id,omitempty"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// HasHQAuthority reports whether the claims belong to an HQ-level actor.
func (c *AccessTokenClaims) HasHQAuthority() bool {
	return c != nil && c.Role == enums.ActorRoleHQAdmin
}
