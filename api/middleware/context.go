package middleware

import (
	"context"

	"github.com/retailsignals/pricewise-backend/pkg/auth"
)

type contextKey string

const (
	ctxClaims   contextKey = "claims"
	ctxActorID  contextKey = "actor_id"
	ctxTenantID contextKey = "tenant_id"
	ctxRole     contextKey = "actor_role"
)

// ClaimsFromContext returns the authenticated claims, or nil when the request
// was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*auth.AccessTokenClaims); ok {
		return v
	}
	return nil
}

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTenantID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithClaims injects authenticated claims into the context. Used by tests and
// the auth middleware.
func WithClaims(ctx context.Context, claims *auth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if claims == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxClaims, claims)
	ctx = context.WithValue(ctx, ctxActorID, claims.ActorID.String())
	ctx = context.WithValue(ctx, ctxTenantID, claims.TenantID.String())
	ctx = context.WithValue(ctx, ctxRole, claims.Role.String())
	return ctx
}
