package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	actorIDKey = contextKey("actorID")
	rolesKey   = contextKey("roles")
	tenantsKey = contextKey("tenants")
)

// GetActorIDFromContext retrieves the authenticated actor ID from the Gin context.
// It returns the actor ID and a boolean indicating if it was found.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	if actorID, ok := c.Request.Context().Value(actorIDKey).(string); ok && actorID != "" {
		return actorID, true
	}
	return "", false
}

// GetRolesFromContext returns the role names carried by the actor's token.
func GetRolesFromContext(c *gin.Context) []string {
	roles, _ := c.Request.Context().Value(rolesKey).([]string)
	return roles
}

func withActor(ctx context.Context, actorID string, roles, tenants []string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	ctx = context.WithValue(ctx, rolesKey, roles)
	return context.WithValue(ctx, tenantsKey, tenants)
}

func tenantsFromCtx(ctx context.Context) []string {
	tenants, _ := ctx.Value(tenantsKey).([]string)
	return tenants
}
