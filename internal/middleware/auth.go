package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ActorClaims are the claims the ledger reads from an access token issued by the platform.
// Subject is the actor id.
type ActorClaims struct {
	Roles   []string `json:"roles,omitempty"`
	Tenants []string `json:"tenants,omitempty"` // "*" grants every tenant
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware handler that validates JWT tokens.
func AuthMiddleware(jwtSecret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}

		claims := &ActorClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		}, opts...)
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if !token.Valid || claims.Subject == "" {
			logger.Warn("Actor (subject) missing from token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		enrichedLogger := logger.With(slog.String("actor_id", claims.Subject))
		ctx := withActor(c.Request.Context(), claims.Subject, claims.Roles, claims.Tenants)
		c.Request = c.Request.WithContext(WithLogger(ctx, enrichedLogger))
		c.Set(string(loggerKey), enrichedLogger)

		c.Next()
	}
}

// RequireTenant rejects requests whose :tenant_id is not granted by the actor's token.
func RequireTenant(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Param(param)
		tenants := tenantsFromCtx(c.Request.Context())
		if tenantID == "" || !(slices.Contains(tenants, "*") || slices.Contains(tenants, tenantID)) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Tenant not granted", slog.String("tenant_id", tenantID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access to tenant denied"})
			return
		}
		logger := GetLoggerFromContext(c).With(slog.String("tenant_id", tenantID))
		c.Set(string(loggerKey), logger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}
