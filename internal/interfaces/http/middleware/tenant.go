package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/tenant"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/auth"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/dto"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantClaimsKey    = "tenant_claims"
	TenantNamespaceKey = "tenant_namespace"
	AuthHeaderKey      = "Authorization"
	BearerPrefix       = "Bearer "
)

// TokenValidator validates upstream bearer tokens
type TokenValidator interface {
	Validate(tokenString string) (*auth.Claims, error)
}

// TenantResolver maps a namespace to an active tenant
type TenantResolver interface {
	Resolve(ctx context.Context, namespace string) (*tenant.Tenant, error)
}

// Tenant authenticates the bearer token set by the upstream layer and
// resolves the tenant_namespace it carries. Token failures get 401;
// resolution failures map through their kind.
func Tenant(tokens TokenValidator, resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, nil, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, nil, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, nil, "Missing token")
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			abortUnauthorized(c, err, "Token validation failed")
			return
		}

		t, err := resolver.Resolve(c.Request.Context(), claims.TenantNamespace)
		if err != nil {
			c.AbortWithStatusJSON(dto.StatusOf(err), dto.ErrorResponseOf(err, GetRequestID(c)))
			return
		}

		c.Set(TenantClaimsKey, claims)
		c.Set(TenantNamespaceKey, t.Namespace)
		annotateSpan(c, t.Namespace)
		c.Request = c.Request.WithContext(logger.WithTenantNamespace(c.Request.Context(), t.Namespace))
		c.Next()
	}
}

// abortUnauthorized answers 401. A nil err means the header itself was unusable.
func abortUnauthorized(c *gin.Context, err error, message string) {
	logger.GetGinLogger(c).Warn("Tenant authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, text := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpiredToken):
		code, text = "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, text = "TOKEN_NOT_VALID", "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingNamespace):
		code, text = "INVALID_TOKEN", "Token carries no tenant"
	default:
		code, text = "INVALID_TOKEN", "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, text, GetRequestID(c)))
}

// GetTenantClaims returns the token claims accepted by Tenant
func GetTenantClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(TenantClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantNamespace returns the namespace resolved by Tenant
func GetTenantNamespace(c *gin.Context) string {
	return c.GetString(TenantNamespaceKey)
}
