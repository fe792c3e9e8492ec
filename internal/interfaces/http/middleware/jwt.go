package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reimburse/backend/internal/infrastructure/auth"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Identity context keys
const (
	UIDKey        = "uid"
	EmailKey      = "email"
	NameKey       = "name"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier checks a bearer token issued by the identity provider
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// JWTAuth verifies the bearer token and stores the caller identity in the context.
// Roles are not read from the token.
func JWTAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Missing token")
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrMissingSecret) {
				log.Error("JWT secret is not configured")
			}
			abortWithError(c, dto.ErrCodeUnauthenticated, authErrorMessage(err))
			return
		}

		c.Set(UIDKey, identity.UID)
		c.Set(EmailKey, identity.Email)
		c.Set(NameKey, identity.Name)

		ctx, reqLogger := logger.WithUID(c.Request.Context(), logger.FromGin(c), identity.UID)
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingUID):
		return "Token carries no user id"
	default:
		return "Invalid token"
	}
}
