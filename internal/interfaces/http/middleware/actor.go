package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ActorKey holds the resolved reimbursement.Actor
const ActorKey = "actor"

// ProfileEnsurer resolves the stored profile of a verified identity
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, uid, email, name string) (*reimbursement.AppUser, error)
}

// LoadActor resolves the caller's profile after JWTAuth, provisioning it on first
// sight. The role always comes from the stored profile.
func LoadActor(profiles ProfileEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(UIDKey)
		if uid == "" {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Must be logged in")
			return
		}

		user, err := profiles.EnsureProfile(c.Request.Context(), uid, c.GetString(EmailKey), c.GetString(NameKey))
		if err != nil {
			logger.FromGin(c).Error("failed to load caller profile", zap.String("uid", uid), zap.Error(err))
			status, info := dto.FromError(err, c.GetString(RequestIDKey))
			c.AbortWithStatusJSON(status, dto.Response{Error: info})
			return
		}

		c.Set(ActorKey, user.Actor())
		c.Next()
	}
}

// GetActor returns the caller, or the zero actor when LoadActor did not run
func GetActor(c *gin.Context) reimbursement.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if a, ok := v.(reimbursement.Actor); ok {
			return a
		}
	}
	return reimbursement.Actor{}
}

// RequireRole lets only the listed roles through
func RequireRole(roles ...reimbursement.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if !actor.IsAuthenticated() {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Must be logged in")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			abortWithError(c, dto.ErrCodeForbidden, "Insufficient role for this operation")
			return
		}
		c.Next()
	}
}

// RequireApprover admits approvers and admins
func RequireApprover() gin.HandlerFunc {
	return RequireRole(reimbursement.RoleApprover, reimbursement.RoleAdmin)
}

// RequireAdmin admits admins only
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(reimbursement.RoleAdmin)
}
