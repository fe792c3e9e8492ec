package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyHeader carries the client chosen submission key
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// Idempotency rejects a repeated submission carrying an already claimed
// Idempotency-Key with 409. Keys are scoped per caller and route. A failed
// submission releases its key so the client can retry. Requests without the
// header pass through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		scoped := "idem:" + c.GetString(UIDKey) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + c.Param("id") + ":" + key
		log := logger.FromGin(c)

		claimed, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			// Fail open: a store outage must not block submissions
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, dto.ErrCodeDuplicateRequest, "This submission was already received")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			// the request context may already be cancelled
			if err := store.Release(context.WithoutCancel(c.Request.Context()), scoped); err != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
