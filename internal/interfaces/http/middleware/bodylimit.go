package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reimburse/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size.
// Receipt uploads travel as base64 JSON, so the limit applies to the encoded size.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}

		// Streaming bodies without a length are cut off by the reader
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
