package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-compliance-monitor/pkg/utils"
)

const (
	// Command and configuration payloads are small JSON bodies; media
	// never travels over HTTP.
	DefaultMaxRequestSize = 1 << 20
)

// RequestSizeLimitMiddleware limits the size of incoming requests to maxSize bytes.
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
