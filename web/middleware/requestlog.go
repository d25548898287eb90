package middleware

import (
	"time"

	"github.com/quillpress/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIdHeader = "X-Request-Id"

// RequestLog tags every request with an id and logs it when done.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(RequestIdHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "[%s] %s %s %d %s"
		args := []any{id, c.Request.Method, c.Request.URL.Path, status, time.Since(start)}
		switch {
		case status >= 500:
			logger.Errorf(line, args...)
		case status >= 400:
			logger.Noticef(line, args...)
		default:
			logger.Debugf(line, args...)
		}
	}
}
