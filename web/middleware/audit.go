package middleware

import (
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/service"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
)

const auditKey = "blog.audit"

// AuditEntry describes a change made by the handler.
type AuditEntry struct {
	Action     string
	Resource   string
	ResourceId int
	Details    map[string]any
}

// RecordAudit marks the request for auditing. The entry is written by
// AuditMiddleware once the handler returns.
func RecordAudit(c *gin.Context, entry AuditEntry) {
	c.Set(auditKey, entry)
}

// AuditMiddleware logs the changes recorded with RecordAudit.
func AuditMiddleware(auditService *service.AuditLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		obj, ok := c.Get(auditKey)
		if !ok {
			return
		}
		entry, ok := obj.(AuditEntry)
		if !ok {
			return
		}

		if entry.Details == nil {
			entry.Details = map[string]any{}
		}
		entry.Details["method"] = c.Request.Method
		entry.Details["path"] = c.Request.URL.Path

		if err := auditService.LogAction(
			c.Request.Context(),
			session.GetLoginUser(c),
			entry.Action,
			entry.Resource,
			entry.ResourceId,
			c.ClientIP(),
			c.GetHeader("User-Agent"),
			entry.Details,
		); err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}
