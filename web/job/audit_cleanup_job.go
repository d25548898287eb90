// Package job holds the cron jobs run by the web server.
package job

import (
	"context"
	"time"

	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/util/common"
	"github.com/quillpress/blog/web/service"
)

const defaultRetentionDays = 90

// AuditCleanupJob cleans up old audit logs
type AuditCleanupJob struct {
	auditService  *service.AuditLogService
	retentionDays int
}

// NewAuditCleanupJob creates a new audit cleanup job
func NewAuditCleanupJob(auditService *service.AuditLogService, retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &AuditCleanupJob{
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

// Run cleans up old audit logs
func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	logger.Debug("Audit cleanup job started")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := j.auditService.CleanOldLogs(ctx, j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
	} else {
		logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, n)
	}
}
