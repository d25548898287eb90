package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditLogService records administrative changes.
type AuditLogService struct {
	repo repository.AuditRepository
}

func NewAuditLogService(repo repository.AuditRepository) *AuditLogService {
	return &AuditLogService{repo: repo}
}

// LogAction logs an audit action with error handling
func (s *AuditLogService) LogAction(ctx context.Context, user *model.User, action, resource string, resourceId int, ip, userAgent string, details map[string]any) error {
	detailsJSON := ""
	if details != nil {
		jsonData, err := json.Marshal(details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = string(jsonData)
		}
	}

	entry := &model.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceId: resourceId,
		IP:         ip,
		UserAgent:  userAgent,
		Details:    detailsJSON,
		Timestamp:  time.Now(),
	}
	if user != nil {
		entry.UserId = user.Id
		entry.Email = user.Email
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warningf("Failed to create audit log: user=%d, action=%s, resource=%s, error=%v", entry.UserId, action, resource, err)
		return err
	}
	return nil
}

// CleanOldLogs removes audit logs older than specified days
func (s *AuditLogService) CleanOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	return s.repo.DeleteBefore(ctx, time.Now().AddDate(0, 0, -days))
}
