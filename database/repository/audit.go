package repository

import (
	"context"
	"time"

	"github.com/quillpress/blog/database/model"

	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	return result.RowsAffected, result.Error
}
