package repository

import (
	"context"

	"github.com/quillpress/blog/database/model"

	"gorm.io/gorm"
)

type commentRepository struct {
	db *gorm.DB
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return translate(r.db.WithContext(ctx).Omit("Author").Create(comment).Error, nil)
}

func (r *commentRepository) ListByPost(ctx context.Context, postId int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postId).
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}
