package repository

import (
	"context"

	"github.com/quillpress/blog/database/model"

	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func (r *postRepository) Create(ctx context.Context, post *model.BlogPost) error {
	return translate(r.db.WithContext(ctx).Omit("Author", "Comments").Create(post).Error, ErrDuplicateTitle)
}

// GetById loads the post with its author, its comments and their authors.
func (r *postRepository) GetById(ctx context.Context, id int) (*model.BlogPost, error) {
	var post model.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments.Author").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err, nil)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]model.BlogPost, error) {
	var posts []model.BlogPost
	if err := r.db.WithContext(ctx).Preload("Author").Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Update overwrites the editable columns; author and date are left untouched.
func (r *postRepository) Update(ctx context.Context, post *model.BlogPost) error {
	result := r.db.WithContext(ctx).Model(&model.BlogPost{}).
		Where("id = ?", post.Id).
		Updates(map[string]any{
			"title":    post.Title,
			"subtitle": post.Subtitle,
			"img_url":  post.ImgUrl,
			"body":     post.Body,
		})
	if result.Error != nil {
		return translate(result.Error, ErrDuplicateTitle)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the post together with its comments.
func (r *postRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.BlogPost{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
