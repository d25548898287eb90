package repository

import (
	"context"

	"github.com/quillpress/blog/database/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, ErrDuplicateEmail)
}

func (r *userRepository) GetById(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, nil)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *userRepository) UpdateRole(ctx context.Context, id int, role model.Role) error {
	return r.update(ctx, id, "role", role)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	return r.update(ctx, id, "password", hash)
}

func (r *userRepository) update(ctx context.Context, id int, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete refuses to remove a user who still authors posts or comments.
func (r *userRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&model.BlogPost{}).Where("author_id = ?", id).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			if err := tx.Model(&model.Comment{}).Where("author_id = ?", id).Count(&owned).Error; err != nil {
				return err
			}
		}
		if owned > 0 {
			return ErrUserHasContent
		}

		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
