package repository

import (
	"context"
	"time"

	"github.com/quillpress/blog/database/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetById(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	UpdateRole(ctx context.Context, id int, role model.Role) error
	UpdatePassword(ctx context.Context, id int, hash string) error
	Delete(ctx context.Context, id int) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	GetById(ctx context.Context, id int) (*model.BlogPost, error)
	List(ctx context.Context) ([]model.BlogPost, error)
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id int) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postId int) ([]model.Comment, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repositories bundles the gorm-backed repositories sharing one connection pool.
type Repositories struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
	Audit    AuditRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    &userRepository{db: db},
		Posts:    &postRepository{db: db},
		Comments: &commentRepository{db: db},
		Audit:    &auditRepository{db: db},
	}
}
