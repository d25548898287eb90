package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/util/crypto"
)

type UserService struct {
	users repository.UserRepository

	// register serializes the admin count and the insert of Register.
	register sync.Mutex
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates an account. The first account registered while no
// administrator exists becomes the administrator. The check and the insert
// are serialized within this process only; several servers sharing one
// database can still race on an empty database.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrEmptyField
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}

	s.register.Lock()
	defer s.register.Unlock()

	_, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	admins, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	role := model.RoleReader
	if admins == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(name),
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Infof("registered user %d <%s> as %s", user.Id, user.Email, user.Role)
	return user, nil
}

// Login verifies the credentials. Legacy pbkdf2 hashes are replaced with
// bcrypt after a successful check.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownEmail
	} else if err != nil {
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil, ErrInvalidPassword
	}

	if crypto.IsLegacyHash(user.Password) {
		hash, err := crypto.HashPasswordAsBcrypt(password)
		if err == nil {
			err = s.users.UpdatePassword(ctx, user.Id, hash)
		}
		if err != nil {
			logger.Warning("upgrade password hash err:", err)
		} else {
			user.Password = hash
		}
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetById(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, strings.TrimSpace(email))
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func ParseRole(role string) (model.Role, error) {
	switch r := model.Role(strings.ToLower(strings.TrimSpace(role))); r {
	case model.RoleAdmin, model.RoleReader:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

func (s *UserService) SetRole(ctx context.Context, email, role string) (*model.User, error) {
	r, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, user.Id, r); err != nil {
		return nil, err
	}
	user.Role = r
	return user, nil
}

// DeleteUser removes an account that owns no posts or comments.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user.Id)
}
