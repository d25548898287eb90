// Package repository is the data-access layer. Services depend on the
// interfaces declared here; the gorm implementations are built with New.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateTitle = errors.New("a post with this title already exists")
	ErrUserHasContent = errors.New("user still owns posts or comments")
	ErrForeignKey     = errors.New("referenced record does not exist")
)

// translate maps gorm errors onto the package sentinels. dup is returned for
// unique violations because each table has a single user-facing unique column.
func translate(err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey) && dup != nil:
		return dup
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	default:
		return err
	}
}
