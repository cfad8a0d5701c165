package repository

import (
	"context"
	"errors"

	"shoplist-backend/internal/domain/entity"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository stores auth credentials. Profile documents live in the
// document store under the users collection, keyed by the same ID.
type UserRepository interface {
	Create(ctx context.Context, u *entity.AuthUser) error
	GetByID(ctx context.Context, id string) (*entity.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*entity.AuthUser, error)
	Update(ctx context.Context, u *entity.AuthUser) error
}
