package repository

import (
	"context"

	"github.com/takrit/auth-sessions/internal/domain"
)

// UserRepository is the credential store consumed by the session controller.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
