package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("a user with this email already exists")
	// ErrTelegramIDTaken means another account already linked this chat.
	ErrTelegramIDTaken = errors.New("a user with this Telegram ID already exists")
)

// Repository defines the operations for persisting and retrieving accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	// Delete removes an account; used to undo a registration that could not complete.
	Delete(ctx context.Context, email string) error
	// GetByTelegramID resolves a chat sender to an account.
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
}
