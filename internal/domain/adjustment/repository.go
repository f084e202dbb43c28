// internal/domain/adjustment/repository.go
package adjustment

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("adjustment not found")

// Repository defines persistence for adjustment requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	ListAll(ctx context.Context) ([]*Request, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Request, error)
	ListByTeacher(ctx context.Context, teacherEmail string) ([]*Request, error)
	// Update loads the request, applies fn and saves it atomically.
	Update(ctx context.Context, id string, fn func(*Request) error) (*Request, error)
}
