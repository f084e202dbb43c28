// internal/domain/timetable/repository.go
package timetable

import (
	"context"
	"errors"
)

var (
	ErrGridNotFound = errors.New("timetable not found")
	ErrGridExists   = errors.New("timetable already exists for this teacher")
)

// Repository persists one Grid per teacher email.
type Repository interface {
	Create(ctx context.Context, grid *Grid) error
	Get(ctx context.Context, teacherEmail string) (*Grid, error)
	List(ctx context.Context) ([]*Grid, error)
	// Mutate loads the grid, applies fn and saves the result atomically.
	// Nothing is saved when fn returns an error.
	Mutate(ctx context.Context, teacherEmail string, fn func(*Grid) error) (*Grid, error)
}
