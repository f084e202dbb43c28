package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"teacher_timetable/internal/domain/timetable"
)

// PostgresTimetableRepository stores each grid's week as a JSONB document.
type PostgresTimetableRepository struct {
	db *sql.DB
}

func NewPostgresTimetableRepository(db *sql.DB) *PostgresTimetableRepository {
	return &PostgresTimetableRepository{db: db}
}

func decodeGrid(teacherEmail string, week []byte) (*timetable.Grid, error) {
	g := &timetable.Grid{TeacherEmail: teacherEmail}
	if err := json.Unmarshal(week, &g.Week); err != nil {
		return nil, fmt.Errorf("error decoding timetable for %s: %w", teacherEmail, err)
	}
	g.Normalize()
	return g, nil
}

func (r *PostgresTimetableRepository) Create(ctx context.Context, grid *timetable.Grid) error {
	g := grid.Clone()
	g.Normalize()
	week, err := json.Marshal(g.Week)
	if err != nil {
		return fmt.Errorf("error encoding timetable: %w", err)
	}

	query := `INSERT INTO timetables (teacher_email, week) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, g.TeacherEmail, week); err != nil {
		if isUniqueViolation(err) {
			return timetable.ErrGridExists
		}
		return fmt.Errorf("error creating timetable: %w", err)
	}
	return nil
}

func (r *PostgresTimetableRepository) Get(ctx context.Context, teacherEmail string) (*timetable.Grid, error) {
	var week []byte
	err := r.db.QueryRowContext(ctx, `SELECT week FROM timetables WHERE teacher_email = $1`, teacherEmail).Scan(&week)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, timetable.ErrGridNotFound
		}
		return nil, fmt.Errorf("error getting timetable: %w", err)
	}
	return decodeGrid(teacherEmail, week)
}

func (r *PostgresTimetableRepository) List(ctx context.Context) ([]*timetable.Grid, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT teacher_email, week FROM timetables ORDER BY teacher_email`)
	if err != nil {
		return nil, fmt.Errorf("error listing timetables: %w", err)
	}
	defer rows.Close()

	grids := make([]*timetable.Grid, 0)
	for rows.Next() {
		var (
			email string
			week  []byte
		)
		if err := rows.Scan(&email, &week); err != nil {
			return nil, fmt.Errorf("error scanning timetable: %w", err)
		}
		g, err := decodeGrid(email, week)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timetables: %w", err)
	}
	return grids, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE so concurrent edits to the
// same grid serialize instead of overwriting each other.
func (r *PostgresTimetableRepository) Mutate(ctx context.Context, teacherEmail string, fn func(*timetable.Grid) error) (*timetable.Grid, error) {
	var result *timetable.Grid
	err := inTx(ctx, r.db, func(txn *sql.Tx) error {
		var week []byte
		err := txn.QueryRowContext(ctx, `SELECT week FROM timetables WHERE teacher_email = $1 FOR UPDATE`, teacherEmail).Scan(&week)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return timetable.ErrGridNotFound
			}
			return fmt.Errorf("error locking timetable: %w", err)
		}
		g, err := decodeGrid(teacherEmail, week)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		g.Normalize()
		encoded, err := json.Marshal(g.Week)
		if err != nil {
			return fmt.Errorf("error encoding timetable: %w", err)
		}
		if _, err := txn.ExecContext(ctx, `UPDATE timetables SET week = $1, updated_at = NOW() WHERE teacher_email = $2`, encoded, teacherEmail); err != nil {
			return fmt.Errorf("error updating timetable: %w", err)
		}
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
