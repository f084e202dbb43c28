package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // For pq.Array

	"teacher_timetable/internal/domain/adjustment"
)

type PostgresAdjustmentRepository struct {
	db *sql.DB
}

func NewPostgresAdjustmentRepository(db *sql.DB) *PostgresAdjustmentRepository {
	return &PostgresAdjustmentRepository{db: db}
}

const adjustmentColumns = `id, teacher_email, teacher_name, leave_date, reason, lectures, status, substitute_teacher, created_at, updated_at`

func scanAdjustment(row rowScanner) (*adjustment.Request, error) {
	req := &adjustment.Request{}
	var (
		lectures   []byte
		substitute sql.NullString
	)
	err := row.Scan(&req.ID, &req.TeacherEmail, &req.TeacherName, &req.LeaveDate, &req.Reason,
		&lectures, &req.Status, &substitute, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lectures, &req.Lectures); err != nil {
		return nil, fmt.Errorf("error decoding lectures for adjustment %s: %w", req.ID, err)
	}
	if req.Lectures == nil {
		req.Lectures = []adjustment.AffectedLecture{}
	}
	if substitute.Valid {
		req.SubstituteTeacher = &substitute.String
	}
	y, m, d := req.LeaveDate.Date()
	req.LeaveDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return req, nil
}

func encodeLectures(lectures []adjustment.AffectedLecture) ([]byte, error) {
	if lectures == nil {
		lectures = []adjustment.AffectedLecture{}
	}
	return json.Marshal(lectures)
}

func substituteValue(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresAdjustmentRepository) Create(ctx context.Context, req *adjustment.Request) error {
	lectures, err := encodeLectures(req.Lectures)
	if err != nil {
		return fmt.Errorf("error encoding lectures: %w", err)
	}
	query := `INSERT INTO adjustments (` + adjustmentColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query, req.ID, req.TeacherEmail, req.TeacherName, req.LeaveDate.Format("2006-01-02"),
		req.Reason, lectures, req.Status, substituteValue(req.SubstituteTeacher), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating adjustment: %w", err)
	}
	return nil
}

func (r *PostgresAdjustmentRepository) GetByID(ctx context.Context, id string) (*adjustment.Request, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM adjustments WHERE id = $1`
	req, err := scanAdjustment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, adjustment.ErrNotFound
		}
		return nil, fmt.Errorf("error getting adjustment by ID: %w", err)
	}
	return req, nil
}

func (r *PostgresAdjustmentRepository) list(ctx context.Context, where string, args ...any) ([]*adjustment.Request, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM adjustments ` + where + ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing adjustments: %w", err)
	}
	defer rows.Close()

	out := make([]*adjustment.Request, 0)
	for rows.Next() {
		req, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning adjustment: %w", err)
		}
		out = append(out, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjustments: %w", err)
	}
	return out, nil
}

func (r *PostgresAdjustmentRepository) ListAll(ctx context.Context) ([]*adjustment.Request, error) {
	return r.list(ctx, "")
}

func (r *PostgresAdjustmentRepository) ListByStatus(ctx context.Context, statuses ...adjustment.Status) ([]*adjustment.Request, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return r.list(ctx, `WHERE status = ANY($1)`, pq.Array(values))
}

func (r *PostgresAdjustmentRepository) ListByTeacher(ctx context.Context, teacherEmail string) ([]*adjustment.Request, error) {
	return r.list(ctx, `WHERE teacher_email = $1`, teacherEmail)
}

func (r *PostgresAdjustmentRepository) Update(ctx context.Context, id string, fn func(*adjustment.Request) error) (*adjustment.Request, error) {
	var result *adjustment.Request
	err := inTx(ctx, r.db, func(txn *sql.Tx) error {
		query := `SELECT ` + adjustmentColumns + ` FROM adjustments WHERE id = $1 FOR UPDATE`
		req, err := scanAdjustment(txn.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return adjustment.ErrNotFound
			}
			return fmt.Errorf("error locking adjustment: %w", err)
		}
		if err := fn(req); err != nil {
			return err
		}
		update := `UPDATE adjustments SET status = $1, substitute_teacher = $2, updated_at = $3 WHERE id = $4`
		if _, err := txn.ExecContext(ctx, update, req.Status, substituteValue(req.SubstituteTeacher), req.UpdatedAt, id); err != nil {
			return fmt.Errorf("error updating adjustment: %w", err)
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
