package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"teacher_timetable/internal/domain/message"
)

type PostgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

const messageColumns = `id, sender_email, sender_name, sender_role, recipient, subject, body, sent_at, is_read`

func scanMessage(row rowScanner) (*message.Message, error) {
	m := &message.Message{}
	err := row.Scan(&m.ID, &m.SenderEmail, &m.SenderName, &m.SenderRole, &m.Recipient, &m.Subject, &m.Body, &m.Timestamp, &m.Read)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	query := `INSERT INTO messages (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.SenderEmail, m.SenderName, m.SenderRole, m.Recipient, m.Subject, m.Body, m.Timestamp, m.Read)
	if err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*message.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, message.ErrNotFound
		}
		return nil, fmt.Errorf("error getting message by ID: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListAll(ctx context.Context) ([]*message.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY sent_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	defer rows.Close()

	out := make([]*message.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return out, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, id string) (*message.Message, error) {
	query := `UPDATE messages SET is_read = TRUE WHERE id = $1 RETURNING ` + messageColumns
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, message.ErrNotFound
		}
		return nil, fmt.Errorf("error marking message read: %w", err)
	}
	return m, nil
}
