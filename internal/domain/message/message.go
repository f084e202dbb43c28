// internal/domain/message/message.go
package message

import (
	"context"
	"errors"
	"time"

	"teacher_timetable/internal/domain/user"
)

// AdminRecipient addresses the administrators' shared inbox.
const AdminRecipient = "admin"

var ErrNotFound = errors.New("message not found")

// Message is one note exchanged between a teacher and the administration.
type Message struct {
	ID          string    `json:"id"`
	SenderEmail string    `json:"senderEmail"`
	SenderName  string    `json:"senderName"`
	SenderRole  user.Role `json:"senderRole"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// VisibleToAdmin: everything addressed to admin plus anything a teacher sent.
func (m *Message) VisibleToAdmin() bool {
	return m.Recipient == AdminRecipient || m.SenderRole == user.RoleTeacher
}

// VisibleToTeacher keeps only the thread between email and the administration.
func (m *Message) VisibleToTeacher(email string) bool {
	return (m.Recipient == email && m.SenderRole == user.RoleAdmin) ||
		(m.SenderEmail == email && m.Recipient == AdminRecipient)
}

// CanBeMarkedBy reports whether the caller may flag the message as read.
func (m *Message) CanBeMarkedBy(email string, role user.Role) bool {
	return m.Recipient == email || (role == user.RoleAdmin && m.Recipient == AdminRecipient)
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListAll(ctx context.Context) ([]*Message, error)
	// MarkRead sets the read flag; it succeeds if the flag was already set.
	MarkRead(ctx context.Context, id string) (*Message, error)
}
