package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/message"
	"teacher_timetable/internal/domain/user"
)

type SendMessageInput struct {
	Recipient string `json:"recipient" validate:"notblank"`
	Subject   string `json:"subject" validate:"notblank"`
	Body      string `json:"body" validate:"notblank"`
}

type MessagingService struct {
	messages message.Repository
	users    user.Repository
	policy   Authorizer
	logger   *logrus.Entry
	now      func() time.Time
	newID    func() string
}

func NewMessagingService(messages message.Repository, users user.Repository, policy Authorizer, logger *logrus.Entry) *MessagingService {
	return &MessagingService{
		messages: messages,
		users:    users,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Send checks the addressing rules in order and stores an unread message.
// Teachers may only write to admin; admin writes to teachers by email.
func (s *MessagingService) Send(ctx context.Context, actor access.Actor, in SendMessageInput) (*message.Message, error) {
	if err := authorize(s.policy, actor, access.OpSendMessage); err != nil {
		return nil, err
	}
	recipient := strings.TrimSpace(in.Recipient)
	if recipient != message.AdminRecipient {
		recipient = cleanEmail(recipient)
	}

	if actor.Role == user.RoleTeacher && recipient != message.AdminRecipient {
		return nil, newError(KindForbidden, "teachers may only message admin")
	}
	if actor.Role == user.RoleAdmin && recipient == message.AdminRecipient {
		return nil, newError(KindInvalidArgument, "admin cannot address itself as admin")
	}
	if recipient != message.AdminRecipient {
		if _, err := s.users.GetByEmail(ctx, recipient); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return nil, wrapError(KindInvalidArgument, "unknown recipient", err)
			}
			return nil, fmt.Errorf("failed to resolve recipient: %w", err)
		}
	}
	in.Recipient = recipient
	if err := validateInput(in); err != nil {
		return nil, err
	}

	msg := &message.Message{
		ID:          s.newID(),
		SenderEmail: actor.Email,
		SenderName:  actor.Name,
		SenderRole:  actor.Role,
		Recipient:   recipient,
		Subject:     strings.TrimSpace(in.Subject),
		Body:        in.Body,
		Timestamp:   s.now(),
		Read:        false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"sender":     msg.SenderEmail,
		"recipient":  msg.Recipient,
	}).Info("Message sent")
	return msg, nil
}

// ListFor returns the messages the caller may see, newest first.
func (s *MessagingService) ListFor(ctx context.Context, actor access.Actor) ([]*message.Message, error) {
	if err := authorize(s.policy, actor, access.OpListMessages); err != nil {
		return nil, err
	}
	all, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	visible := make([]*message.Message, 0, len(all))
	for _, m := range all {
		switch actor.Role {
		case user.RoleAdmin:
			if m.VisibleToAdmin() {
				visible = append(visible, m)
			}
		case user.RoleTeacher:
			if m.VisibleToTeacher(actor.Email) {
				visible = append(visible, m)
			}
		default:
			return nil, newError(KindForbidden, "unsupported role")
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Timestamp.After(visible[j].Timestamp)
	})
	return visible, nil
}

// MarkRead flags a message as read for its recipient. Marking twice is fine.
func (s *MessagingService) MarkRead(ctx context.Context, actor access.Actor, id string) (*message.Message, error) {
	if err := authorize(s.policy, actor, access.OpMarkMessageRead); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) {
			return nil, wrapError(KindNotFound, "message not found", err)
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	if !msg.CanBeMarkedBy(actor.Email, actor.Role) {
		return nil, newError(KindForbidden, "not authorized to mark this message")
	}
	if msg.Read {
		return msg, nil
	}
	updated, err := s.messages.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) {
			return nil, wrapError(KindNotFound, "message not found", err)
		}
		return nil, fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	return updated, nil
}
