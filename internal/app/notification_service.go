package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"teacher_timetable/internal/domain/adjustment"
	domainTelegram "teacher_timetable/internal/domain/telegram"
	"teacher_timetable/internal/domain/user"
)

// Notifier is told about adjustment lifecycle events. Delivery is best
// effort: implementations log failures and never block the caller's result.
type Notifier interface {
	LeaveRequestSubmitted(ctx context.Context, req *adjustment.Request)
	AdjustmentUpdated(ctx context.Context, req *adjustment.Request)
}

// NotificationService is a Notifier that can also push the pending digest.
type NotificationService interface {
	Notifier
	SendPendingDigest(ctx context.Context) error
}

// LogNotificationService only records events; used when no bot is configured.
type LogNotificationService struct {
	adjustments adjustment.Repository
	logger      *logrus.Entry
}

func NewLogNotificationService(adjustments adjustment.Repository, logger *logrus.Entry) *LogNotificationService {
	return &LogNotificationService{adjustments: adjustments, logger: logger}
}

func (s *LogNotificationService) LeaveRequestSubmitted(_ context.Context, req *adjustment.Request) {
	s.logger.WithFields(logrus.Fields{
		"adjustment_id": req.ID,
		"teacher_email": req.TeacherEmail,
	}).Info("Leave request awaiting admin action")
}

func (s *LogNotificationService) AdjustmentUpdated(_ context.Context, req *adjustment.Request) {
	s.logger.WithFields(logrus.Fields{
		"adjustment_id": req.ID,
		"status":        req.Status,
	}).Info("Adjustment status changed")
}

func (s *LogNotificationService) SendPendingDigest(ctx context.Context) error {
	pending, err := s.adjustments.ListByStatus(ctx, adjustment.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending adjustments: %w", err)
	}
	s.logger.WithField("pending_count", len(pending)).Info("Pending adjustments digest")
	return nil
}

// TelegramNotificationService delivers events through the bot: new leave
// requests go to the admin chat with decision buttons, status changes go to
// the teacher when their account has a linked chat.
type TelegramNotificationService struct {
	users           user.Repository
	adjustments     adjustment.Repository
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	adminTelegramID int64
}

func NewTelegramNotificationService(
	users user.Repository,
	adjustments adjustment.Repository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminTelegramID int64,
) *TelegramNotificationService {
	return &TelegramNotificationService{
		users:           users,
		adjustments:     adjustments,
		telegramClient:  tc,
		logger:          logger,
		adminTelegramID: adminTelegramID,
	}
}

// DecisionMarkup builds the Approve/Reject inline keyboard for a request.
func DecisionMarkup(adjustmentID string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	btnApprove := markup.Data("Approve", domainTelegram.CallbackData(domainTelegram.DecisionApprove, adjustmentID))
	btnReject := markup.Data("Reject", domainTelegram.CallbackData(domainTelegram.DecisionReject, adjustmentID))
	markup.Inline(markup.Row(btnApprove, btnReject))
	return markup
}

// FormatAdjustment renders a request as a short chat message.
func FormatAdjustment(req *adjustment.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Leave request %s\n", req.ID)
	fmt.Fprintf(&b, "Teacher: %s <%s>\n", req.TeacherName, req.TeacherEmail)
	fmt.Fprintf(&b, "Date: %s (%s)\n", req.LeaveDate.Format(LeaveDateLayout), req.LeaveDate.Weekday())
	fmt.Fprintf(&b, "Reason: %s\n", req.Reason)
	fmt.Fprintf(&b, "Status: %s\n", req.Status)
	if req.SubstituteTeacher != nil {
		fmt.Fprintf(&b, "Substitute: %s\n", *req.SubstituteTeacher)
	}
	if len(req.Lectures) == 0 {
		b.WriteString("No lectures affected.")
		return b.String()
	}
	b.WriteString("Lectures:")
	for _, l := range req.Lectures {
		fmt.Fprintf(&b, "\n  P%d %s-%s %s (%s)", l.PeriodIndex+1, l.StartTime, l.EndTime, l.Subject, l.Room)
	}
	return b.String()
}

func (s *TelegramNotificationService) LeaveRequestSubmitted(_ context.Context, req *adjustment.Request) {
	logCtx := s.logger.WithField("adjustment_id", req.ID)
	if s.adminTelegramID == 0 {
		logCtx.Warn("Admin Telegram ID not configured. Cannot notify about leave request.")
		return
	}
	err := s.telegramClient.SendMessage(s.adminTelegramID, FormatAdjustment(req), &telebot.SendOptions{ReplyMarkup: DecisionMarkup(req.ID)})
	if err != nil {
		logCtx.WithError(err).Error("Failed to notify admin about leave request")
		return
	}
	logCtx.Info("Admin notified about leave request")
}

func (s *TelegramNotificationService) AdjustmentUpdated(ctx context.Context, req *adjustment.Request) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"adjustment_id": req.ID,
		"teacher_email": req.TeacherEmail,
	})
	teacherInfo, err := s.users.GetByEmail(ctx, req.TeacherEmail)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logCtx.Warn("Teacher account not found. Skipping status notification.")
			return
		}
		logCtx.WithError(err).Error("Failed to load teacher for status notification")
		return
	}
	if teacherInfo.TelegramID == 0 {
		logCtx.Debug("Teacher has no linked chat. Skipping status notification.")
		return
	}

	text := fmt.Sprintf("Your leave request for %s is now %s.", req.LeaveDate.Format(LeaveDateLayout), req.Status)
	if req.SubstituteTeacher != nil {
		text += fmt.Sprintf("\nSubstitute: %s", *req.SubstituteTeacher)
	}
	if err := s.telegramClient.SendMessage(teacherInfo.TelegramID, text, nil); err != nil {
		logCtx.WithError(err).Error("Failed to notify teacher about status change")
		return
	}
	logCtx.Info("Teacher notified about status change")
}

// SendPendingDigest posts every Pending request to the admin chat.
func (s *TelegramNotificationService) SendPendingDigest(ctx context.Context) error {
	if s.adminTelegramID == 0 {
		s.logger.Warn("Admin Telegram ID not configured. Skipping pending digest.")
		return nil
	}
	pending, err := s.adjustments.ListByStatus(ctx, adjustment.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending adjustments: %w", err)
	}
	if len(pending) == 0 {
		s.logger.Info("No pending adjustments. Digest not sent.")
		return nil
	}

	header := fmt.Sprintf("%d leave request(s) awaiting action.", len(pending))
	if err := s.telegramClient.SendMessage(s.adminTelegramID, header, nil); err != nil {
		return fmt.Errorf("failed to send digest header: %w", err)
	}
	var failed int
	for _, req := range pending {
		err := s.telegramClient.SendMessage(s.adminTelegramID, FormatAdjustment(req), &telebot.SendOptions{ReplyMarkup: DecisionMarkup(req.ID)})
		if err != nil {
			failed++
			s.logger.WithError(err).WithField("adjustment_id", req.ID).Error("Failed to send digest entry")
		}
	}
	s.logger.WithFields(logrus.Fields{"pending_count": len(pending), "failed": failed}).Info("Pending digest sent")
	if failed > 0 {
		return fmt.Errorf("failed to send %d of %d digest entries", failed, len(pending))
	}
	return nil
}
