package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"teacher_timetable/internal/domain/user"
)

// ChatDirectory maps a Telegram sender to a registered account.
type ChatDirectory interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error)
}

const adminHelp = "Admin commands:\n\n" +
	"`/pending`\n - List leave requests awaiting action.\n\n" +
	"`/approve <adjustmentId> [substituteEmail]`\n - Approve a request, optionally assigning a substitute.\n\n" +
	"`/reject <adjustmentId>`\n - Reject a request.\n\n" +
	"`/resolve <adjustmentId>`\n - Mark a request as resolved.\n\n" +
	"`/help`\n - Show this message."

const teacherHelp = "I will message you whenever an admin decides on one of your leave requests.\n\n" +
	"Leave requests and messages are submitted through the timetable web application.\n\n" +
	"`/help` - Show this message."

const unknownHelp = "No commands are available for you. If you are a teacher, register with your Telegram ID in the timetable application."

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminTelegramID int64,
	users ChatDirectory,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	identify := func(logCtx *logrus.Entry, senderID int64) (role user.Role, name string, err error) {
		if adminTelegramID != 0 && senderID == adminTelegramID {
			return user.RoleAdmin, "", nil
		}
		u, err := users.GetByTelegramID(ctx, senderID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return "", "", nil
			}
			logCtx.WithError(err).Error("Error resolving sender account")
			return "", "", err
		}
		return u.Role, u.Name, nil
	}

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		role, name, err := identify(logCtx, senderID)
		if err != nil {
			return c.Send("An error occurred while checking your account. Please try again later.")
		}
		switch role {
		case user.RoleAdmin:
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hello, %s! New leave requests will arrive here. Use /help for the command list.", c.Sender().FirstName))
		case user.RoleTeacher:
			logCtx.Info("User identified as Teacher")
			return c.Send(fmt.Sprintf("Hello, %s! I will notify you about decisions on your leave requests.", name))
		default:
			logCtx.Info("User is unknown")
			return c.Send("Hello! I am the timetable adjustment bot. Link your Telegram ID to your account to receive notifications.")
		}
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		role, _, err := identify(logCtx, senderID)
		if err != nil {
			return c.Send("An error occurred while checking your account. Please try again later.")
		}
		switch role {
		case user.RoleAdmin:
			return c.Send(adminHelp, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		case user.RoleTeacher:
			return c.Send(teacherHelp, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		default:
			return c.Send(unknownHelp)
		}
	})
}
