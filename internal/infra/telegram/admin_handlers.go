package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/adjustment"
	"teacher_timetable/internal/domain/user"
)

// AdjustmentDesk is the part of the adjustment service the bot drives.
type AdjustmentDesk interface {
	ListPending(ctx context.Context, actor access.Actor) ([]*adjustment.Request, error)
	UpdateAdjustment(ctx context.Context, actor access.Actor, in app.UpdateAdjustmentInput) (*adjustment.Request, error)
}

// AccountDirectory resolves accounts for bot senders.
type AccountDirectory interface {
	Lookup(ctx context.Context, email string) (*user.User, error)
}

// AdminBot lets the configured admin chat act on adjustments. Actions are
// performed as the account registered under adminEmail.
type AdminBot struct {
	adjustments     AdjustmentDesk
	accounts        AccountDirectory
	adminTelegramID int64
	adminEmail      string
	logger          *logrus.Entry
}

func NewAdminBot(adjustments AdjustmentDesk, accounts AccountDirectory, adminTelegramID int64, adminEmail string, logger *logrus.Entry) *AdminBot {
	return &AdminBot{
		adjustments:     adjustments,
		accounts:        accounts,
		adminTelegramID: adminTelegramID,
		adminEmail:      adminEmail,
		logger:          logger,
	}
}

func (ab *AdminBot) isAdmin(senderID int64) bool {
	return ab.adminTelegramID != 0 && senderID == ab.adminTelegramID
}

// adminActor returns the identity bot actions run under. The account must
// exist and hold the admin role; otherwise the service rejects the call.
func (ab *AdminBot) adminActor(ctx context.Context) access.Actor {
	actor := access.Actor{Email: ab.adminEmail, Name: "Telegram admin"}
	u, err := ab.accounts.Lookup(ctx, ab.adminEmail)
	if err != nil {
		ab.logger.WithError(err).WithField("admin_email", ab.adminEmail).Warn("Admin account lookup failed")
		return actor
	}
	actor.Name = u.Name
	actor.Role = u.Role
	return actor
}

// decide applies status to an adjustment and returns the reply text.
func (ab *AdminBot) decide(ctx context.Context, id string, status adjustment.Status, sub adjustment.SubstituteUpdate) (*adjustment.Request, string) {
	logCtx := ab.logger.WithFields(logrus.Fields{"adjustment_id": id, "status": status})
	updated, err := ab.adjustments.UpdateAdjustment(ctx, ab.adminActor(ctx), app.UpdateAdjustmentInput{
		ID:         id,
		Status:     string(status),
		Substitute: sub,
	})
	if err != nil {
		logCtx.WithError(err).Warn("Adjustment decision failed")
		return nil, replyForError(err)
	}
	logCtx.Info("Adjustment decided from Telegram")
	return updated, fmt.Sprintf("Adjustment %s is now %s.", updated.ID, updated.Status)
}

func replyForError(err error) string {
	switch app.KindOf(err) {
	case app.KindNotFound:
		return "Error: adjustment not found."
	case app.KindForbidden, app.KindUnauthenticated:
		return "Error: the configured admin account may not perform this action."
	case app.KindInvalidArgument, app.KindValidation:
		return "Error: " + app.ReasonOf(err)
	default:
		return "An internal error occurred. Please try again later."
	}
}

// parseDecisionArgs reads "<id> [substitute]" from command arguments.
func parseDecisionArgs(args []string, allowSubstitute bool) (string, adjustment.SubstituteUpdate, bool) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", adjustment.KeepSubstitute(), false
	}
	if len(args) == 1 {
		return args[0], adjustment.KeepSubstitute(), true
	}
	if !allowSubstitute || len(args) > 2 {
		return "", adjustment.KeepSubstitute(), false
	}
	return args[0], adjustment.AssignSubstitute(args[1]), true
}

// RegisterAdminHandlers registers /pending, /approve, /reject and /resolve.
func (ab *AdminBot) RegisterAdminHandlers(ctx context.Context, b *telebot.Bot) {
	b.Handle("/pending", func(c telebot.Context) error {
		handlerLogger := ab.logger.WithFields(logrus.Fields{
			"handler":   "/pending",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !ab.isAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to use this command.")
		}

		pending, err := ab.adjustments.ListPending(ctx, ab.adminActor(ctx))
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list pending adjustments")
			return c.Send(replyForError(err))
		}
		if len(pending) == 0 {
			return c.Send("No leave requests are waiting for action.")
		}
		handlerLogger.WithField("pending_count", len(pending)).Info("Sending pending adjustments")
		for _, req := range pending {
			if err := c.Send(app.FormatAdjustment(req), &telebot.SendOptions{ReplyMarkup: app.DecisionMarkup(req.ID)}); err != nil {
				return err
			}
		}
		return nil
	})

	decisionCommands := []struct {
		command         string
		status          adjustment.Status
		allowSubstitute bool
		usage           string
	}{
		{"/approve", adjustment.StatusApproved, true, "/approve <adjustmentId> [substituteEmail]"},
		{"/reject", adjustment.StatusRejected, false, "/reject <adjustmentId>"},
		{"/resolve", adjustment.StatusResolved, false, "/resolve <adjustmentId>"},
	}
	for _, dc := range decisionCommands {
		b.Handle(dc.command, func(c telebot.Context) error {
			handlerLogger := ab.logger.WithFields(logrus.Fields{
				"handler":   dc.command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")

			if !ab.isAdmin(c.Sender().ID) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send("Error: you are not allowed to use this command.")
			}

			id, sub, ok := parseDecisionArgs(c.Args(), dc.allowSubstitute)
			if !ok {
				handlerLogger.WithField("args_count", len(c.Args())).Warn("Invalid command format")
				return c.Send("Invalid command format. Use: " + dc.usage)
			}
			_, reply := ab.decide(ctx, id, dc.status, sub)
			return c.Send(reply)
		})
	}
}
