package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/adjustment"
	domainTelegram "teacher_timetable/internal/domain/telegram"
)

var statusByDecision = map[domainTelegram.Decision]adjustment.Status{
	domainTelegram.DecisionApprove: adjustment.StatusApproved,
	domainTelegram.DecisionReject:  adjustment.StatusRejected,
}

// RegisterDecisionCallbacks handles the Approve/Reject inline buttons
// attached to leave request notifications.
func (ab *AdminBot) RegisterDecisionCallbacks(ctx context.Context, b *telebot.Bot) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data
		logCtx := ab.logger.WithField("sender_id", c.Sender().ID).WithField("callback_data", data)

		decision, id, ok := domainTelegram.ParseCallbackData(data)
		if !ok {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}
		if !ab.isAdmin(c.Sender().ID) {
			logCtx.Warn("Unauthorized callback attempt")
			return c.Respond(&telebot.CallbackResponse{Text: "You are not allowed to do this.", ShowAlert: true})
		}

		updated, reply := ab.decide(ctx, id, statusByDecision[decision], adjustment.KeepSubstitute())
		if updated == nil {
			return c.Respond(&telebot.CallbackResponse{Text: reply, ShowAlert: true})
		}
		if err := c.Edit(app.FormatAdjustment(updated)); err != nil {
			logCtx.WithError(err).Warn("Failed to update decision message")
		}
		return c.Respond(&telebot.CallbackResponse{Text: reply})
	})
}
