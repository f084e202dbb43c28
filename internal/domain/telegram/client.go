package telegram

import (
	"strings"

	"gopkg.in/telebot.v3"
)

// Client sends chat messages on behalf of the application.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// Decision is the action an inline button carries back to the bot.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

const callbackPrefix = "adj_"

// CallbackData encodes an adjustment decision as inline button payload,
// e.g. "adj_approve_<id>".
func CallbackData(d Decision, adjustmentID string) string {
	return callbackPrefix + string(d) + "_" + adjustmentID
}

// ParseCallbackData is the inverse of CallbackData. Telebot may prefix the
// payload with "\f"; that is stripped first.
func ParseCallbackData(data string) (Decision, string, bool) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	rest, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return "", "", false
	}
	action, id, ok := strings.Cut(rest, "_")
	if !ok || id == "" {
		return "", "", false
	}
	switch d := Decision(action); d {
	case DecisionApprove, DecisionReject:
		return d, id, true
	}
	return "", "", false
}
