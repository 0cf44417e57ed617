package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/state"
)

// NewCancelHandler clears any conversation in progress.
func NewCancelHandler(fsm state.StateMachine, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		if fsm == nil {
			log.Error("state machine is not configured for cancel handler")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		if err := fsm.ClearState(ctx, userID); err != nil {
			log.Error("failed to clear user state", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return c.Send(t.T("cancel.done"))
	}
}
