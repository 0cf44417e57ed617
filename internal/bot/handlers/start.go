package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
	"github.com/antagonist-oracle/oracle-bot/internal/state"
)

// NewStartHandler begins onboarding for new users. Users who already
// completed onboarding get a pointer to /draw instead of a restart.
func NewStartHandler(profiles *profile.Service, d *deck.Deck, fsm state.StateMachine, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		if d == nil || d.Size() == 0 {
			return c.Send(t.T("draw.deck_empty"))
		}

		onboarded, err := profiles.IsOnboarded(ctx, userID)
		if err != nil {
			log.Error("start handler failed to check onboarding", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		if onboarded {
			return c.Send(t.T("draw.already_onboarded"))
		}

		if err := fsm.SetState(ctx, userID, state.StateOnboardingYear, map[string]interface{}{}); err != nil {
			log.Error("failed to start onboarding", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return c.Send(t.T("onboarding.ask_year"))
	}
}
