package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
)

// NewProfileHandler returns a handler for the /profile command.
func NewProfileHandler(profiles *profile.Service, t i18n.Translator, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		sender := c.Sender()
		if sender == nil {
			return nil
		}

		ctx := context.Background()
		p, err := profiles.GetOrCreate(ctx, sender)
		if err != nil {
			if log != nil {
				log.Error("profile handler failed to fetch profile", slog.Int64("telegram_id", sender.ID), slog.Any("error", err))
			}
			return err
		}

		if !p.Onboarded {
			return c.Send(t.T("profile.missing"))
		}

		lines := []string{
			t.T("profile.header"),
			fmt.Sprintf(t.T("profile.born"), p.BirthDate()),
			fmt.Sprintf(t.T("profile.location"), p.Location),
		}

		return c.Send(strings.Join(lines, "\n"))
	}
}
