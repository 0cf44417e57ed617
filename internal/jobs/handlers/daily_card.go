// Package handlers holds asynq task processors.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	apperrors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/idempotency"
	"github.com/antagonist-oracle/oracle-bot/internal/jobs"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
	"github.com/antagonist-oracle/oracle-bot/pkg/metrics"
)

// Broadcaster delivers a rendered card to a chat without animation.
type Broadcaster interface {
	SendCard(ctx context.Context, chatID int64, text string) error
}

// DailyCardHandler draws one card per day and sends it to every onboarded user.
type DailyCardHandler struct {
	deck        *deck.Deck
	profiles    *profile.Service
	broadcaster Broadcaster
	idem        idempotency.Manager
	log         *slog.Logger
}

func NewDailyCardHandler(d *deck.Deck, profiles *profile.Service, broadcaster Broadcaster, idem idempotency.Manager, log *slog.Logger) *DailyCardHandler {
	return &DailyCardHandler{
		deck:        d,
		profiles:    profiles,
		broadcaster: broadcaster,
		idem:        idem,
		log:         log,
	}
}

func (h *DailyCardHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.DailyCardPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "daily card: failed to decode payload", slog.String("error", err.Error()))
		}
		return err
	}

	// The scheduler bakes the registration date into the payload; broadcast
	// for the day the task actually runs.
	date := time.Now().UTC().Format("2006-01-02")

	key := idempotency.GenerateKey("daily_card", date)
	_, err := h.idem.Execute(ctx, key, 25*time.Hour, func(execCtx context.Context) (interface{}, error) {
		return nil, h.broadcast(execCtx, date)
	})
	return err
}

func (h *DailyCardHandler) broadcast(ctx context.Context, date string) error {
	card := h.deck.Draw()

	profiles, err := h.profiles.ListOnboarded(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for _, p := range profiles {
		chatID := p.TelegramID
		err := apperrors.WithRetry(ctx, func() error {
			if err := h.broadcaster.SendCard(ctx, chatID, card); err != nil {
				return apperrors.NewTelegramError("daily card send", err)
			}
			return nil
		})
		if err != nil {
			if h.log != nil {
				h.log.WarnContext(ctx, "daily card: send failed",
					slog.Int64("telegram_id", chatID),
					slog.Any("error", err),
				)
			}
			continue
		}
		sent++
		metrics.RecordDraw("daily", "ok")
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "daily card broadcast finished",
			slog.String("date", date),
			slog.Int("recipients", len(profiles)),
			slog.Int("sent", sent),
		)
	}

	return nil
}
