package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	"github.com/antagonist-oracle/oracle-bot/internal/jobs"
	"github.com/antagonist-oracle/oracle-bot/pkg/metrics"
)

// DeckReloadHandler re-reads the strategies file on demand, for deployments
// where the file lives on a volume without inotify support.
type DeckReloadHandler struct {
	deck *deck.Deck
	log  *slog.Logger
}

func NewDeckReloadHandler(d *deck.Deck, log *slog.Logger) *DeckReloadHandler {
	return &DeckReloadHandler{deck: d, log: log}
}

func (h *DeckReloadHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.DeckReloadPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	if err := h.deck.Reload(); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "deck reload failed", slog.String("reason", payload.Reason), slog.Any("error", err))
		}
		return err
	}

	metrics.SetDeckSize(h.deck.Size())
	if h.log != nil {
		h.log.InfoContext(ctx, "deck reloaded", slog.String("reason", payload.Reason), slog.Int("cards", h.deck.Size()))
	}

	return nil
}
