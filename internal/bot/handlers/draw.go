package handlers

import (
	"context"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/card"
	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/pkg/metrics"
)

// DrawFlow deals cards for both the /draw command and the draw-again button.
// Both paths run the identical deal-and-reveal sequence. Onboarding is not a
// precondition: anyone can draw from a non-empty deck.
type DrawFlow struct {
	deck     *deck.Deck
	animator *card.Animator
	markup   *telebot.ReplyMarkup
	t        i18n.Translator
	log      *slog.Logger
}

// NewDrawFlow wires the draw pipeline.
func NewDrawFlow(d *deck.Deck, animator *card.Animator, markup *telebot.ReplyMarkup, t i18n.Translator, log *slog.Logger) *DrawFlow {
	if log == nil {
		log = slog.Default()
	}

	return &DrawFlow{
		deck:     d,
		animator: animator,
		markup:   markup,
		t:        t,
		log:      log,
	}
}

// Command handles /draw.
func (f *DrawFlow) Command(c telebot.Context) error {
	return f.deal(c, "command")
}

// Callback handles the draw-again button. The tap is acknowledged
// immediately so the client stops its spinner while the reveal runs.
func (f *DrawFlow) Callback(c telebot.Context) error {
	if c != nil && c.Callback() != nil {
		if err := c.Respond(&telebot.CallbackResponse{Text: f.t.T("draw.shuffling")}); err != nil {
			f.log.Warn("failed to acknowledge callback", slog.Any("error", err))
		}
	}

	return f.deal(c, "redraw")
}

func (f *DrawFlow) deal(c telebot.Context, source string) error {
	if c == nil || c.Sender() == nil || c.Chat() == nil {
		return nil
	}

	chatID := c.Chat().ID

	if f.deck.Size() == 0 {
		metrics.RecordDraw(source, "error")
		return c.Send(f.t.T("draw.deck_empty"))
	}

	text := f.deck.Draw()

	// telebot delivers updates sequentially; the reveal takes seconds and
	// must not stall other users' updates.
	go func() {
		start := time.Now()
		kind, err := f.animator.Reveal(context.Background(), chatID, text, f.markup)
		if err != nil {
			f.log.Error("card reveal failed",
				slog.Int64("chat_id", chatID),
				slog.String("source", source),
				slog.Any("error", err),
			)
			metrics.RecordDraw(source, "error")
			return
		}

		metrics.RecordDraw(source, "ok")
		metrics.RecordReveal(kind, time.Since(start))
	}()

	return nil
}
