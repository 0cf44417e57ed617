// Package keyboard builds the bot's inline keyboards.
package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
)

// DrawAgainUnique is the callback identifier carried by the draw-again button.
const DrawAgainUnique = "draw_again"

// Builder creates inline keyboards attached to dealt cards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{log: log}
}

// DrawAgain builds the single-button keyboard shown under every revealed card.
func (b *Builder) DrawAgain(t i18n.Translator) *telebot.ReplyMarkup {
	label := "✦  d r a w   a g a i n  ✦"
	if t != nil {
		label = t.T("draw.again_button")
	}

	return NewInlineKeyboard().
		AddRow(InlineButton{Text: label, Unique: DrawAgainUnique}).
		Build(b.encode)
}

// encode renders callback payloads, falling back to the bare unique when the
// payload would not fit Telegram's 64-byte limit.
func (b *Builder) encode(unique, data string) string {
	payload, err := EncodeCallback(unique, data)
	if err != nil {
		b.log.Error("callback payload rejected",
			slog.String("unique", unique),
			slog.Any("error", err),
		)
		return unique
	}
	return payload
}
