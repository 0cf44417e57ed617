package bot

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/card"
)

// telegramTransport adapts telebot.Bot to the animator's Transport interface.
// All card traffic goes out in HTML mode so <pre> fencing survives.
type telegramTransport struct {
	bot *telebot.Bot
}

var _ card.Transport = (*telegramTransport)(nil)

func newTransport(b *telebot.Bot) *telegramTransport {
	return &telegramTransport{bot: b}
}

func (t *telegramTransport) Send(chatID int64, text string, markup *telebot.ReplyMarkup) (*telebot.Message, error) {
	opts := []interface{}{telebot.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	return t.bot.Send(telebot.ChatID(chatID), text, opts...)
}

func (t *telegramTransport) Edit(msg *telebot.Message, text string, markup *telebot.ReplyMarkup) error {
	opts := []interface{}{telebot.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	_, err := t.bot.Edit(msg, text, opts...)
	return err
}

func (t *telegramTransport) Typing(chatID int64) error {
	return t.bot.Notify(telebot.ChatID(chatID), telebot.Typing)
}

// renderStatic renders a fully revealed card without animation, used by the
// daily broadcast.
func renderStatic(text string) string {
	style := card.RandomStyle()
	width := card.InnerWidth(text)
	body := card.WrapText(text, width)
	padTop, padBottom := card.SquarePadding(width, len(body))
	return card.Fence(card.Build(card.PadBody(body, padTop, padBottom), style, width))
}
