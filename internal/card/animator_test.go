package card

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"
)

type fakeTransport struct {
	sent   []string
	edits  []string
	typing int
	markup *telebot.ReplyMarkup
}

func (f *fakeTransport) Send(chatID int64, text string, markup *telebot.ReplyMarkup) (*telebot.Message, error) {
	f.sent = append(f.sent, text)
	f.markup = markup
	return &telebot.Message{ID: len(f.sent), Chat: &telebot.Chat{ID: chatID}}, nil
}

func (f *fakeTransport) Edit(msg *telebot.Message, text string, markup *telebot.ReplyMarkup) error {
	f.edits = append(f.edits, text)
	f.markup = markup
	return nil
}

func (f *fakeTransport) Typing(chatID int64) error {
	f.typing++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPacing() Pacing {
	return Pacing{
		LineRevealMin:   time.Nanosecond,
		LineRevealMax:   time.Nanosecond,
		GlitchMin:       time.Nanosecond,
		GlitchMax:       time.Nanosecond,
		DripStep:        time.Nanosecond,
		SettlePause:     time.Nanosecond,
		FlickerPause:    time.Nanosecond,
		RareEventChance: 0.0000001,
	}
}

func TestReveal_FinalFrameContainsCardText(t *testing.T) {
	transport := &fakeTransport{}
	animator := NewAnimator(transport, fastPacing(), testLogger())
	markup := &telebot.ReplyMarkup{}

	kind, err := animator.Reveal(context.Background(), 42, "trust in the old rotation", markup)
	require.NoError(t, err)
	assert.Contains(t, []string{RevealLines, RevealDrip, RevealVoid}, kind)

	require.Len(t, transport.sent, 1)
	require.NotEmpty(t, transport.edits)

	final := transport.edits[len(transport.edits)-1]
	for _, word := range []string{"trust", "old", "rotation"} {
		assert.Contains(t, final, word)
	}
	assert.Same(t, markup, transport.markup, "markup must survive every edit")
	assert.Greater(t, transport.typing, 0)
}

func TestReveal_NeverRepeatsIdenticalEdit(t *testing.T) {
	transport := &fakeTransport{}
	animator := NewAnimator(transport, fastPacing(), testLogger())

	_, err := animator.Reveal(context.Background(), 7, "abandon normal instruments", nil)
	require.NoError(t, err)

	for i := 1; i < len(transport.edits); i++ {
		assert.NotEqual(t, transport.edits[i-1], transport.edits[i], "edit %d repeats the previous frame", i)
	}
}

func TestReveal_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := &fakeTransport{}
	animator := NewAnimator(transport, fastPacing(), testLogger())

	_, err := animator.Reveal(ctx, 7, "stopped short", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReveal_BlankFrameHasNoCardText(t *testing.T) {
	transport := &fakeTransport{}
	animator := NewAnimator(transport, fastPacing(), testLogger())

	_, err := animator.Reveal(context.Background(), 7, "hidden until revealed", nil)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	assert.False(t, strings.Contains(transport.sent[0], "hidden"))
}
