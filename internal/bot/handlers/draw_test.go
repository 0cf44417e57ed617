package handlers

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/card"
	"github.com/antagonist-oracle/oracle-bot/internal/deck"
)

type recordingTransport struct {
	mu    sync.Mutex
	sent  []string
	edits []string
}

func (r *recordingTransport) Send(chatID int64, text string, markup *telebot.ReplyMarkup) (*telebot.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return &telebot.Message{ID: len(r.sent), Chat: &telebot.Chat{ID: chatID}}, nil
}

func (r *recordingTransport) Edit(msg *telebot.Message, text string, markup *telebot.ReplyMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, text)
	return nil
}

func (r *recordingTransport) Typing(chatID int64) error { return nil }

func (r *recordingTransport) lastEdit() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.edits) == 0 {
		return ""
	}
	return r.edits[len(r.edits)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type keyTranslator struct{}

func (keyTranslator) T(key string) string { return key }
func (keyTranslator) Lang() string        { return "en" }

// drawContext implements just the telebot.Context surface the draw flow
// touches; everything else panics through the embedded nil interface.
type drawContext struct {
	telebot.Context
	sender    *telebot.User
	chat      *telebot.Chat
	callback  *telebot.Callback
	replies   []string
	responded bool
}

func (c *drawContext) Sender() *telebot.User       { return c.sender }
func (c *drawContext) Chat() *telebot.Chat         { return c.chat }
func (c *drawContext) Callback() *telebot.Callback { return c.callback }

func (c *drawContext) Send(what interface{}, opts ...interface{}) error {
	if s, ok := what.(string); ok {
		c.replies = append(c.replies, s)
	}
	return nil
}

func (c *drawContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responded = true
	return nil
}

func newDrawFlow(t *testing.T, cardText string) (*DrawFlow, *recordingTransport) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "strategies.txt")
	require.NoError(t, os.WriteFile(path, []byte(cardText+"\n"), 0o600))
	d, err := deck.Load(path, 0)
	require.NoError(t, err)

	transport := &recordingTransport{}
	pacing := card.Pacing{
		LineRevealMin:   time.Nanosecond,
		LineRevealMax:   time.Nanosecond,
		GlitchMin:       time.Nanosecond,
		GlitchMax:       time.Nanosecond,
		DripStep:        time.Nanosecond,
		SettlePause:     time.Nanosecond,
		FlickerPause:    time.Nanosecond,
		RareEventChance: 0.0000001,
	}
	animator := card.NewAnimator(transport, pacing, testLogger())

	return NewDrawFlow(d, animator, &telebot.ReplyMarkup{}, keyTranslator{}, testLogger()), transport
}

func waitForReveal(t *testing.T, transport *recordingTransport, word string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if final := transport.lastEdit(); strings.Contains(final, word) {
			return final
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("reveal never produced a frame containing %q; last edit: %q", word, transport.lastEdit())
	return ""
}

// A user with no stored profile gets a card: onboarding is optional and
// never gates the draw.
func TestDrawCommand_DealsWithoutProfile(t *testing.T) {
	flow, transport := newDrawFlow(t, "subtract until it breaks")

	ctx := &drawContext{
		sender: &telebot.User{ID: 1001},
		chat:   &telebot.Chat{ID: 1001},
	}

	require.NoError(t, flow.Command(ctx))

	waitForReveal(t, transport, "subtract")
	assert.Empty(t, ctx.replies, "the draw must deal a card, not a refusal")
}

func TestDrawCallback_SharesDealPath(t *testing.T) {
	flow, transport := newDrawFlow(t, "invert the hierarchy")

	ctx := &drawContext{
		sender:   &telebot.User{ID: 7},
		chat:     &telebot.Chat{ID: 7},
		callback: &telebot.Callback{ID: "cb-1"},
	}

	require.NoError(t, flow.Callback(ctx))

	assert.True(t, ctx.responded, "callback must be acknowledged")
	waitForReveal(t, transport, "invert")
}
