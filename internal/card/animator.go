package card

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// Reveal animation kinds, reported to metrics.
const (
	RevealLines = "lines"
	RevealDrip  = "drip"
	RevealVoid  = "void"
)

// Transport abstracts the Telegram operations the animator needs, so tests
// can run reveals against a fake.
type Transport interface {
	Send(chatID int64, text string, markup *telebot.ReplyMarkup) (*telebot.Message, error)
	Edit(msg *telebot.Message, text string, markup *telebot.ReplyMarkup) error
	Typing(chatID int64) error
}

// Animator deals a card into a chat and reveals it through message edits.
type Animator struct {
	transport Transport
	pacing    Pacing
	log       *slog.Logger

	// lastText deduplicates edits per message; Telegram rejects edits
	// that do not change the text.
	mu       sync.Mutex
	lastText map[editKey]string
}

type editKey struct {
	chatID    int64
	messageID int
}

// NewAnimator constructs an Animator over the given transport.
func NewAnimator(transport Transport, pacing Pacing, log *slog.Logger) *Animator {
	if log == nil {
		log = slog.Default()
	}

	return &Animator{
		transport: transport,
		pacing:    pacing.withDefaults(),
		log:       log,
		lastText:  make(map[editKey]string),
	}
}

// Reveal sends a blank framed card to the chat and animates the text into it.
// It blocks for the duration of the animation and returns the animation kind
// that was played. The markup is re-attached on every edit so the draw-again
// button stays visible throughout.
func (a *Animator) Reveal(ctx context.Context, chatID int64, text string, markup *telebot.ReplyMarkup) (string, error) {
	style := RandomStyle()
	width := InnerWidth(text)
	body := WrapText(text, width)
	padTop, padBottom := SquarePadding(width, len(body))
	working := PadBody(body, padTop, padBottom)

	_ = a.transport.Typing(chatID)

	blank := Fence(Build(make([]string, len(working)), style, width))
	msg, err := a.transport.Send(chatID, blank, markup)
	if err != nil {
		return "", err
	}

	key := editKey{chatID: chatID, messageID: msg.ID}
	a.remember(key, blank)
	defer a.forget(key)

	kind := RevealLines
	switch {
	case rand.Float64() < a.pacing.RareEventChance:
		kind = RevealVoid
	case rand.IntN(4) == 0:
		kind = RevealDrip
	}

	frame := frameContext{
		msg:    msg,
		key:    key,
		style:  style,
		width:  width,
		markup: markup,
		chatID: chatID,
	}

	switch kind {
	case RevealVoid:
		err = a.revealVoid(ctx, frame, working)
	case RevealDrip:
		err = a.revealDrip(ctx, frame, working)
	default:
		err = a.revealLines(ctx, frame, working)
	}

	return kind, err
}

type frameContext struct {
	msg    *telebot.Message
	key    editKey
	style  Style
	width  int
	markup *telebot.ReplyMarkup
	chatID int64
}

func (a *Animator) revealLines(ctx context.Context, f frameContext, working []string) error {
	masked := make([]string, len(working))

	for i := range working {
		_ = a.transport.Typing(f.chatID)
		if err := a.sleep(ctx, a.randBetween(a.pacing.LineRevealMin, a.pacing.LineRevealMax)); err != nil {
			return err
		}

		if working[i] != "" {
			masked[i] = working[i]

			if rand.Float64() < 0.3 {
				flash := append([]string(nil), masked...)
				flash[i] = Glitch(working[i], 0.25+rand.Float64()*0.3)
				if err := a.edit(f, flash); err != nil {
					return err
				}
				if err := a.sleep(ctx, a.randBetween(a.pacing.GlitchMin, a.pacing.GlitchMax)); err != nil {
					return err
				}
			}
		}

		if err := a.edit(f, masked); err != nil {
			return err
		}
	}

	if rand.Float64() < 0.4 {
		return a.flicker(ctx, f, masked)
	}
	return nil
}

func (a *Animator) revealDrip(ctx context.Context, f frameContext, working []string) error {
	padded := make([]string, len(working))
	for i, line := range working {
		padded[i] = padCenter(line, f.width)
	}

	revealed := make([][]bool, len(padded))
	for i := range revealed {
		revealed[i] = make([]bool, f.width)
	}

	for col := 0; col < f.width; col++ {
		_ = a.transport.Typing(f.chatID)
		if err := a.sleep(ctx, a.pacing.DripStep); err != nil {
			return err
		}

		for row, line := range padded {
			runes := []rune(line)
			if col < len(runes) && runes[col] != ' ' && rand.Float64() > 0.12 {
				revealed[row][col] = true
			}
		}

		show := ApplyMask(padded, revealed)
		if rand.Float64() < 0.15 {
			if err := a.edit(f, GlitchAll(show, 0.12)); err != nil {
				return err
			}
			if err := a.sleep(ctx, a.randBetween(a.pacing.GlitchMin, a.pacing.GlitchMax)); err != nil {
				return err
			}
		}

		if err := a.edit(f, show); err != nil {
			return err
		}
	}

	if err := a.sleep(ctx, a.pacing.SettlePause); err != nil {
		return err
	}

	final := make([]string, len(padded))
	for i, line := range padded {
		final[i] = strings.TrimSpace(line)
	}
	return a.edit(f, final)
}

func (a *Animator) revealVoid(ctx context.Context, f frameContext, working []string) error {
	targets := make([]string, len(working))
	corrupted := make([]string, len(working))
	for i, line := range working {
		targets[i] = padCenter(line, f.width)
		corrupted[i] = Corrupt(targets[i])
	}

	if err := a.edit(f, corrupted); err != nil {
		return err
	}

	passes := 3 + rand.IntN(3)
	for p := 0; p < passes; p++ {
		_ = a.transport.Typing(f.chatID)
		if err := a.sleep(ctx, time.Duration(150+rand.IntN(180))*time.Millisecond); err != nil {
			return err
		}

		for i := range corrupted {
			cur := []rune(corrupted[i])
			tgt := []rune(targets[i])
			for j := range cur {
				if j < len(tgt) && cur[j] != tgt[j] && rand.Float64() < 0.35 {
					cur[j] = tgt[j]
				}
			}
			corrupted[i] = string(cur)
		}

		if err := a.edit(f, corrupted); err != nil {
			return err
		}
	}

	if err := a.sleep(ctx, a.pacing.SettlePause); err != nil {
		return err
	}
	if err := a.edit(f, targets); err != nil {
		return err
	}

	if rand.Float64() < 0.5 {
		return a.flicker(ctx, f, targets)
	}
	return nil
}

// flicker briefly swaps in the flipped ornament and back.
func (a *Animator) flicker(ctx context.Context, f frameContext, lines []string) error {
	if err := a.sleep(ctx, a.pacing.FlickerPause); err != nil {
		return err
	}

	alt := f
	alt.style = f.style.Flipped()
	if err := a.edit(alt, lines); err != nil {
		return err
	}

	if err := a.sleep(ctx, a.pacing.FlickerPause); err != nil {
		return err
	}
	return a.edit(f, lines)
}

func (a *Animator) edit(f frameContext, lines []string) error {
	text := Fence(Build(lines, f.style, f.width))

	a.mu.Lock()
	if a.lastText[f.key] == text {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	err := a.transport.Edit(f.msg, text, f.markup)
	if err != nil {
		if errors.Is(err, telebot.ErrSameMessageContent) || strings.Contains(err.Error(), "message is not modified") {
			a.remember(f.key, text)
			return nil
		}
		return err
	}

	a.remember(f.key, text)
	return nil
}

func (a *Animator) remember(key editKey, text string) {
	a.mu.Lock()
	a.lastText[key] = text
	a.mu.Unlock()
}

func (a *Animator) forget(key editKey) {
	a.mu.Lock()
	delete(a.lastText, key)
	a.mu.Unlock()
}

func (a *Animator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (a *Animator) randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}
