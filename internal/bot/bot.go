// Package bot assembles the Telegram surface: connection, routing,
// middleware chain, and handler registration.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/bot/handlers"
	"github.com/antagonist-oracle/oracle-bot/internal/bot/keyboard"
	"github.com/antagonist-oracle/oracle-bot/internal/card"
	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	errors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/idempotency"
	"github.com/antagonist-oracle/oracle-bot/internal/middleware"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
	"github.com/antagonist-oracle/oracle-bot/internal/state"
	"github.com/antagonist-oracle/oracle-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	transport          *telegramTransport
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
	animator           *card.Animator
	drawFlow           *handlers.DrawFlow
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	fsm state.StateMachine,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
	profiles *profile.Service,
	d *deck.Deck,
	translator i18n.Translator,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	transport := newTransport(tb)
	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)
	animator := card.NewAnimator(transport, cfg.Reveal, log)

	b := &Bot{
		telebot:            tb,
		transport:          transport,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		keyboard:           kb,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
		animator:           animator,
	}

	b.setupRouter(profiles, d, translator)

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// SendCard delivers a fully revealed card without animation. The jobs worker
// uses it for the daily broadcast.
func (b *Bot) SendCard(ctx context.Context, chatID int64, text string) error {
	_, err := b.transport.Send(chatID, renderStatic(text), nil)
	return err
}

func (b *Bot) setupRouter(profiles *profile.Service, d *deck.Deck, translator i18n.Translator) {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(AuthMiddleware(profiles, b.log))
	b.router.Use(LastActiveMiddleware(profiles))
	b.router.Use(middleware.Metrics)

	markup := b.keyboard.DrawAgain(translator)
	b.drawFlow = handlers.NewDrawFlow(d, b.animator, markup, translator, b.log)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(profiles, d, b.fsm, translator, b.log))
	b.router.RegisterCommand(CommandDraw, b.drawFlow.Command)
	b.router.RegisterCommand(CommandProfile, handlers.NewProfileHandler(profiles, translator, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.fsm, translator, b.log))
	b.router.RegisterCommand(CommandHelp, func(c telebot.Context) error {
		return c.Send(translator.T("help.text"))
	})

	b.router.RegisterCallback(CallbackDrawAgain, b.drawFlow.Callback)

	onboarding := handlers.NewOnboarding(b.fsm, profiles, translator, b.log)
	b.dispatcher.RegisterStateHandler(state.StateOnboardingYear, onboarding.Year)
	b.dispatcher.RegisterStateHandler(state.StateOnboardingMonth, onboarding.Month)
	b.dispatcher.RegisterStateHandler(state.StateOnboardingDay, onboarding.Day)
	b.dispatcher.RegisterStateHandler(state.StateOnboardingLocation, onboarding.Location)

	b.router.SetDefault(func(c telebot.Context) error {
		return c.Send(translator.T("help.text"))
	})
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
