package handlers

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
	"github.com/antagonist-oracle/oracle-bot/internal/state"
)

// Context keys for answers collected during onboarding. They live in the FSM
// context until the final step persists them to the profile.
const (
	ctxBirthYear  = "birth_year"
	ctxBirthMonth = "birth_month"
	ctxBirthDay   = "birth_day"
)

// Onboarding holds the four question handlers of the attunement flow. Each
// handler validates the answer for its state; an invalid answer re-asks the
// same question without advancing.
type Onboarding struct {
	fsm      state.StateMachine
	profiles *profile.Service
	t        i18n.Translator
	log      *slog.Logger
}

// NewOnboarding wires the onboarding conversation handlers.
func NewOnboarding(fsm state.StateMachine, profiles *profile.Service, t i18n.Translator, log *slog.Logger) *Onboarding {
	if log == nil {
		log = slog.Default()
	}

	return &Onboarding{
		fsm:      fsm,
		profiles: profiles,
		t:        t,
		log:      log,
	}
}

// Year handles the birth-year answer.
func (o *Onboarding) Year(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	year, err := profile.ParseYear(c.Text())
	if errors.Is(err, profile.ErrInvalidYear) {
		return c.Send(o.t.T("onboarding.invalid_year"))
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	userID := c.Sender().ID

	data, err := o.contextData(ctx, userID)
	if err != nil {
		return err
	}
	data[ctxBirthYear] = year

	if err := o.transition(ctx, userID, state.StateOnboardingMonth, data, "year"); err != nil {
		return err
	}

	return c.Send(o.t.T("onboarding.ask_month"))
}

// Month handles the birth-month answer.
func (o *Onboarding) Month(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	month, err := profile.ParseMonth(c.Text())
	if errors.Is(err, profile.ErrInvalidMonth) {
		return c.Send(o.t.T("onboarding.invalid_month"))
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	userID := c.Sender().ID

	data, err := o.contextData(ctx, userID)
	if err != nil {
		return err
	}
	data[ctxBirthMonth] = month

	if err := o.transition(ctx, userID, state.StateOnboardingDay, data, "month"); err != nil {
		return err
	}

	return c.Send(o.t.T("onboarding.ask_day"))
}

// Day handles the birth-day answer.
func (o *Onboarding) Day(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	day, err := profile.ParseDay(c.Text())
	if errors.Is(err, profile.ErrInvalidDay) {
		return c.Send(o.t.T("onboarding.invalid_day"))
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	userID := c.Sender().ID

	data, err := o.contextData(ctx, userID)
	if err != nil {
		return err
	}
	data[ctxBirthDay] = day

	if err := o.transition(ctx, userID, state.StateOnboardingLocation, data, "day"); err != nil {
		return err
	}

	return c.Send(o.t.T("onboarding.ask_location"))
}

// Location handles the final answer, persists the profile, and closes the flow.
func (o *Onboarding) Location(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	location, err := profile.ParseLocation(c.Text())
	if errors.Is(err, profile.ErrInvalidLocation) {
		return c.Send(o.t.T("onboarding.invalid_location"))
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	userID := c.Sender().ID

	data, err := o.contextData(ctx, userID)
	if err != nil {
		return err
	}

	year := intFromContext(data, ctxBirthYear)
	month := intFromContext(data, ctxBirthMonth)
	day := intFromContext(data, ctxBirthDay)
	if year == 0 || month == 0 || day == 0 {
		// Context lost mid-flow (expired state, restarted redis). Restart cleanly.
		o.log.Warn("onboarding context incomplete, restarting flow", slog.Int64("user_id", userID))
		if err := o.fsm.ClearState(ctx, userID); err != nil {
			return err
		}
		return c.Send(o.t.T("draw.not_onboarded"))
	}

	if err := c.Send(o.t.T("onboarding.absorbing")); err != nil {
		return err
	}

	if err := o.profiles.CompleteOnboarding(ctx, userID, year, month, day, location); err != nil {
		return err
	}

	if err := o.transition(ctx, userID, state.StateIdle, map[string]interface{}{}, "completion"); err != nil {
		return err
	}

	return c.Send(o.t.T("onboarding.complete"))
}

// transition advances the FSM and converts a refused or failed transition
// into a state error the error middleware can present.
func (o *Onboarding) transition(ctx context.Context, userID int64, target state.State, data map[string]interface{}, step string) error {
	if err := o.fsm.TransitionTo(ctx, userID, target, data); err != nil {
		o.log.Error("onboarding transition failed",
			slog.String("step", step),
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return apperrors.NewStateError("onboarding " + step + " transition failed")
	}
	return nil
}

func (o *Onboarding) contextData(ctx context.Context, userID int64) (map[string]interface{}, error) {
	userState, err := o.fsm.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}

	if userState == nil || userState.Context == nil {
		return map[string]interface{}{}, nil
	}
	return userState.Context, nil
}

// intFromContext tolerates the float64 that JSON round-tripping turns stored
// ints into.
func intFromContext(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
