package state

import "time"

// State represents a finite-state machine state.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateOnboardingYear indicates that the bot is waiting for the user's year of birth.
	StateOnboardingYear State = "onboarding_year"
	// StateOnboardingMonth indicates that the bot is waiting for the user's month of birth.
	StateOnboardingMonth State = "onboarding_month"
	// StateOnboardingDay indicates that the bot is waiting for the user's day of birth.
	StateOnboardingDay State = "onboarding_day"
	// StateOnboardingLocation indicates that the bot is waiting for the user's location.
	StateOnboardingLocation State = "onboarding_location"
	// StateError indicates that the bot is in an error state and requires recovery.
	StateError State = "error"
)

// UserState captures the current FSM state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
