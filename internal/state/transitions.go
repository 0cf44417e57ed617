package state

// validTransitions contains the permitted non-emergency transitions in the FSM.
// The onboarding conversation only ever moves forward; cancel and recovery go
// through the always-allowed idle and error states.
var validTransitions = map[State][]State{
	StateIdle: {
		StateOnboardingYear,
	},
	StateOnboardingYear: {
		StateOnboardingMonth,
	},
	StateOnboardingMonth: {
		StateOnboardingDay,
	},
	StateOnboardingDay: {
		StateOnboardingLocation,
	},
	StateOnboardingLocation: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateError || to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
