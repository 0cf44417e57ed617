package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to year", from: StateIdle, to: StateOnboardingYear, expected: true},
		{name: "year to month", from: StateOnboardingYear, to: StateOnboardingMonth, expected: true},
		{name: "month to day", from: StateOnboardingMonth, to: StateOnboardingDay, expected: true},
		{name: "day to location", from: StateOnboardingDay, to: StateOnboardingLocation, expected: true},
		{name: "location back to idle", from: StateOnboardingLocation, to: StateIdle, expected: true},
		{name: "idle straight to location invalid", from: StateIdle, to: StateOnboardingLocation, expected: false},
		{name: "year skipping month invalid", from: StateOnboardingYear, to: StateOnboardingDay, expected: false},
		{name: "month backwards invalid", from: StateOnboardingMonth, to: StateOnboardingYear, expected: false},
		{name: "unknown state forward invalid", from: State("unknown"), to: StateOnboardingMonth, expected: false},
		{name: "any state to idle emergency", from: State("whatever"), to: StateIdle, expected: true},
		{name: "any state to error emergency", from: StateOnboardingDay, to: StateError, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
