package checkin

import "testing"

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusPass, StatusFail, StatusNeedsFix, StatusExcused}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusSubmitted} {
		if s.Terminal() {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusSubmitted, true},
		{StatusPending, StatusExcused, true},
		{StatusPending, StatusPass, false},
		{StatusPending, StatusFail, false},
		{StatusSubmitted, StatusPass, true},
		{StatusSubmitted, StatusFail, true},
		{StatusSubmitted, StatusNeedsFix, true},
		{StatusSubmitted, StatusExcused, true},
		{StatusSubmitted, StatusPending, false},
		// terminal statuses can be re-reviewed or reopened
		{StatusPass, StatusFail, true},
		{StatusPass, StatusSubmitted, true},
		{StatusFail, StatusPass, true},
		{StatusNeedsFix, StatusExcused, true},
		{StatusExcused, StatusSubmitted, true},
		// no self transitions
		{StatusPass, StatusPass, false},
		{StatusSubmitted, StatusSubmitted, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	if err := ValidateTransition(StatusSubmitted, StatusPass); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTransition(StatusPending, StatusPass); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusNeedsFix.Valid() {
		t.Error("needs_fix should be valid")
	}
	if Status("bogus").Valid() {
		t.Error("unknown status should be invalid")
	}
}
