package pause

import "testing"

func TestIsPaused(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"John Smith - Truck 42", false},
		{"John Smith INACTIVE", true},
		{"john smith inactive", true},
		{"Home Time - John", true},
		{"HOME till Monday", true},
		{"Homestead Route", true}, // substring match is intentional
		{"", false},
		{"Active run", false},
	}

	for _, tc := range cases {
		if got := IsPaused(tc.title); got != tc.want {
			t.Errorf("IsPaused(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestIsPausedPtr(t *testing.T) {
	if IsPausedPtr(nil) {
		t.Error("nil title should not be paused")
	}
	title := "back home for the week"
	if !IsPausedPtr(&title) {
		t.Error("expected paused for title containing 'home'")
	}
}
