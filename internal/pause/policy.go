// Package pause decides whether a chat is temporarily out of rotation.
//
// Dispatchers flag a driver chat as inactive by renaming it, e.g.
// "Route 4 - HOME". The policy only gates driver-facing reminders;
// review and reporting never consult it.
package pause

import "strings"

var pauseTokens = []string{"inactive", "home time", "home"}

// IsPaused reports whether a chat title marks the chat as paused.
// Matching is a case-insensitive substring check.
func IsPaused(title string) bool {
	lowered := strings.ToLower(title)
	for _, token := range pauseTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// IsPausedPtr is a convenience for optional chat titles; a missing
// title never pauses a chat.
func IsPausedPtr(title *string) bool {
	if title == nil {
		return false
	}
	return IsPaused(*title)
}
