package compliance

import "strings"

// exceptionKeywords mark legitimate reasons a driver cannot run the
// check today. Matched case-insensitively as substrings of the driver's
// message.
var exceptionKeywords = []string{
	"trailer not ready",
	"dropped",
	"drop yard",
	"at shop",
	"shop",
	"in shop",
	"no trailer",
	"waiting on trailer",
}

// IsException reports whether the text names a recognized reason to
// skip today's check.
func IsException(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range exceptionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
