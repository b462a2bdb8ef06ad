package voice

import "strings"

// Intent is the classified meaning of a spoken response.
type Intent string

const (
	IntentTaken   Intent = "taken"
	IntentSkipped Intent = "skipped"
	IntentSnooze  Intent = "snooze"
	IntentUnknown Intent = "unknown"
)

// Keyword groups checked in priority order; within a reminder response
// "taken" phrasing wins over "skip" phrasing wins over "snooze" phrasing.
var (
	takenKeywords  = []string{"take", "taken", "done", "yes"}
	skipKeywords   = []string{"skip", "not taken", "no"}
	snoozeKeywords = []string{"later", "snooze"}
)

// ClassifyIntent maps a transcript to an intent by case-insensitive
// substring match, first matching group wins.
func ClassifyIntent(transcript string) Intent {
	lower := strings.ToLower(transcript)

	for _, kw := range takenKeywords {
		if strings.Contains(lower, kw) {
			return IntentTaken
		}
	}
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return IntentSkipped
		}
	}
	for _, kw := range snoozeKeywords {
		if strings.Contains(lower, kw) {
			return IntentSnooze
		}
	}
	return IntentUnknown
}
