// Package timeutil converts between clock-time representations and compares
// the current time against a scheduled time under a tolerance window.
//
// All arithmetic is plain minutes-since-midnight. Differences are linear and
// do not wrap around midnight: a dose scheduled at 11:55 PM compared against
// 00:05 AM yields a large difference, not ten minutes.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrParse indicates a malformed clock-time string. Callers must treat a
// scheduled time that fails to parse as "never due" rather than failing.
var ErrParse = errors.New("malformed clock time")

// ToMinutes parses a 12-hour clock string like "08:00 AM" or "02:30 PM"
// into minutes since midnight in [0, 1439].
func ToMinutes(clock string) (int, error) {
	parts := strings.Fields(strings.TrimSpace(clock))
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrParse, clock)
	}

	period := strings.ToUpper(parts[1])
	if period != "AM" && period != "PM" {
		return 0, fmt.Errorf("%w: invalid period in %q", ErrParse, clock)
	}

	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("%w: missing separator in %q", ErrParse, clock)
	}

	hours, err := strconv.Atoi(hm[0])
	if err != nil || hours < 1 || hours > 12 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrParse, clock)
	}

	minutes, err := strconv.Atoi(hm[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrParse, clock)
	}

	if period == "PM" && hours != 12 {
		hours += 12
	}
	if period == "AM" && hours == 12 {
		hours = 0
	}

	return hours*60 + minutes, nil
}

// To12Hour converts a 24-hour "HH:MM" string into its 12-hour display form,
// e.g. "13:00" -> "01:00 PM".
func To12Hour(time24 string) (string, error) {
	hm := strings.Split(strings.TrimSpace(time24), ":")
	if len(hm) != 2 {
		return "", fmt.Errorf("%w: missing separator in %q", ErrParse, time24)
	}

	hours, err := strconv.Atoi(hm[0])
	if err != nil || hours < 0 || hours > 23 {
		return "", fmt.Errorf("%w: invalid hour in %q", ErrParse, time24)
	}

	minutes, err := strconv.Atoi(hm[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("%w: invalid minute in %q", ErrParse, time24)
	}

	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	if hours == 0 {
		hours = 12
	} else if hours > 12 {
		hours -= 12
	}

	return fmt.Sprintf("%02d:%02d %s", hours, minutes, period), nil
}

// WithinWindow reports whether nowMinutes falls within windowMinutes of the
// scheduled time on either side.
func WithinWindow(scheduledMinutes, nowMinutes, windowMinutes int) bool {
	diff := nowMinutes - scheduledMinutes
	if diff < 0 {
		diff = -diff
	}
	return diff <= windowMinutes
}

// Exceeded reports whether nowMinutes is strictly past the scheduled time
// plus the grace period.
func Exceeded(scheduledMinutes, nowMinutes, graceMinutes int) bool {
	return nowMinutes > scheduledMinutes+graceMinutes
}

// MinutesOfDay returns the minutes since midnight for t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatClock renders t as a 12-hour clock string, e.g. "08:05 AM".
func FormatClock(t time.Time) string {
	return t.Format("03:04 PM")
}
