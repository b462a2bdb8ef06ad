package validation

import (
	"fmt"
	"regexp"
	"strings"

	"medication-service/internal/domain/entity"
)

const (
	MaxNameLength   = 120
	MaxDosageLength = 60
)

var (
	// 24-hour clock pattern, "HH:MM"
	time24Regex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// ValidateMedicineName validates the display name of a medicine
func ValidateMedicineName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("medicine name is required")
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("medicine name is too long (max %d characters)", MaxNameLength)
	}

	return nil
}

// ValidateDosage validates the dosage display string; dosage may be empty
// because the extraction service cannot always recover it
func ValidateDosage(dosage string) error {
	if len(dosage) > MaxDosageLength {
		return fmt.Errorf("dosage is too long (max %d characters)", MaxDosageLength)
	}

	return nil
}

// ValidateTiming validates the timing label set against the fixed vocabulary
func ValidateTiming(timing []entity.TimingLabel) error {
	for _, label := range timing {
		if !label.IsValid() {
			return fmt.Errorf("invalid timing label: %q", label)
		}
	}

	return nil
}

// ValidateScheduledTimes validates the optional per-label 24-hour overrides
func ValidateScheduledTimes(scheduledTimes map[entity.TimingLabel]string) error {
	for label, clock := range scheduledTimes {
		if !label.IsValid() {
			return fmt.Errorf("invalid timing label: %q", label)
		}
		if !time24Regex.MatchString(clock) {
			return fmt.Errorf("invalid scheduled time for %s: %q (expected HH:MM)", label, clock)
		}
	}

	return nil
}
