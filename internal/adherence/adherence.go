// Package adherence aggregates action-log history into a summary statistic.
package adherence

import (
	"fmt"
	"math"

	"medication-service/internal/domain/entity"
)

// Calculate returns the adherence percentage over the complete log history,
// formatted with a trailing "%". Every log row counts regardless of day;
// only "taken" counts in favor, skipped and missed both count against.
// An empty history yields "0%".
func Calculate(logs []*entity.ActionLog) string {
	if len(logs) == 0 {
		return "0%"
	}

	taken := 0
	for _, log := range logs {
		if log.Status == entity.StatusTaken {
			taken++
		}
	}

	pct := math.Round(float64(taken) / float64(len(logs)) * 100)
	return fmt.Sprintf("%d%%", int(pct))
}
