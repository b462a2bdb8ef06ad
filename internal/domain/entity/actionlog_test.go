package entity

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "0800AM", NormalizeClock("08:00 AM"))
	assert.Equal(t, "0215PM", NormalizeClock("02:15 PM"))
	assert.Equal(t, "", NormalizeClock(""))
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	assert.Equal(t, fmt.Sprintf("%s_0800AM", id), SlotKey(id, "08:00 AM"))
	assert.Equal(t,
		fmt.Sprintf("user-1_%s_0800AM_2025-03-10", id),
		StoreKey("user-1", id, "08:00 AM", "2025-03-10"))

	// The same slot on the same day always yields the same store key.
	assert.Equal(t,
		StoreKey("user-1", id, "08:00 AM", "2025-03-10"),
		StoreKey("user-1", id, "08:00 AM", "2025-03-10"))
}
