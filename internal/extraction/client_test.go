package extraction

import (
	"testing"

	"medication-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMedicines(t *testing.T) {
	reply := `[
		{"name": "Paracetamol 500mg", "dosage": "1 tablet", "timing": ["morning", "evening"]},
		{"name": "Vitamin D", "timing": ["Morning"]}
	]`

	medicines, err := ParseMedicines(reply)
	require.NoError(t, err)
	require.Len(t, medicines, 2)

	assert.Equal(t, "Paracetamol 500mg", medicines[0].Name)
	assert.Equal(t, "1 tablet", medicines[0].Dosage)
	assert.Equal(t, []entity.TimingLabel{entity.TimingMorning, entity.TimingEvening}, medicines[0].Timing)

	// Missing fields stay empty; label casing is normalized.
	assert.Empty(t, medicines[1].Dosage)
	assert.Equal(t, []entity.TimingLabel{entity.TimingMorning}, medicines[1].Timing)
}

func TestParseMedicines_StripsMarkdownFences(t *testing.T) {
	reply := "```json\n[{\"name\": \"Aspirin\", \"dosage\": \"75mg\", \"timing\": [\"morning\"]}]\n```"

	medicines, err := ParseMedicines(reply)
	require.NoError(t, err)
	require.Len(t, medicines, 1)
	assert.Equal(t, "Aspirin", medicines[0].Name)
}

func TestParseMedicines_BareFences(t *testing.T) {
	reply := "```\n[{\"name\": \"Aspirin\"}]\n```"

	medicines, err := ParseMedicines(reply)
	require.NoError(t, err)
	require.Len(t, medicines, 1)
}

func TestParseMedicines_NotJSON(t *testing.T) {
	_, err := ParseMedicines("I could not read this prescription.")
	require.Error(t, err)
}

func TestParseMedicines_EmptyArray(t *testing.T) {
	medicines, err := ParseMedicines("[]")
	require.NoError(t, err)
	assert.Empty(t, medicines)
}
