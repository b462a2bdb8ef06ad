package service

import (
	"context"
	"testing"

	"medication-service/internal/domain/entity"
	"medication-service/internal/infrastructure/smtp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAlertSender struct {
	sent []smtp.MissedDoseData
	to   []string
}

func (s *fakeAlertSender) SendMissedDoseAlert(to string, data smtp.MissedDoseData) error {
	s.to = append(s.to, to)
	s.sent = append(s.sent, data)
	return nil
}

func TestAlertService_OnlyMissedEscalates(t *testing.T) {
	sender := &fakeAlertSender{}
	svc := NewAlertService(sender, "caregiver@example.com", zap.NewNop())

	for _, typ := range []entity.EventType{entity.EventMedicationTaken, entity.EventMedicationSkipped} {
		err := svc.HandleMedicationEvent(context.Background(), &entity.MedicationEvent{Type: typ})
		require.NoError(t, err)
	}
	assert.Empty(t, sender.sent)

	err := svc.HandleMedicationEvent(context.Background(), &entity.MedicationEvent{
		Type:          entity.EventMedicationMissed,
		UserID:        "user-1",
		Name:          "Metformin",
		Dosage:        "1 tablet",
		ScheduledTime: "08:00 AM",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "caregiver@example.com", sender.to[0])
	assert.Equal(t, "Metformin", sender.sent[0].MedicineName)
	assert.Equal(t, "08:00 AM", sender.sent[0].ScheduledTime)
}

func TestAlertService_NoCaregiverConfigured(t *testing.T) {
	sender := &fakeAlertSender{}
	svc := NewAlertService(sender, "", zap.NewNop())

	err := svc.HandleMedicationEvent(context.Background(), &entity.MedicationEvent{
		Type: entity.EventMedicationMissed,
	})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}
