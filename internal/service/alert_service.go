package service

import (
	"context"

	"medication-service/internal/domain/entity"
	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/infrastructure/smtp"

	"go.uber.org/zap"
)

// AlertSender sends a missed dose alert; satisfied by the SMTP client.
type AlertSender interface {
	SendMissedDoseAlert(to string, data smtp.MissedDoseData) error
}

type alertService struct {
	sender      AlertSender
	caregiverTo string
	logger      *zap.Logger
}

// NewAlertService creates the caregiver alert service. Only missed-dose
// events escalate; taken and skipped events are ignored.
func NewAlertService(sender AlertSender, caregiverTo string, logger *zap.Logger) domainservice.AlertService {
	return &alertService{
		sender:      sender,
		caregiverTo: caregiverTo,
		logger:      logger,
	}
}

func (s *alertService) HandleMedicationEvent(ctx context.Context, event *entity.MedicationEvent) error {
	if event.Type != entity.EventMedicationMissed {
		return nil
	}
	if s.caregiverTo == "" {
		s.logger.Debug("no caregiver contact configured, dropping missed dose alert",
			zap.String("user_id", event.UserID))
		return nil
	}

	data := smtp.MissedDoseData{
		UserID:        event.UserID,
		MedicineName:  event.Name,
		Dosage:        event.Dosage,
		ScheduledTime: event.ScheduledTime,
	}
	if err := s.sender.SendMissedDoseAlert(s.caregiverTo, data); err != nil {
		return err
	}

	s.logger.Info("sent missed dose alert",
		zap.String("user_id", event.UserID),
		zap.String("medicine", event.Name))
	return nil
}
