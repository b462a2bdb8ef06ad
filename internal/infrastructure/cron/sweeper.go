package cron

import (
	"context"
	"fmt"
	"time"

	"medication-service/internal/domain/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MissSweeper periodically expires overdue pending entries to missed
type MissSweeper struct {
	scheduleService service.ScheduleService
	cron            *cron.Cron
	interval        time.Duration
	logger          *zap.Logger
}

// NewMissSweeper creates a new auto-miss sweeper
func NewMissSweeper(scheduleService service.ScheduleService, interval time.Duration, logger *zap.Logger) *MissSweeper {
	return &MissSweeper{
		scheduleService: scheduleService,
		cron:            cron.New(),
		interval:        interval,
		logger:          logger,
	}
}

// Start starts the sweeper
func (s *MissSweeper) Start() error {
	cronExpr := fmt.Sprintf("@every %s", s.interval.String())

	s.logger.Info("starting auto-miss sweeper", zap.Duration("interval", s.interval))

	_, err := s.cron.AddFunc(cronExpr, func() {
		s.sweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the sweeper and waits for a running sweep to finish
func (s *MissSweeper) Stop() {
	s.logger.Info("stopping auto-miss sweeper")
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *MissSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.scheduleService.SweepMissed(ctx)
}
