package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medication-service/internal/config"
	"medication-service/internal/domain/entity"
	"medication-service/internal/domain/service"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer reads medication events and feeds the alert pipeline
type Consumer struct {
	reader       *kafka.Reader
	alertService service.AlertService
	logger       *zap.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, alertService service.AlertService, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:       reader,
		alertService: alertService,
		logger:       logger,
	}
}

// Start starts consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping kafka consumer")
			return c.reader.Close()
		default:
			message, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Error("failed to read message", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				// Continue processing other messages even if one fails
				c.logger.Error("failed to process message", zap.Error(err))
			}
		}
	}
}

// processMessage handles one medication event
func (c *Consumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.MedicationEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	c.logger.Debug("received medication event",
		zap.String("type", string(event.Type)),
		zap.String("event_id", event.EventID))

	return c.alertService.HandleMedicationEvent(ctx, &event)
}
