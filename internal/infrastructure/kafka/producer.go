package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medication-service/internal/config"
	"medication-service/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes medication events to Kafka
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true, // Async for better performance
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// PublishMedicationEvent publishes a medication status event
func (p *Producer) PublishMedicationEvent(ctx context.Context, event *entity.MedicationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish medication event: %w", err)
	}

	p.logger.Debug("published medication event",
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID))
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
