package alerts

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes alerts keyed by asset id so one asset's alerts stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a synchronous writer for topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}, nil
}

// Publish writes one message for the alert.
func (p *KafkaPublisher) Publish(ctx context.Context, alert models.HealthAlert) error {
	msg, err := alertMessage(alert)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func alertMessage(alert models.HealthAlert) (kafka.Message, error) {
	payload, err := encode(alert)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(alert.TenantID + ":" + alert.AssetID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "risk_level", Value: []byte(alert.RiskLevel)},
		},
		Time: alert.CreatedAt,
	}, nil
}
