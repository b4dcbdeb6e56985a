// Package alerts publishes asset health alerts to a message broker.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

// Transport names accepted by New.
const (
	TransportNone  = "none"
	TransportMQTT  = "mqtt"
	TransportKafka = "kafka"
)

// Publisher delivers a health alert. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, alert models.HealthAlert) error
	Close() error
}

// Config selects and configures the alert transport.
type Config struct {
	Transport       string
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	KafkaBrokers    []string
	KafkaTopic      string
}

// New builds the publisher selected by cfg.Transport.
func New(cfg Config) (Publisher, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", TransportNone:
		return Noop{}, nil
	case TransportMQTT:
		return NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	case TransportKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return nil, fmt.Errorf("unknown alert transport %q", cfg.Transport)
	}
}

// Noop discards alerts.
type Noop struct{}

func (Noop) Publish(context.Context, models.HealthAlert) error { return nil }
func (Noop) Close() error                                      { return nil }

func encode(alert models.HealthAlert) ([]byte, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert: %w", err)
	}
	return data, nil
}
