package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ukydev/hsse-asset-health/internal/models"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// mqttClient is the subset of mqtt.Client used by the publisher.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes alerts to <prefix>/<tenant>/<asset>/health.
type MQTTPublisher struct {
	client      mqttClient
	topicPrefix string
}

// NewMQTTPublisher connects to broker and returns a publisher.
func NewMQTTPublisher(broker, clientID, topicPrefix string) (*MQTTPublisher, error) {
	if broker == "" {
		return nil, fmt.Errorf("mqtt broker is empty")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return newMQTTPublisher(client, topicPrefix), nil
}

func newMQTTPublisher(client mqttClient, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topicPrefix: strings.TrimSuffix(topicPrefix, "/")}
}

// Topic returns the topic an alert is published to.
func (p *MQTTPublisher) Topic(alert models.HealthAlert) string {
	return fmt.Sprintf("%s/%s/%s/health", p.topicPrefix, alert.TenantID, alert.AssetID)
}

// Publish sends the alert with QoS 1 and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, alert models.HealthAlert) error {
	payload, err := encode(alert)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.Topic(alert), mqttQoS, false, payload)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish to %s timed out", p.Topic(alert))
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
