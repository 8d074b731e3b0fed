package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/snapshot"
)

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
	// ConnectTimeout bounds the initial connect wait. The client keeps
	// retrying in the background after it elapses.
	ConnectTimeout time.Duration
}

// mqttClient is the subset of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes snapshots as JSON to a broker topic.
type MQTTPublisher struct {
	client mqttClient
	topic  string
	qos    byte
	logger *zap.Logger
}

// Compile-time guard.
var _ Publisher = (*MQTTPublisher)(nil)

// NewMQTTPublisher connects to the broker. An unreachable broker is not an
// error: the client reconnects on its own and publishes fail until it does.
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	logger = logger.With(zap.String("broker", cfg.Broker))

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		logger.Warn("mqtt broker not reachable yet, retrying in background",
			zap.Duration("waited", timeout))
	} else if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	return newMQTTPublisher(client, cfg, logger), nil
}

func newMQTTPublisher(client mqttClient, cfg MQTTConfig, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		logger: logger,
	}
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

// Publish sends snap and waits for the broker acknowledgement required by
// the configured QoS, or for ctx.
func (p *MQTTPublisher) Publish(ctx context.Context, snap snapshot.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tok := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close disconnects, giving in-flight messages a moment to drain.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
