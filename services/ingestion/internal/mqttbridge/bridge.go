// Package mqttbridge feeds readings and signals published by vehicles over MQTT into the ingest service.
//
// Vehicles publish to vehicles/{vehicleId}/telemetry and vehicles/{vehicleId}/emergency
// with the same JSON bodies the HTTP API accepts.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// Subscription filters, one per message kind.
const (
	TelemetryFilter = "vehicles/+/telemetry"
	EmergencyFilter = "vehicles/+/emergency"
)

const (
	kindTelemetry = "telemetry"
	kindEmergency = "emergency"
)

// ErrBadTopic is returned for topics outside the vehicles/{id}/{kind} layout.
var ErrBadTopic = errors.New("unexpected MQTT topic")

// Ingester accepts readings and signals.
type Ingester interface {
	IngestTelemetry(ctx context.Context, t events.VehicleTelemetry) (events.VehicleTelemetry, error)
	IngestEmergency(ctx context.Context, e events.EmergencySignal) (events.EmergencySignal, error)
}

// Config holds broker connection settings.
type Config struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	HandlerTimeout time.Duration
}

// Bridge owns the MQTT client and routes every message to the ingester.
type Bridge struct {
	cfg      Config
	client   mqtt.Client
	ingester Ingester
}

// New builds a bridge; call Connect to start receiving.
func New(cfg Config, ingester Ingester) *Bridge {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 10 * time.Second
	}
	b := &Bridge{cfg: cfg, ingester: ingester}
	b.client = mqtt.NewClient(b.clientOptions())
	return b
}

func (b *Bridge) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.BrokerURL).
		SetClientID(b.cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
	}
	if b.cfg.Password != "" {
		opts.SetPassword(b.cfg.Password)
	}

	// Subscriptions are renewed on every (re)connect.
	opts.OnConnect = func(c mqtt.Client) {
		slog.Info("Connected to MQTT broker", "broker", b.cfg.BrokerURL)
		filters := map[string]byte{TelemetryFilter: b.cfg.QoS, EmergencyFilter: b.cfg.QoS}
		if token := c.SubscribeMultiple(filters, b.HandleMessage); token.Wait() && token.Error() != nil {
			slog.Error("MQTT subscribe failed", "error", token.Error())
			return
		}
		slog.Info("Subscribed to MQTT topics",
			"filters", []string{TelemetryFilter, EmergencyFilter},
			"qos", b.cfg.QoS,
		)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("MQTT connection lost", "error", err)
	}
	return opts
}

// Connect dials the broker, backing off between attempts until ctx is cancelled.
// Paho's own connect retry is left off: its token never completes while the broker is down.
func (b *Bridge) Connect(ctx context.Context) error {
	backoff := 2 * time.Second
	const maxBackoff = 30 * time.Second
	for {
		token := b.client.Connect()
		if token.Wait() && token.Error() == nil {
			return nil
		}
		slog.Warn("MQTT connect failed, retrying", "error", token.Error(), "backoff", backoff)
		select {
		case <-time.After(backoff):
			if backoff < maxBackoff {
				backoff *= 2
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close disconnects, giving in-flight handlers a moment to finish.
func (b *Bridge) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(250)
		slog.Info("Disconnected from MQTT broker")
	}
}

// HandleMessage is the paho message callback.
// Failures are logged; the message is still acknowledged so a bad payload is not redelivered.
func (b *Bridge) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
	defer cancel()

	if err := b.route(ctx, msg.Topic(), msg.Payload()); err != nil {
		slog.Error("Failed to ingest MQTT message",
			"topic", msg.Topic(),
			"message_id", msg.MessageID(),
			"bytes", len(msg.Payload()),
			"error", err,
		)
	}
}

func (b *Bridge) route(ctx context.Context, topic string, payload []byte) error {
	vehicleID, kind, err := parseTopic(topic)
	if err != nil {
		return err
	}

	switch kind {
	case kindTelemetry:
		var t events.VehicleTelemetry
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("failed to unmarshal telemetry: %w", err)
		}
		if t.VehicleID, err = topicVehicle(t.VehicleID, vehicleID); err != nil {
			return err
		}
		_, err = b.ingester.IngestTelemetry(ctx, t)
		return err
	case kindEmergency:
		var e events.EmergencySignal
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("failed to unmarshal emergency: %w", err)
		}
		if e.VehicleID, err = topicVehicle(e.VehicleID, vehicleID); err != nil {
			return err
		}
		_, err = b.ingester.IngestEmergency(ctx, e)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
}

// parseTopic splits vehicles/{vehicleId}/{kind}.
func parseTopic(topic string) (vehicleID, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "vehicles" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	return parts[1], parts[2], nil
}

// topicVehicle fills an empty body vehicle id from the topic and rejects a mismatch.
func topicVehicle(body, topic string) (string, error) {
	if body == "" || body == topic {
		return topic, nil
	}
	return "", fmt.Errorf("%w: body vehicle %s published on topic for %s", ErrBadTopic, body, topic)
}
