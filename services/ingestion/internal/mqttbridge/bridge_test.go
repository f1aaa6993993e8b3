package mqttbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

type fakeMessage struct {
	topic   string
	payload []byte
	acked   bool
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              { m.acked = true }

type fakeIngester struct {
	err         error
	telemetry   []events.VehicleTelemetry
	emergencies []events.EmergencySignal
	deadline    bool
}

func (f *fakeIngester) IngestTelemetry(ctx context.Context, t events.VehicleTelemetry) (events.VehicleTelemetry, error) {
	_, f.deadline = ctx.Deadline()
	f.telemetry = append(f.telemetry, t)
	return t, f.err
}

func (f *fakeIngester) IngestEmergency(ctx context.Context, e events.EmergencySignal) (events.EmergencySignal, error) {
	_, f.deadline = ctx.Deadline()
	f.emergencies = append(f.emergencies, e)
	return e, f.err
}

func newTestBridge(ing Ingester) *Bridge {
	return New(Config{BrokerURL: "tcp://localhost:1883", ClientID: "ingestion-test", QoS: 1}, ing)
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic       string
		wantVehicle string
		wantKind    string
		wantErr     bool
	}{
		{topic: "vehicles/TRUCK001/telemetry", wantVehicle: "TRUCK001", wantKind: "telemetry"},
		{topic: "vehicles/CAR002/emergency", wantVehicle: "CAR002", wantKind: "emergency"},
		{topic: "vehicles//telemetry", wantErr: true},
		{topic: "fleet/TRUCK001/telemetry", wantErr: true},
		{topic: "vehicles/TRUCK001", wantErr: true},
		{topic: "vehicles/TRUCK001/telemetry/extra", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			vehicle, kind, err := parseTopic(tt.topic)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTopic() error = %v, wantErr %v", err, tt.wantErr)
			}
			if vehicle != tt.wantVehicle || kind != tt.wantKind {
				t.Errorf("parseTopic() = %s, %s, want %s, %s", vehicle, kind, tt.wantVehicle, tt.wantKind)
			}
		})
	}
}

func TestBridge_RoutesTelemetry(t *testing.T) {
	ing := &fakeIngester{}
	b := newTestBridge(ing)

	b.HandleMessage(nil, &fakeMessage{
		topic:   "vehicles/TRUCK001/telemetry",
		payload: []byte(`{"speed":95,"isMoving":true}`),
	})

	if len(ing.telemetry) != 1 {
		t.Fatalf("telemetry ingested = %d, want 1", len(ing.telemetry))
	}
	if got := ing.telemetry[0]; got.VehicleID != "TRUCK001" || got.Speed != 95 {
		t.Errorf("ingested = %+v, want TRUCK001 at 95 km/h", got)
	}
	if !ing.deadline {
		t.Error("handler context has no deadline")
	}
}

func TestBridge_RoutesEmergency(t *testing.T) {
	ing := &fakeIngester{}
	b := newTestBridge(ing)

	b.HandleMessage(nil, &fakeMessage{
		topic:   "vehicles/TRUCK001/emergency",
		payload: []byte(`{"vehicleId":"TRUCK001","emergencyType":1,"source":"panic-button"}`),
	})

	if len(ing.emergencies) != 1 {
		t.Fatalf("emergencies ingested = %d, want 1", len(ing.emergencies))
	}
	if ing.emergencies[0].EmergencyType != events.EmergencyPanicButton {
		t.Errorf("EmergencyType = %v, want PanicButton", ing.emergencies[0].EmergencyType)
	}
}

func TestBridge_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{name: "unknown kind", topic: "vehicles/TRUCK001/status", payload: `{}`, wantErr: ErrBadTopic},
		{name: "vehicle mismatch", topic: "vehicles/TRUCK001/telemetry", payload: `{"vehicleId":"CAR002"}`, wantErr: ErrBadTopic},
		{name: "malformed body", topic: "vehicles/TRUCK001/emergency", payload: `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &fakeIngester{}
			b := newTestBridge(ing)

			err := b.route(context.Background(), tt.topic, []byte(tt.payload))
			if err == nil {
				t.Fatal("route() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("route() error = %v, want %v", err, tt.wantErr)
			}
			if len(ing.telemetry)+len(ing.emergencies) != 0 {
				t.Error("rejected message reached the ingester")
			}
		})
	}
}

func TestBridge_IngestFailureIsSwallowed(t *testing.T) {
	ing := &fakeIngester{err: errors.New("vehicle not found")}
	b := newTestBridge(ing)

	// Must not panic; the error is only logged.
	b.HandleMessage(nil, &fakeMessage{topic: "vehicles/GHOST/telemetry", payload: []byte(`{}`)})

	if len(ing.telemetry) != 1 {
		t.Errorf("telemetry ingested = %d, want 1", len(ing.telemetry))
	}
}

func TestBridge_ClientOptions(t *testing.T) {
	b := New(Config{
		BrokerURL: "tcp://broker:1883",
		ClientID:  "ingestion-1",
		Username:  "fleet",
		Password:  "secret",
		QoS:       1,
	}, &fakeIngester{})

	opts := b.clientOptions()
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "broker:1883" {
		t.Errorf("Servers = %v, want broker:1883", opts.Servers)
	}
	if opts.ClientID != "ingestion-1" || opts.Username != "fleet" {
		t.Errorf("ClientID/Username = %s/%s", opts.ClientID, opts.Username)
	}
	if opts.CleanSession {
		t.Error("CleanSession = true, want persistent session for QoS 1")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if b.cfg.HandlerTimeout != 10*time.Second {
		t.Errorf("HandlerTimeout = %v, want default 10s", b.cfg.HandlerTimeout)
	}
}

func TestBridge_ConnectStopsOnCancel(t *testing.T) {
	b := New(Config{BrokerURL: "tcp://127.0.0.1:1", ClientID: "ingestion-test"}, &fakeIngester{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Connect(ctx) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Connect() error = nil, want context error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Connect() did not return after cancellation")
	}
}
