// Package history writes every telemetry reading to InfluxDB as a time-series point.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// Measurement is the InfluxDB measurement readings are written to.
const Measurement = "vehicle_telemetry"

// PointWriter is satisfied by api.WriteAPIBlocking.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink writes readings through a blocking write API.
type Sink struct {
	client influxdb2.Client
	writer PointWriter
}

// NewSink connects to InfluxDB at url and writes into org/bucket.
func NewSink(url, token, org, bucket string) *Sink {
	client := influxdb2.NewClient(url, token)
	slog.Info("InfluxDB history sink configured",
		"url", url,
		"org", org,
		"bucket", bucket,
		"measurement", Measurement,
	)
	return &Sink{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
	}
}

// NewSinkWithWriter builds a sink over an existing writer.
func NewSinkWithWriter(w PointWriter) *Sink {
	return &Sink{writer: w}
}

// Name identifies the sink in logs and metrics.
func (s *Sink) Name() string { return "history" }

// Store writes one point for the reading.
func (s *Sink) Store(ctx context.Context, t events.VehicleTelemetry) error {
	if err := s.writer.WritePoint(ctx, BuildPoint(t)); err != nil {
		return fmt.Errorf("failed to write telemetry point: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *Sink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// BuildPoint maps a reading onto the vehicle_telemetry measurement.
// Optional cargo fields are only set when reported.
func BuildPoint(t events.VehicleTelemetry) *write.Point {
	tags := map[string]string{
		"vehicle_id":   t.VehicleID,
		"vehicle_type": t.VehicleType.String(),
	}
	fields := map[string]interface{}{
		"speed":      t.Speed,
		"direction":  t.Direction,
		"fuel_level": t.FuelLevel,
		"latitude":   t.Latitude,
		"longitude":  t.Longitude,
		"is_moving":  t.IsMoving,
		"engine_on":  t.EngineOn,
	}
	if t.CargoTemperature != nil {
		fields["cargo_temperature"] = *t.CargoTemperature
	}
	if t.CargoStatus != nil {
		fields["cargo_status"] = *t.CargoStatus
	}
	if t.IsPlannedStop != nil {
		tags["planned_stop"] = strconv.FormatBool(*t.IsPlannedStop)
	}
	return write.NewPoint(Measurement, tags, fields, t.Timestamp)
}
