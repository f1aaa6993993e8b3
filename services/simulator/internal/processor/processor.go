// Package processor drives the simulator in burst or continuous mode, pulling events from
// the generator and publishing them.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/services/simulator/internal/config"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/generator"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/producer"
)

const (
	// progressLogInterval defines how often to log progress in continuous mode
	progressLogInterval = 5 * time.Second
	// burstProgressInterval defines how often to log progress in burst mode (every N events)
	burstProgressInterval = 100
)

// EventSource yields simulated events.
type EventSource interface {
	Next() generator.Event
}

// Processor orchestrates event generation and publishing.
type Processor struct {
	source    EventSource
	publisher producer.EventPublisher
	cfg       *config.Config
	metrics   MetricsRecorder
	stats     Stats
}

// Stats summarises a run.
type Stats struct {
	Readings    int
	Emergencies int
	Anomalies   map[generator.Anomaly]int
}

// NewProcessor creates a processor with metrics disabled.
func NewProcessor(src EventSource, pub producer.EventPublisher, cfg *config.Config) *Processor {
	return &Processor{
		source:    src,
		publisher: pub,
		cfg:       cfg,
		metrics:   NoOpMetrics{},
		stats:     Stats{Anomalies: make(map[generator.Anomaly]int)},
	}
}

// SetMetrics sets the metrics recorder. Nil disables metrics.
func (p *Processor) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = NoOpMetrics{}
	}
	p.metrics = m
}

// Stats returns the counts accumulated so far.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Process runs burst mode when a burst size is configured, continuous mode otherwise.
func (p *Processor) Process(ctx context.Context) error {
	if p.cfg.BurstSize > 0 {
		return p.runBurst(ctx, p.cfg.BurstSize)
	}
	return p.runContinuous(ctx, p.cfg.RPS, p.cfg.Duration)
}

// publish sends one reading and, when present, its emergency.
func (p *Processor) publish(ctx context.Context, ev generator.Event) error {
	start := time.Now()
	if err := p.publisher.PublishTelemetry(ctx, ev.Telemetry); err != nil {
		return p.publishFailed(ctx, "telemetry", ev.Telemetry.VehicleID, err)
	}
	p.metrics.RecordPublished()
	p.stats.Readings++
	if ev.Anomaly != generator.AnomalyNone {
		p.stats.Anomalies[ev.Anomaly]++
		p.metrics.IncrementCustom("anomaly_" + string(ev.Anomaly))
	}

	if ev.Emergency != nil {
		if err := p.publisher.PublishEmergency(ctx, *ev.Emergency); err != nil {
			return p.publishFailed(ctx, "emergency", ev.Emergency.VehicleID, err)
		}
		p.metrics.RecordPublished()
		p.metrics.IncrementCustom("emergencies_injected")
		p.stats.Emergencies++
		slog.Info("Injected emergency",
			"emergency_id", ev.Emergency.EmergencyID,
			"vehicle_id", ev.Emergency.VehicleID,
			"emergency_type", ev.Emergency.EmergencyType.String(),
		)
	}

	p.metrics.RecordProcessed(time.Since(start))
	return nil
}

func (p *Processor) publishFailed(ctx context.Context, kind, vehicleID string, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return context.Canceled
	}
	p.metrics.RecordError()
	slog.Error("Failed to publish event",
		"kind", kind,
		"vehicle_id", vehicleID,
		"error", err,
	)
	return fmt.Errorf("failed to publish %s for %s: %w", kind, vehicleID, err)
}

func (p *Processor) logSummary(msg string, elapsed time.Duration) {
	slog.Info(msg,
		"readings", p.stats.Readings,
		"emergencies", p.stats.Emergencies,
		"speeding", p.stats.Anomalies[generator.AnomalySpeeding],
		"cargo_high", p.stats.Anomalies[generator.AnomalyCargoHigh],
		"cargo_low", p.stats.Anomalies[generator.AnomalyCargoLow],
		"unplanned_stop", p.stats.Anomalies[generator.AnomalyUnplannedStop],
		"duration_sec", fmt.Sprintf("%.2f", elapsed.Seconds()),
		"rate_per_sec", fmt.Sprintf("%.2f", calculateRate(p.stats.Readings, elapsed)),
	)
}

func calculateRate(count int, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds
}
