// Package rules defines the fixed set of safety rules evaluated against every telemetry reading.
package rules

import (
	"context"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/google/uuid"
)

// Rule is a prioritized predicate plus the actions to run when it matches.
// Evaluate must be a pure function of the reading; ExecuteActions may publish and log.
type Rule interface {
	ID() string
	Name() string
	Priority() int
	Evaluate(t events.VehicleTelemetry) (bool, error)
	ExecuteActions(ctx context.Context, t events.VehicleTelemetry, env Env) error
}

// AlertPublisher publishes alerts to the alerts topic.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert events.AlertMessage) error
}

// Env carries the collaborators a rule action may use.
type Env struct {
	Publisher AlertPublisher
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// NewEnv returns an Env with a UTC clock and uuid alert ids.
func NewEnv(publisher AlertPublisher, logger *slog.Logger) Env {
	return Env{
		Publisher: publisher,
		Logger:    logger,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     uuid.NewString,
	}
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e Env) newAlert(rule Rule, t events.VehicleTelemetry, alertType, severity, message string) events.Alert {
	now, newID := e.Now, e.NewID
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return events.Alert{
		AlertID:   newID(),
		RuleID:    rule.ID(),
		RuleName:  rule.Name(),
		VehicleID: t.VehicleID,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		Location:  t.Location(),
		Timestamp: now(),
	}
}

// Defaults returns the platform rule set in declaration order.
func Defaults() []Rule {
	return []Rule{
		NewUnplannedStop(),
		NewSpeedLimit(),
		NewCargoTemperature(),
	}
}
