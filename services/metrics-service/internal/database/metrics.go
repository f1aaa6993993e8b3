package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SystemMetrics holds aggregated metrics from the database.
type SystemMetrics struct {
	// Fleet
	TotalVehicles     int64 `json:"total_vehicles"`
	ActiveVehicles    int64 `json:"active_vehicles"`
	TelemetryLastHour int64 `json:"telemetry_last_hour"`

	// Emergencies
	ActiveEmergencies    int64   `json:"active_emergencies"`
	EmergenciesLast24h   int64   `json:"emergencies_last_24h"`
	SLABreachesLast24h   int64   `json:"sla_breaches_last_24h"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms_last_24h"`

	// Notifications
	NotificationsSent      int64            `json:"notifications_sent"`
	NotificationsFailed    int64            `json:"notifications_failed"`
	NotificationsByChannel map[string]int64 `json:"notifications_by_channel"`
	NotificationsByHour    []HourlyCount    `json:"notifications_by_hour"`

	CollectedAt time.Time `json:"collected_at"`
}

// HourlyCount represents notification count for a specific hour.
type HourlyCount struct {
	Hour  string `json:"hour"` // RFC3339
	Count int64  `json:"count"`
}

// queryTimeout bounds each aggregate query so the API stays responsive.
const queryTimeout = 2 * time.Second

// GetSystemMetrics aggregates fleet, emergency and notification counts.
// The fleet query must succeed; the remaining sections are best-effort and
// are left at zero when their query fails.
func (db *DB) GetSystemMetrics(ctx context.Context) (*SystemMetrics, error) {
	m := &SystemMetrics{
		NotificationsByChannel: make(map[string]int64),
		NotificationsByHour:    make([]HourlyCount, 0),
		CollectedAt:            time.Now().UTC(),
	}

	fleetCtx, fleetCancel := context.WithTimeout(ctx, queryTimeout)
	defer fleetCancel()
	fleetQuery := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM vehicles
	`
	if err := db.conn.QueryRowContext(fleetCtx, fleetQuery).Scan(&m.TotalVehicles, &m.ActiveVehicles); err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}

	for _, section := range []struct {
		name string
		fn   func(context.Context, *SystemMetrics) error
	}{
		{"telemetry", db.telemetryMetrics},
		{"emergencies", db.emergencyMetrics},
		{"notifications", db.notificationMetrics},
		{"notifications_by_hour", db.hourlyNotifications},
	} {
		sectionCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		err := section.fn(sectionCtx, m)
		cancel()
		if err != nil {
			slog.Warn("Metrics section unavailable", "section", section.name, "error", err)
		}
	}

	return m, nil
}

func (db *DB) telemetryMetrics(ctx context.Context, m *SystemMetrics) error {
	query := `
		SELECT COUNT(*) FROM vehicle_telemetry
		WHERE timestamp >= NOW() - INTERVAL '1 hour'
	`
	return db.conn.QueryRowContext(ctx, query).Scan(&m.TelemetryLastHour)
}

func (db *DB) emergencyMetrics(ctx context.Context, m *SystemMetrics) error {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_resolved),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours'),
			COUNT(*) FILTER (WHERE sla_breached AND created_at >= NOW() - INTERVAL '24 hours'),
			COALESCE(AVG(response_time_ms) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours'), 0)
		FROM emergency_signals
	`
	return db.conn.QueryRowContext(ctx, query).Scan(
		&m.ActiveEmergencies,
		&m.EmergenciesLast24h,
		&m.SLABreachesLast24h,
		&m.AvgResponseTimeMs,
	)
}

func (db *DB) notificationMetrics(ctx context.Context, m *SystemMetrics) error {
	query := `
		SELECT
			channel,
			COUNT(*),
			COUNT(*) FILTER (WHERE is_sent),
			COUNT(*) FILTER (WHERE NOT is_sent AND error_message IS NOT NULL)
		FROM notifications
		GROUP BY channel
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var channel string
		var total, sent, failed int64
		if err := rows.Scan(&channel, &total, &sent, &failed); err != nil {
			return err
		}
		m.NotificationsByChannel[channel] = total
		m.NotificationsSent += sent
		m.NotificationsFailed += failed
	}
	return rows.Err()
}

func (db *DB) hourlyNotifications(ctx context.Context, m *SystemMetrics) error {
	query := `
		SELECT date_trunc('hour', created_at) AS hour, COUNT(*)
		FROM notifications
		WHERE created_at >= NOW() - INTERVAL '24 hours'
		GROUP BY date_trunc('hour', created_at)
		ORDER BY hour ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hour time.Time
		var count int64
		if err := rows.Scan(&hour, &count); err != nil {
			return err
		}
		m.NotificationsByHour = append(m.NotificationsByHour, HourlyCount{
			Hour:  hour.UTC().Format(time.RFC3339),
			Count: count,
		})
	}
	return rows.Err()
}
