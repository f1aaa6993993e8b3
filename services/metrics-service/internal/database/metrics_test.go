package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn}, mock
}

func TestNewDB(t *testing.T) {
	for _, dsn := range []string{"", "invalid-dsn"} {
		db, err := NewDB(dsn)
		if err == nil {
			db.Close()
			t.Errorf("NewDB(%q) error = nil, want error", dsn)
		}
	}
}

func TestDB_GetSystemMetrics(t *testing.T) {
	db, mock := newMockDB(t)
	hour := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT.*FROM vehicles").
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(int64(10), int64(8)))
	mock.ExpectQuery("SELECT COUNT.*FROM vehicle_telemetry").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(420)))
	mock.ExpectQuery("SELECT.*FROM emergency_signals").
		WillReturnRows(sqlmock.NewRows([]string{"active", "last_24h", "breached", "avg"}).
			AddRow(int64(2), int64(5), int64(1), 850.5))
	mock.ExpectQuery("SELECT.*channel.*FROM notifications").
		WillReturnRows(sqlmock.NewRows([]string{"channel", "total", "sent", "failed"}).
			AddRow("email", int64(6), int64(5), int64(1)).
			AddRow("sms", int64(3), int64(3), int64(0)))
	mock.ExpectQuery("SELECT date_trunc").
		WillReturnRows(sqlmock.NewRows([]string{"hour", "count"}).AddRow(hour, int64(9)))

	m, err := db.GetSystemMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetSystemMetrics() error = %v", err)
	}

	if m.TotalVehicles != 10 || m.ActiveVehicles != 8 {
		t.Errorf("vehicles = %d/%d, want 10/8", m.TotalVehicles, m.ActiveVehicles)
	}
	if m.TelemetryLastHour != 420 {
		t.Errorf("TelemetryLastHour = %d, want 420", m.TelemetryLastHour)
	}
	if m.ActiveEmergencies != 2 || m.SLABreachesLast24h != 1 || m.AvgResponseTimeMs != 850.5 {
		t.Errorf("emergencies = %+v", m)
	}
	if m.NotificationsSent != 8 || m.NotificationsFailed != 1 {
		t.Errorf("sent/failed = %d/%d, want 8/1", m.NotificationsSent, m.NotificationsFailed)
	}
	if m.NotificationsByChannel["email"] != 6 {
		t.Errorf("email notifications = %d, want 6", m.NotificationsByChannel["email"])
	}
	if len(m.NotificationsByHour) != 1 || m.NotificationsByHour[0].Hour != "2024-05-01T09:00:00Z" {
		t.Errorf("NotificationsByHour = %+v", m.NotificationsByHour)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations were not met: %v", err)
	}
}

func TestDB_GetSystemMetrics_FleetQueryFails(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT COUNT.*FROM vehicles").WillReturnError(sql.ErrConnDone)

	if _, err := db.GetSystemMetrics(context.Background()); !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("GetSystemMetrics() error = %v, want ErrConnDone", err)
	}
}

func TestDB_GetSystemMetrics_SectionsAreBestEffort(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT COUNT.*FROM vehicles").
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(int64(3), int64(3)))
	mock.ExpectQuery("SELECT COUNT.*FROM vehicle_telemetry").WillReturnError(errors.New("timeout"))
	mock.ExpectQuery("SELECT.*FROM emergency_signals").WillReturnError(errors.New("timeout"))
	mock.ExpectQuery("SELECT.*channel.*FROM notifications").WillReturnError(errors.New("timeout"))
	mock.ExpectQuery("SELECT date_trunc").WillReturnError(errors.New("timeout"))

	m, err := db.GetSystemMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetSystemMetrics() error = %v", err)
	}
	if m.TotalVehicles != 3 || m.TelemetryLastHour != 0 {
		t.Errorf("vehicles/telemetry = %d/%d, want 3/0", m.TotalVehicles, m.TelemetryLastHour)
	}
	if m.NotificationsByHour == nil {
		t.Error("NotificationsByHour is nil, want empty slice")
	}
}
