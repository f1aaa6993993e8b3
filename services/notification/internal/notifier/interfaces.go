package notifier

import (
	"context"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/segmentio/kafka-go"
)

// MessageReader fetches raw messages and commits their offsets.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

// Store looks up vehicles and tracks notification delivery. *database.DB satisfies it.
type Store interface {
	GetVehicle(ctx context.Context, vehicleID string) (*database.Vehicle, error)
	CreateNotification(ctx context.Context, n *database.Notification) error
	MarkSent(ctx context.Context, notificationID string) error
	MarkFailed(ctx context.Context, notificationID string, reason string) error
}

// Deliverer sends one notification over its channel. *sender.Sender satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, n *database.Notification) error
}
