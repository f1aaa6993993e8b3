// Package strategy defines the interface for notification delivery channels.
package strategy

import (
	"context"
	"sort"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
)

// NotificationSender is the interface that all delivery channels must implement.
type NotificationSender interface {
	// Send delivers the notification to recipient. The recipient format depends on the channel:
	//   - email: address(es) as comma-separated string
	//   - sms: E.164 phone number
	//   - slack, webhook: URL
	Send(ctx context.Context, recipient string, notification *database.Notification) error

	// Type returns the channel this sender handles (e.g. "email", "sms").
	Type() string
}

// Registry manages notification sender strategies.
type Registry struct {
	senders map[string]NotificationSender
}

// NewRegistry creates a new sender registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[string]NotificationSender),
	}
}

// Register registers a sender strategy, replacing any previous one for the same channel.
func (r *Registry) Register(sender NotificationSender) {
	r.senders[sender.Type()] = sender
}

// Get retrieves a sender strategy by channel.
func (r *Registry) Get(channel string) (NotificationSender, bool) {
	sender, ok := r.senders[channel]
	return sender, ok
}

// List returns all registered channels, sorted.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.senders))
	for t := range r.senders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
