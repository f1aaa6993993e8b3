// Package notifier turns emergencies and rule alerts into delivered notifications.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/metrics"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/payload"
)

// Identifiers stamped on emergency notifications.
const (
	EmergencyRuleID   = "EMERGENCY_AUTO"
	EmergencyActionID = "AUTO_NOTIFY"
	AlertActionID     = "ALERT_FORWARD"

	TypeEmergency = "emergency"
	TypeAlert     = "alert"
)

// Default recipients for emergency fan-out.
const (
	DefaultAuthoritiesEmail = "authorities@ccs.gov.co"
	DefaultRescueEmail      = "rescue@ccs.gov.co"
	DefaultOwnerPhone       = "+573001234567"
)

// storeTimeout bounds each database call.
const storeTimeout = 5 * time.Second

// ErrUnknownTopic is returned for messages from a topic the notifier does not handle.
var ErrUnknownTopic = errors.New("unknown topic")

// AlertChannel is one destination every rule alert is forwarded to.
type AlertChannel struct {
	Channel   string
	Recipient string
}

// Options configures topics and recipients.
type Options struct {
	EmergencyTopic    string
	AlertsTopic       string
	AuthoritiesEmail  string
	RescueEmail       string
	DefaultOwnerPhone string
	AlertChannels     []AlertChannel
}

func (o *Options) applyDefaults() {
	if o.AuthoritiesEmail == "" {
		o.AuthoritiesEmail = DefaultAuthoritiesEmail
	}
	if o.RescueEmail == "" {
		o.RescueEmail = DefaultRescueEmail
	}
	if o.DefaultOwnerPhone == "" {
		o.DefaultOwnerPhone = DefaultOwnerPhone
	}
}

// Notifier consumes the emergency and alerts topics through one reader.
type Notifier struct {
	reader    MessageReader
	store     Store
	deliverer Deliverer
	metrics   metrics.Recorder
	opts      Options
	newID     func() string
}

// New creates a notifier with no-op metrics.
func New(reader MessageReader, store Store, deliverer Deliverer, opts Options) *Notifier {
	opts.applyDefaults()
	return &Notifier{
		reader:    reader,
		store:     store,
		deliverer: deliverer,
		metrics:   metrics.NewNoOp(),
		opts:      opts,
		newID:     uuid.NewString,
	}
}

// SetMetrics installs a metrics recorder. A nil recorder is ignored.
func (n *Notifier) SetMetrics(m metrics.Recorder) {
	if m != nil {
		n.metrics = m
	}
}

// Run consumes until ctx is cancelled. Every fetched message is committed once its
// handler returns, whatever the outcome.
func (n *Notifier) Run(ctx context.Context) error {
	slog.Info("Starting notification processing loop",
		"emergency_topic", n.opts.EmergencyTopic,
		"alerts_topic", n.opts.AlertsTopic,
		"alert_channels", len(n.opts.AlertChannels),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification processing loop stopped")
			return nil
		default:
			msg, err := n.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					slog.Info("Notification processing loop stopped")
					return nil
				}
				slog.Error("Failed to fetch message", "error", err)
				n.metrics.RecordError()
				continue
			}

			n.metrics.RecordReceived()
			start := time.Now()

			inflight := context.WithoutCancel(ctx)
			if err := n.handle(inflight, msg); err != nil {
				slog.Error("Failed to handle message",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				n.metrics.RecordError()
			}
			n.metrics.RecordProcessed(time.Since(start))

			if err := n.reader.CommitMessage(inflight, msg); err != nil {
				slog.Error("Failed to commit offset",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
			}
		}
	}
}

func (n *Notifier) handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case n.opts.EmergencyTopic:
		e, err := events.DecodeEmergency(msg.Value)
		if err != nil {
			return err
		}
		return n.HandleEmergency(ctx, e)
	case n.opts.AlertsTopic:
		a, err := events.DecodeAlert(msg.Value)
		if err != nil {
			return err
		}
		return n.HandleAlert(ctx, a)
	default:
		n.metrics.RecordSkipped()
		return fmt.Errorf("%w: %s", ErrUnknownTopic, msg.Topic)
	}
}

// HandleEmergency notifies the authorities, the owner and, for accidents, rescue
// services in parallel. An unknown vehicle is logged and skipped.
func (n *Notifier) HandleEmergency(ctx context.Context, e events.EmergencySignal) error {
	slog.Warn("Sending emergency notifications",
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
	)

	lookupCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	vehicle, err := n.store.GetVehicle(lookupCtx, e.VehicleID)
	cancel()
	if errors.Is(err, database.ErrVehicleNotFound) {
		slog.Warn("Vehicle not found, skipping emergency notifications",
			"emergency_id", e.EmergencyID,
			"vehicle_id", e.VehicleID,
		)
		n.metrics.RecordSkipped()
		return nil
	}
	if err != nil {
		return fmt.Errorf("vehicle lookup: %w", err)
	}

	notes := n.emergencyNotifications(e, vehicle)
	err = n.fanOut(ctx, notes)

	slog.Info("Emergency notifications processed",
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"notifications", len(notes),
	)
	return err
}

func (n *Notifier) emergencyNotifications(e events.EmergencySignal, v *database.Vehicle) []*database.Notification {
	base := func(channel, recipient, subject, message string) *database.Notification {
		return &database.Notification{
			NotificationID: n.newID(),
			VehicleID:      e.VehicleID,
			RuleID:         EmergencyRuleID,
			ActionID:       EmergencyActionID,
			Type:           TypeEmergency,
			Channel:        channel,
			Recipient:      recipient,
			Subject:        subject,
			Message:        message,
			Severity:       events.SeverityHigh,
		}
	}

	authorities := payload.EmergencyEmail(e, v)
	ownerPhone := v.OwnerPhone
	if ownerPhone == "" {
		ownerPhone = n.opts.DefaultOwnerPhone
	}

	notes := []*database.Notification{
		base(database.ChannelEmail, n.opts.AuthoritiesEmail, authorities.Subject, authorities.Body),
		base(database.ChannelSMS, ownerPhone, authorities.Subject, payload.OwnerSMS(e, v)),
	}
	if e.EmergencyType == events.EmergencyAccident {
		rescue := payload.AccidentEmail(e, v)
		notes = append(notes, base(database.ChannelEmail, n.opts.RescueEmail, rescue.Subject, rescue.Body))
	}
	return notes
}

// HandleAlert forwards a rule alert to every configured alert channel.
func (n *Notifier) HandleAlert(ctx context.Context, a events.Alert) error {
	slog.Info("Alert received",
		"alert_id", a.AlertID,
		"rule_id", a.RuleID,
		"vehicle_id", a.VehicleID,
		"alert_type", a.AlertType,
		"severity", a.Severity,
		"message", a.Message,
	)

	if len(n.opts.AlertChannels) == 0 {
		n.metrics.RecordSkipped()
		return nil
	}

	content := payload.AlertEmail(a)
	notes := make([]*database.Notification, 0, len(n.opts.AlertChannels))
	for _, ch := range n.opts.AlertChannels {
		notes = append(notes, &database.Notification{
			NotificationID: n.newID(),
			VehicleID:      a.VehicleID,
			RuleID:         a.RuleID,
			ActionID:       AlertActionID,
			Type:           TypeAlert,
			Channel:        ch.Channel,
			Recipient:      ch.Recipient,
			Subject:        content.Subject,
			Message:        content.Body,
			Severity:       a.Severity,
		})
	}
	return n.fanOut(ctx, notes)
}

// fanOut delivers every notification concurrently and waits for all of them.
func (n *Notifier) fanOut(ctx context.Context, notes []*database.Notification) error {
	errs := make([]error, len(notes))
	var g errgroup.Group
	for i, note := range notes {
		i, note := i, note
		g.Go(func() error {
			errs[i] = n.notify(ctx, note)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// notify persists, delivers and records the outcome of one notification.
// A failed insert does not stop delivery.
func (n *Notifier) notify(ctx context.Context, note *database.Notification) error {
	persisted := n.withStore(ctx, "create", note, func(c context.Context) error {
		return n.store.CreateNotification(c, note)
	})

	deliverErr := n.deliverer.Deliver(ctx, note)
	if deliverErr != nil {
		n.metrics.RecordDelivery(note.Channel, false)
		slog.Error("Failed to deliver notification",
			"notification_id", note.NotificationID,
			"channel", note.Channel,
			"recipient", note.Recipient,
			"error", deliverErr,
		)
		if persisted {
			n.withStore(ctx, "mark failed", note, func(c context.Context) error {
				return n.store.MarkFailed(c, note.NotificationID, deliverErr.Error())
			})
		}
		return fmt.Errorf("%s to %s: %w", note.Channel, note.Recipient, deliverErr)
	}

	n.metrics.RecordDelivery(note.Channel, true)
	if persisted {
		n.withStore(ctx, "mark sent", note, func(c context.Context) error {
			return n.store.MarkSent(c, note.NotificationID)
		})
	}
	return nil
}

func (n *Notifier) withStore(ctx context.Context, op string, note *database.Notification, fn func(context.Context) error) bool {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := fn(storeCtx); err != nil {
		slog.Warn("Notification bookkeeping failed",
			"op", op,
			"notification_id", note.NotificationID,
			"error", err,
		)
		n.metrics.RecordError()
		return false
	}
	return true
}
