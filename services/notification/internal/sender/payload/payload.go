// Package payload builds channel-specific message content.
package payload

import (
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// EmergencyEmail is the message sent to the authorities for any emergency.
func EmergencyEmail(e events.EmergencySignal, v *database.Vehicle) EmailPayload {
	var sb strings.Builder
	sb.WriteString("EMERGENCY NOTIFICATION - Fleet Vehicle Tracking\n")
	sb.WriteString("===============================================\n\n")
	fmt.Fprintf(&sb, "Vehicle: %s (%s %s)\n", v.LicensePlate, v.Brand, v.Model)
	fmt.Fprintf(&sb, "Emergency Type: %s\n", e.EmergencyType.DisplayName())
	fmt.Fprintf(&sb, "Location: %.6f, %.6f\n", e.Latitude, e.Longitude)
	fmt.Fprintf(&sb, "Description: %s\n", e.Description)
	fmt.Fprintf(&sb, "Time: %s\n", e.CreatedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&sb, "Source: %s\n", e.Source)
	sb.WriteString("\nThis is an automated notification from the fleet tracking system.\n")

	return EmailPayload{
		Subject: fmt.Sprintf("EMERGENCY - Vehicle %s", v.LicensePlate),
		Body:    sb.String(),
	}
}

// AccidentEmail is the extra message sent to rescue services for accidents.
func AccidentEmail(e events.EmergencySignal, v *database.Vehicle) EmailPayload {
	var sb strings.Builder
	sb.WriteString("ACCIDENT EMERGENCY - IMMEDIATE RESPONSE REQUIRED\n")
	sb.WriteString("================================================\n\n")
	fmt.Fprintf(&sb, "Vehicle: %s (%s %s)\n", v.LicensePlate, v.Brand, v.Model)
	sb.WriteString("Emergency Type: ACCIDENT\n")
	fmt.Fprintf(&sb, "Exact Location: %.6f, %.6f\n", e.Latitude, e.Longitude)
	fmt.Fprintf(&sb, "Description: %s\n", e.Description)
	fmt.Fprintf(&sb, "Time of Incident: %s\n", e.CreatedAt.UTC().Format(timeLayout))
	sb.WriteString("\nIMMEDIATE MEDICAL/RESCUE RESPONSE REQUIRED\n")

	return EmailPayload{
		Subject: "ACCIDENT REPORTED - Immediate Response Required",
		Body:    sb.String(),
	}
}

// OwnerSMS is the text message sent to the vehicle owner.
func OwnerSMS(e events.EmergencySignal, v *database.Vehicle) string {
	return fmt.Sprintf("EMERGENCY: Your vehicle %s reported %s. Location: %.6f, %.6f",
		v.LicensePlate, e.EmergencyType.DisplayName(), e.Latitude, e.Longitude)
}

// AlertEmail renders a rule alert for human recipients.
func AlertEmail(a events.Alert) EmailPayload {
	var sb strings.Builder
	sb.WriteString("Fleet Alert\n")
	sb.WriteString("===========\n\n")
	fmt.Fprintf(&sb, "Severity: %s\n", a.Severity)
	fmt.Fprintf(&sb, "Type: %s\n", a.AlertType)
	fmt.Fprintf(&sb, "Vehicle: %s\n", a.VehicleID)
	fmt.Fprintf(&sb, "Rule: %s\n", a.RuleID)
	fmt.Fprintf(&sb, "Location: %.6f, %.6f\n", a.Location.Latitude, a.Location.Longitude)
	fmt.Fprintf(&sb, "Time: %s\n", a.Timestamp.UTC().Format(timeLayout))
	fmt.Fprintf(&sb, "\n%s\n", a.Message)

	return EmailPayload{
		Subject: fmt.Sprintf("Alert: %s - %s (%s)", a.Severity, a.AlertType, a.VehicleID),
		Body:    sb.String(),
	}
}

// SlackPayload represents a Slack webhook payload.
type SlackPayload struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack message attachment.
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents a field in a Slack attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildSlackPayload builds a Slack webhook payload from the notification.
func BuildSlackPayload(n *database.Notification) SlackPayload {
	fields := []Field{
		{Title: "Severity", Value: n.Severity, Short: true},
		{Title: "Vehicle", Value: n.VehicleID, Short: true},
		{Title: "Rule", Value: n.RuleID, Short: true},
		{Title: "Notification ID", Value: n.NotificationID, Short: true},
	}

	return SlackPayload{
		Attachments: []Attachment{
			{
				Color:     severityColor(n.Severity),
				Title:     n.Subject,
				Text:      n.Message,
				Fields:    fields,
				Timestamp: n.CreatedAt.Unix(),
			},
		},
	}
}

func severityColor(severity string) string {
	switch strings.ToUpper(severity) {
	case "HIGH":
		return "danger"
	case "MEDIUM", "WARNING":
		return "warning"
	default:
		return "good"
	}
}

// WebhookPayload represents a generic webhook payload.
type WebhookPayload struct {
	NotificationID string `json:"notification_id"`
	VehicleID      string `json:"vehicle_id"`
	RuleID         string `json:"rule_id"`
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
}

// BuildWebhookPayload builds a webhook payload from the notification.
func BuildWebhookPayload(n *database.Notification) WebhookPayload {
	return WebhookPayload{
		NotificationID: n.NotificationID,
		VehicleID:      n.VehicleID,
		RuleID:         n.RuleID,
		Type:           n.Type,
		Severity:       n.Severity,
		Subject:        n.Subject,
		Message:        n.Message,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}
