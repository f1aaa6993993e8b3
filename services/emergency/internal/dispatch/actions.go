// Package dispatch runs the response actions for an emergency in parallel.
package dispatch

import (
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// Action is a response dispatched for an emergency.
type Action int

const (
	ActionNotifyOwner               Action = 1
	ActionNotifyAuthorities         Action = 2
	ActionAlertRescue               Action = 3
	ActionLogEvent                  Action = 4
	ActionCallDriver                Action = 5
	ActionDispatchAssistance        Action = 6
	ActionAlertSecurity             Action = 7
	ActionDispatchEmergencyServices Action = 8
)

var actionNames = map[Action]string{
	ActionNotifyOwner:               "notify_owner",
	ActionNotifyAuthorities:         "notify_authorities",
	ActionAlertRescue:               "alert_rescue",
	ActionLogEvent:                  "log_event",
	ActionCallDriver:                "call_driver",
	ActionDispatchAssistance:        "dispatch_assistance",
	ActionAlertSecurity:             "alert_security",
	ActionDispatchEmergencyServices: "dispatch_emergency_services",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action_%d", int(a))
}

// Plan returns the actions for an emergency type. Unknown types get no actions.
func Plan(t events.EmergencyType) []Action {
	switch t {
	case events.EmergencyPanicButton:
		return []Action{ActionNotifyAuthorities, ActionNotifyOwner}
	case events.EmergencyMechanical:
		return []Action{ActionDispatchAssistance}
	case events.EmergencySecurity:
		return []Action{ActionAlertSecurity}
	case events.EmergencyAccident:
		return []Action{ActionDispatchEmergencyServices}
	case events.EmergencyTheft:
		return []Action{ActionNotifyAuthorities, ActionAlertSecurity, ActionNotifyOwner}
	case events.EmergencyUnplannedStop:
		return []Action{ActionNotifyOwner}
	default:
		return nil
	}
}
