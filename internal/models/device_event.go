package models

import "time"

// Event types written to the journal.
const (
	EventBoot        = "BOOT"
	EventStateChange = "STATE_CHANGE"
	EventReading     = "READING"
	EventRestart     = "RESTART"
	EventHalt        = "HALT"
	EventFault       = "FAULT"
)

// DeviceEvent is a single journal entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // BOOT | STATE_CHANGE | READING | RESTART | HALT | FAULT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
