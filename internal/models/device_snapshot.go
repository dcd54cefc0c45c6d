package models

import "time"

// DeviceSnapshot is the latest journaled view of the device, kept for the
// debug console only. The control loop never reads it back.
type DeviceSnapshot struct {
	ID                  int         `json:"id"`
	State               DeviceState `json:"state"`
	BootCount           int         `json:"boot_count"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	LastReading         *Reading    `json:"last_reading,omitempty"`
	LastStatus          int         `json:"last_status,omitempty"` // collector HTTP status of the last transmit
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Operator is the debug console account.
type Operator struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // bcrypt
}
