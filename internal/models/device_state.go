package models

import (
	"encoding/json"
	"fmt"
)

// DeviceState is the single operating state the node is in at any instant.
type DeviceState int

const (
	StateStarting DeviceState = iota
	StateConnectingNetwork
	StateNetworkConnected
	StateReportingOK
	StateReportingFailed
	StateHalted
	StateUnexpectedFault
)

var deviceStateNames = [...]string{
	StateStarting:          "STARTING",
	StateConnectingNetwork: "CONNECTING_NETWORK",
	StateNetworkConnected:  "NETWORK_CONNECTED",
	StateReportingOK:       "REPORTING_OK",
	StateReportingFailed:   "REPORTING_FAILED",
	StateHalted:            "HALTED",
	StateUnexpectedFault:   "UNEXPECTED_FAULT",
}

// AllDeviceStates lists every state in declaration order.
func AllDeviceStates() []DeviceState {
	return []DeviceState{
		StateStarting,
		StateConnectingNetwork,
		StateNetworkConnected,
		StateReportingOK,
		StateReportingFailed,
		StateHalted,
		StateUnexpectedFault,
	}
}

func (s DeviceState) String() string {
	if s < 0 || int(s) >= len(deviceStateNames) {
		return fmt.Sprintf("DeviceState(%d)", int(s))
	}
	return deviceStateNames[s]
}

// Valid reports whether s is one of the declared states.
func (s DeviceState) Valid() bool {
	return s >= StateStarting && s <= StateUnexpectedFault
}

// ParseDeviceState is the inverse of String.
func ParseDeviceState(name string) (DeviceState, error) {
	for i, n := range deviceStateNames {
		if n == name {
			return DeviceState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown device state %q", name)
}

func (s DeviceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DeviceState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseDeviceState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
