package service

import (
	"context"

	"sensornode/internal/models"
	"sensornode/internal/repository"
)

// Indicator is the visual output device. SetPattern replaces whatever is
// currently shown.
type Indicator interface {
	SetPattern(p models.IndicatorPattern) error
}

// NetworkStack is the platform networking layer. Connect starts (or restarts)
// a join attempt; Connected polls the link.
type NetworkStack interface {
	Connect(ctx context.Context, creds models.Credentials) error
	Connected(ctx context.Context) bool
}

// Sensor returns one temperature (°C) and humidity (%RH) measurement.
type Sensor interface {
	Read(ctx context.Context) (temperature, humidity float64, err error)
}

// Transmitter sends a reading to the collector and returns the HTTP status.
type Transmitter interface {
	Transmit(ctx context.Context, r models.Reading) (int, error)
}

// LogSink accepts plain-text fault reports.
type LogSink interface {
	PostLog(ctx context.Context, message string) (int, error)
}

// Monitoring exposes the live device state to the debug console.
type Monitoring interface {
	GetState(ctx context.Context) (DeviceStatus, error)
}

// EventLog exposes the append-only journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Authorization guards the debug console.
type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Console lets an operator hold the node inside its startup window.
type Console interface {
	Hold() error
	Release()
	WindowOpen() bool
	Held() bool
}

type Service struct {
	Monitoring
	EventLog
	Authorization
	Console
}

// Deps carries the runtime pieces the debug console reads from.
type Deps struct {
	Repos    *repository.Repository
	Live     StateSource
	Gate     *StartupGate
	Patterns PatternTable
	Auth     *AuthService
}

func NewService(d Deps) *Service {
	return &Service{
		Monitoring:    NewMonitoringService(d.Repos.StateRepo, d.Live, d.Gate, d.Patterns),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Authorization: d.Auth,
		Console:       d.Gate,
	}
}
