// Package sensor holds the temperature/humidity drivers.
package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sensornode/internal/config"
	"sensornode/internal/logger"

	"github.com/goburrow/modbus"
)

const defaultScale = 0.1

// registerReader is the part of modbus.Client the sensor uses.
type registerReader interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

type dialFunc func() (registerReader, io.Closer, error)

// Modbus reads temperature and humidity from two input registers holding
// signed 16-bit values. It connects lazily and reconnects on the next Read
// after a transport error. Requests are serialized.
type Modbus struct {
	cfg  config.ModbusConfig
	dial dialFunc
	log  *logger.Logger

	mu     sync.Mutex
	client registerReader
	conn   io.Closer
}

func NewModbus(cfg config.ModbusConfig, log *logger.Logger) (*Modbus, error) {
	if cfg.Address == "" {
		return nil, errors.New("modbus sensor: address required")
	}
	if cfg.Scale == 0 {
		cfg.Scale = defaultScale
	}
	m := &Modbus{cfg: cfg, log: logger.OrNop(log).Named("modbus")}
	switch strings.ToLower(cfg.Mode) {
	case "", "tcp":
		m.dial = m.dialTCP
	case "rtu":
		m.dial = m.dialRTU
	default:
		return nil, fmt.Errorf("modbus sensor: unknown mode %q", cfg.Mode)
	}
	return m, nil
}

func (m *Modbus) dialTCP() (registerReader, io.Closer, error) {
	h := modbus.NewTCPClientHandler(m.cfg.Address)
	h.Timeout = m.cfg.Timeout
	h.SlaveId = m.cfg.SlaveID
	if err := h.Connect(); err != nil {
		return nil, nil, err
	}
	return modbus.NewClient(h), h, nil
}

func (m *Modbus) dialRTU() (registerReader, io.Closer, error) {
	h := modbus.NewRTUClientHandler(m.cfg.Address)
	if m.cfg.BaudRate > 0 {
		h.BaudRate = m.cfg.BaudRate
	}
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = m.cfg.SlaveID
	h.Timeout = m.cfg.Timeout
	if h.Timeout <= 0 {
		h.Timeout = time.Second
	}
	if err := h.Connect(); err != nil {
		return nil, nil, err
	}
	return modbus.NewClient(h), h, nil
}

// Read returns temperature (°C) and humidity (%RH).
func (m *Modbus) Read(ctx context.Context) (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if m.client == nil {
		client, conn, err := m.dial()
		if err != nil {
			return 0, 0, fmt.Errorf("modbus connect %s: %w", m.cfg.Address, err)
		}
		m.client, m.conn = client, conn
		m.log.Infow("modbus_connected", "address", m.cfg.Address, "slave_id", m.cfg.SlaveID)
	}

	temp, err := m.register(m.cfg.TemperatureRegister)
	if err != nil {
		m.reset()
		return 0, 0, fmt.Errorf("read temperature register %d: %w", m.cfg.TemperatureRegister, err)
	}
	hum, err := m.register(m.cfg.HumidityRegister)
	if err != nil {
		m.reset()
		return 0, 0, fmt.Errorf("read humidity register %d: %w", m.cfg.HumidityRegister, err)
	}
	return temp, hum, nil
}

func (m *Modbus) register(addr uint16) (float64, error) {
	b, err := m.client.ReadInputRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	if len(b) < 2 {
		return 0, fmt.Errorf("short response: %d bytes", len(b))
	}
	raw := int16(binary.BigEndian.Uint16(b[:2]))
	return float64(raw) * m.cfg.Scale, nil
}

// reset drops the connection so the next Read dials again.
func (m *Modbus) reset() {
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Debugw("modbus_close_failed", "err", err)
		}
	}
	m.client, m.conn = nil, nil
}

func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}
