package config

import (
	"errors"
	"fmt"
	"net/url"
)

// minCoarseness is how many sensor minimum intervals one sampling interval
// must span at least.
const minCoarseness = 5

// Validate checks semantic constraints the decoder cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.ID == "" {
		errs = append(errs, errors.New("device.id is required"))
	}
	if c.Device.StartupDelay < 0 {
		errs = append(errs, errors.New("device.startup_delay must be >= 0"))
	}
	switch c.Device.RestartMode {
	case RestartReboot, RestartExit:
	default:
		errs = append(errs, fmt.Errorf("device.restart_mode %q: want %q or %q", c.Device.RestartMode, RestartReboot, RestartExit))
	}

	switch c.Network.Driver {
	case "probe":
		if c.Network.ProbeAddress == "" {
			errs = append(errs, errors.New("network.probe_address is required for the probe driver"))
		}
	case "sim":
	default:
		errs = append(errs, fmt.Errorf("network.driver %q: want probe or sim", c.Network.Driver))
	}
	if c.Network.SSID == "" {
		errs = append(errs, errors.New("network.ssid is required"))
	}
	if c.Network.PollInterval <= 0 {
		errs = append(errs, errors.New("network.poll_interval must be > 0"))
	}
	if c.Network.MaxAttempts <= 0 {
		errs = append(errs, errors.New("network.max_attempts must be > 0"))
	}

	if c.Sampling.FailureThreshold <= 0 {
		errs = append(errs, errors.New("sampling.failure_threshold must be > 0"))
	}
	if c.Sampling.Interval <= 0 {
		errs = append(errs, errors.New("sampling.interval must be > 0"))
	} else if c.Sampling.Interval < minCoarseness*c.Sensor.MinInterval {
		errs = append(errs, fmt.Errorf("sampling.interval %s must be at least %dx sensor.min_interval %s",
			c.Sampling.Interval, minCoarseness, c.Sensor.MinInterval))
	}

	switch c.Sensor.Driver {
	case "sim":
	case "modbus":
		if c.Sensor.Modbus.Address == "" {
			errs = append(errs, errors.New("sensor.modbus.address is required"))
		}
		if c.Sensor.Modbus.Mode != "tcp" && c.Sensor.Modbus.Mode != "rtu" {
			errs = append(errs, fmt.Errorf("sensor.modbus.mode %q: want tcp or rtu", c.Sensor.Modbus.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("sensor.driver %q: want sim or modbus", c.Sensor.Driver))
	}

	if err := requireURL("collector.readings_url", c.Collector.ReadingsURL); err != nil {
		errs = append(errs, err)
	}
	if err := requireURL("collector.log_url", c.Collector.LogURL); err != nil {
		errs = append(errs, err)
	}
	switch c.Collector.Auth.Mode {
	case "static":
	case "jwt":
		if c.Collector.Auth.Secret == "" {
			errs = append(errs, errors.New("collector.auth.secret is required for jwt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("collector.auth.mode %q: want static or jwt", c.Collector.Auth.Mode))
	}

	if c.Indicator.MQTT.Enabled && c.Indicator.MQTT.Broker == "" {
		errs = append(errs, errors.New("indicator.mqtt.broker is required when mqtt is enabled"))
	}

	if c.Debug.Enabled && c.Debug.SigningKey == "" {
		errs = append(errs, errors.New("debug.signing_key is required when the debug console is enabled"))
	}

	return errors.Join(errs...)
}

func requireURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute URL", key, raw)
	}
	return nil
}
