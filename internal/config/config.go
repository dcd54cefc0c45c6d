package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. SENSORNODE_NETWORK_PASSWORD.
const envPrefix = "SENSORNODE"

// Restart modes.
const (
	RestartReboot = "reboot" // re-enter Starting in-process
	RestartExit   = "exit"   // exit non-zero and let the init system restart us
)

// Config is the full node configuration.
type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	Network   NetworkConfig   `mapstructure:"network"`
	Sampling  SamplingConfig  `mapstructure:"sampling"`
	Sensor    SensorConfig    `mapstructure:"sensor"`
	Collector CollectorConfig `mapstructure:"collector"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Debug     DebugConfig     `mapstructure:"debug"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
}

type DeviceConfig struct {
	ID           string        `mapstructure:"id"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
	RestartDelay time.Duration `mapstructure:"restart_delay"`
	RestartMode  string        `mapstructure:"restart_mode"`
}

type NetworkConfig struct {
	Driver       string           `mapstructure:"driver"` // probe | sim
	SSID         string           `mapstructure:"ssid"`
	Password     string           `mapstructure:"password"`
	ProbeAddress string           `mapstructure:"probe_address"`
	ProbeTimeout time.Duration    `mapstructure:"probe_timeout"`
	PollInterval time.Duration    `mapstructure:"poll_interval"`
	MaxAttempts  int              `mapstructure:"max_attempts"`
	Sim          NetworkSimConfig `mapstructure:"sim"`
}

type NetworkSimConfig struct {
	ConnectAfter int `mapstructure:"connect_after"` // failed polls before the link comes up
}

type SamplingConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
}

type SensorConfig struct {
	Driver      string          `mapstructure:"driver"` // sim | modbus
	MinInterval time.Duration   `mapstructure:"min_interval"`
	Modbus      ModbusConfig    `mapstructure:"modbus"`
	Sim         SensorSimConfig `mapstructure:"sim"`
}

type ModbusConfig struct {
	Mode                string        `mapstructure:"mode"`    // tcp | rtu
	Address             string        `mapstructure:"address"` // host:port or serial device
	SlaveID             uint8         `mapstructure:"slave_id"`
	BaudRate            int           `mapstructure:"baud_rate"`
	Timeout             time.Duration `mapstructure:"timeout"`
	TemperatureRegister uint16        `mapstructure:"temperature_register"`
	HumidityRegister    uint16        `mapstructure:"humidity_register"`
	Scale               float64       `mapstructure:"scale"`
}

type SensorSimConfig struct {
	AmbientC    float64 `mapstructure:"ambient_c"`
	HumidityPct float64 `mapstructure:"humidity_pct"`
	Noise       float64 `mapstructure:"noise"`
	FailureRate float64 `mapstructure:"failure_rate"`
}

type CollectorConfig struct {
	ReadingsURL string        `mapstructure:"readings_url"`
	LogURL      string        `mapstructure:"log_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Auth        AuthConfig    `mapstructure:"auth"`
}

type AuthConfig struct {
	Mode   string        `mapstructure:"mode"` // static | jwt
	Token  string        `mapstructure:"token"`
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type IndicatorConfig struct {
	BlinkOn  time.Duration `mapstructure:"blink_on"`
	BlinkOff time.Duration `mapstructure:"blink_off"`
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type DebugConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            string        `mapstructure:"port"`
	Operator        string        `mapstructure:"operator"`
	PasswordHash    string        `mapstructure:"password_hash"`
	SigningKey      string        `mapstructure:"signing_key"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	RateBurst       int           `mapstructure:"rate_burst"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// defaults is applied before the file and env are read. Every key the node
// understands is listed here so env overrides reach Unmarshal.
var defaults = map[string]any{
	"device.id":            "sensornode-01",
	"device.startup_delay": 5 * time.Second,
	"device.restart_delay": 2 * time.Second,
	"device.restart_mode":  RestartReboot,

	"network.driver":            "probe",
	"network.ssid":              "",
	"network.password":          "",
	"network.probe_address":     "",
	"network.probe_timeout":     2 * time.Second,
	"network.poll_interval":     time.Second,
	"network.max_attempts":      10,
	"network.sim.connect_after": 0,

	"sampling.interval":          30 * time.Second,
	"sampling.failure_threshold": 3,

	"sensor.driver":                      "sim",
	"sensor.min_interval":                2 * time.Second,
	"sensor.modbus.mode":                 "tcp",
	"sensor.modbus.address":              "",
	"sensor.modbus.slave_id":             1,
	"sensor.modbus.baud_rate":            9600,
	"sensor.modbus.timeout":              time.Second,
	"sensor.modbus.temperature_register": 1,
	"sensor.modbus.humidity_register":    2,
	"sensor.modbus.scale":                0.1,
	"sensor.sim.ambient_c":               21.0,
	"sensor.sim.humidity_pct":            45.0,
	"sensor.sim.noise":                   0.2,
	"sensor.sim.failure_rate":            0.0,

	"collector.readings_url": "",
	"collector.log_url":      "",
	"collector.timeout":      10 * time.Second,
	"collector.auth.mode":    "static",
	"collector.auth.token":   "",
	"collector.auth.secret":  "",
	"collector.auth.ttl":     5 * time.Minute,

	"indicator.blink_on":          500 * time.Millisecond,
	"indicator.blink_off":         500 * time.Millisecond,
	"indicator.mqtt.enabled":      false,
	"indicator.mqtt.broker":       "",
	"indicator.mqtt.username":     "",
	"indicator.mqtt.password":     "",
	"indicator.mqtt.topic_prefix": "sensornode",

	"debug.enabled":            true,
	"debug.port":               "8080",
	"debug.operator":           "operator",
	"debug.password_hash":      "",
	"debug.signing_key":        "",
	"debug.token_ttl":          time.Hour,
	"debug.rate_limit_per_sec": 5.0,
	"debug.rate_burst":         10,
	"debug.cache_ttl":          2 * time.Second,

	"db.path":   "sensornode.db",
	"log.level": "info",
}

// Load reads configuration from path (or configs/config.yml when path is
// empty), overlays SENSORNODE_* environment variables and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// no file: defaults + env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
