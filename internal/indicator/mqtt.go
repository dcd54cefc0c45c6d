package indicator

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sensornode/internal/config"
	"sensornode/internal/logger"
	"sensornode/internal/models"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 2 * time.Second

// mqttClient is the subset of pahomqtt.Client the mirror uses.
type mqttClient interface {
	Connect() pahomqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// MQTT mirrors the indicator onto a broker as a retained JSON message on
// <prefix>/<device>/indicator, with online/offline availability on
// <prefix>/<device>/status.
type MQTT struct {
	cfg      config.MQTTConfig
	deviceID string
	client   mqttClient
	log      *logger.Logger
}

func NewMQTT(cfg config.MQTTConfig, deviceID string, log *logger.Logger) *MQTT {
	m := &MQTT{cfg: cfg, deviceID: deviceID, log: logger.OrNop(log).Named("mqtt")}
	availTopic := m.topic("status")

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(fmt.Sprintf("sensornode-%s", deviceID)).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(availTopic, "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			m.log.Infow("mqtt_connected", "broker", cfg.Broker)
			m.publish(availTopic, "online")
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			m.log.Warnw("mqtt_connection_lost", "err", err)
		})
	m.client = pahomqtt.NewClient(opts)
	return m
}

// Start begins connecting. With connect-retry enabled the broker does not
// have to be reachable yet; the token only fails on bad options.
func (m *MQTT) Start() error {
	token := m.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		m.log.Infow("mqtt_connect_pending", "broker", m.cfg.Broker)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (m *MQTT) Stop() {
	if m.client.IsConnected() {
		m.publish(m.topic("status"), "offline")
	}
	m.client.Disconnect(1000)
}

func (m *MQTT) SetPattern(p models.IndicatorPattern) error {
	if !m.client.IsConnected() {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return m.publish(m.topic("indicator"), payload)
}

func (m *MQTT) topic(suffix string) string {
	return fmt.Sprintf("%s/%s/%s", m.cfg.TopicPrefix, m.deviceID, suffix)
}

func (m *MQTT) publish(topic string, payload interface{}) error {
	token := m.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.log.Warnw("mqtt_publish_timeout", "topic", topic)
		return errors.New("mqtt publish timed out")
	}
	if err := token.Error(); err != nil {
		m.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
		return err
	}
	return nil
}
