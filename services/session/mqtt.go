//go:build !tinygo

package session

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"turbine-daq/errcode"
	"turbine-daq/x/logx"
)

// MQTT publishes to a broker. The client reconnects on its own; while it is
// down IsConnected is false and callers drop.
type MQTT struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
}

// DialMQTT starts connecting and waits up to cfg.Timeout for the first
// connection. Not being connected yet is not an error.
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errcode.New(errcode.InvalidConfig, "session.DialMQTT", "broker not set", nil)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "turbine-daq"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.Timeout).
		SetOnConnectHandler(func(mqtt.Client) {
			logx.Info("mqtt connected", logx.F("broker", cfg.Broker))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logx.Warn("mqtt connection lost", logx.Err(err))
		})

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if tok.WaitTimeout(cfg.Timeout) && tok.Error() != nil {
		return nil, errcode.New(errcode.TransportDown, "session.DialMQTT", cfg.Broker, tok.Error())
	}
	return &MQTT{client: c, qos: cfg.QoS, timeout: cfg.Timeout}, nil
}

func (m *MQTT) IsConnected() bool { return m.client.IsConnectionOpen() }

func (m *MQTT) Publish(topic string, payload []byte) error {
	// paho keeps the slice until the packet is written
	p := append([]byte(nil), payload...)
	tok := m.client.Publish(topic, m.qos, false, p)
	if !tok.WaitTimeout(m.timeout) {
		return errcode.New(errcode.Timeout, "mqtt.Publish", topic, nil)
	}
	if err := tok.Error(); err != nil {
		return errcode.New(errcode.TransportDown, "mqtt.Publish", topic, err)
	}
	return nil
}

func (m *MQTT) Close() { m.client.Disconnect(250) }
