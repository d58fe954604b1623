// Package session is the publishing boundary: whatever carries records off
// the device implements Session. Publishing is fire-and-forget; a session
// that is down or fails a publish costs the caller that payload and nothing
// more.
package session

import (
	"time"

	"turbine-daq/errcode"
)

// Session is an established outbound transport.
type Session interface {
	IsConnected() bool
	// Publish sends payload on topic. The caller may reuse payload as soon
	// as Publish returns.
	Publish(topic string, payload []byte) error
}

// PublishStatus sends a free-text status line.
func PublishStatus(s Session, topic, status string) error {
	if s == nil || !s.IsConnected() {
		return errcode.TransportDown
	}
	return s.Publish(topic, []byte(status))
}

// MQTTConfig configures the host broker session.
type MQTTConfig struct {
	Broker   string        `yaml:"broker" mapstructure:"broker"`
	ClientID string        `yaml:"client_id" mapstructure:"client_id"`
	Username string        `yaml:"username" mapstructure:"username"`
	Password string        `yaml:"password" mapstructure:"password"`
	QoS      byte          `yaml:"qos" mapstructure:"qos"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}
