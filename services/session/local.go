package session

import (
	"sync/atomic"

	"turbine-daq/bus"
	"turbine-daq/errcode"
)

// Local publishes onto the in-process bus. Payloads are delivered as
// []byte copies. Connectivity can be toggled to exercise the drop path.
type Local struct {
	conn *bus.Connection
	down atomic.Bool
}

func NewLocal(conn *bus.Connection) *Local { return &Local{conn: conn} }

func (l *Local) SetConnected(up bool) { l.down.Store(!up) }

func (l *Local) IsConnected() bool { return !l.down.Load() }

func (l *Local) Publish(topic string, payload []byte) error {
	if l.down.Load() {
		return errcode.TransportDown
	}
	p := append([]byte(nil), payload...)
	l.conn.Publish(l.conn.NewMessage(bus.ParseTopic(topic), p, false))
	return nil
}
