// Package bridge runs on the host end of the board's serial uplink. It
// reads publish frames from the link and forwards each one to an upstream
// session, typically an MQTT broker.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"turbine-daq/bus"
	"turbine-daq/services/session"
	"turbine-daq/types"
	"turbine-daq/x/logx"
)

var (
	TopicState  = bus.Topic{"bridge", "state"}
	TopicConfig = bus.Topic{"config", "bridge"}
)

// Start runs the bridge until ctx is cancelled. It waits for a Config on
// config/bridge and (re)opens the link whenever a new one arrives.
func Start(ctx context.Context, conn *bus.Connection, up session.Session) *Service {
	s := New(conn, up)
	go s.run(ctx)
	return s
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config may be published on config/bridge as a Config value, or as JSON.
type Config struct {
	Transport TransportConfig `json:"transport" mapstructure:"transport"`
	// Prefix is prepended to every forwarded topic.
	Prefix string `json:"prefix,omitempty" mapstructure:"prefix"`
	// PingMS is the link heartbeat period. Zero means 5 s.
	PingMS int `json:"ping_ms,omitempty" mapstructure:"ping_ms"`
	// Re-dial delays double from RetryMinMS up to RetryMaxMS and start over
	// once a link is up. Zero means 250 ms and 5 s.
	RetryMinMS int `json:"retry_min_ms,omitempty" mapstructure:"retry_min_ms"`
	RetryMaxMS int `json:"retry_max_ms,omitempty" mapstructure:"retry_max_ms"`
}

func (c Config) retryBounds() (lo, hi time.Duration) {
	lo, hi = 250*time.Millisecond, 5*time.Second
	if c.RetryMinMS > 0 {
		lo = time.Duration(c.RetryMinMS) * time.Millisecond
	}
	if c.RetryMaxMS > 0 {
		hi = time.Duration(c.RetryMaxMS) * time.Millisecond
	}
	return lo, hi
}

type TransportConfig struct {
	// "serial", or a name registered via RegisterTransport.
	Type   string        `json:"type" mapstructure:"type"`
	Serial *SerialConfig `json:"serial,omitempty" mapstructure:"serial"`
}

type SerialConfig struct {
	Port string `json:"port" mapstructure:"port"`
	Baud int    `json:"baud" mapstructure:"baud"`
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

// Stats counts forwarded traffic since start.
type Stats struct {
	Frames    uint32 `json:"frames"`
	Forwarded uint32 `json:"forwarded"`
	Dropped   uint32 `json:"dropped"`
	Malformed uint32 `json:"malformed"`
}

type Service struct {
	conn *bus.Connection
	up   session.Session

	mu     sync.Mutex
	curRun context.CancelFunc

	frames    atomic.Uint32
	forwarded atomic.Uint32
	dropped   atomic.Uint32
	malformed atomic.Uint32
}

func New(conn *bus.Connection, up session.Session) *Service {
	return &Service{conn: conn, up: up}
}

func (s *Service) Stats() Stats {
	return Stats{
		Frames:    s.frames.Load(),
		Forwarded: s.forwarded.Load(),
		Dropped:   s.dropped.Load(),
		Malformed: s.malformed.Load(),
	}
}

// run waits for config and supervises a single link.
func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	defer cfgSub.Unsubscribe()

	s.publishState(types.LinkIdle, "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState(types.LinkError, "config_subscription_closed", nil)
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishState(types.LinkError, "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, cfg)
}

// -----------------------------------------------------------------------------
// Link supervision and I/O
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := newTransport(cfg.Transport)
	if err != nil {
		s.publishState(types.LinkError, "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(cfg.retryBounds())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState(types.LinkDegraded, "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState(types.LinkUp, "link_established", nil)
		backoff = backoffSeq(cfg.retryBounds())
		err = s.handleLink(ctx, rwc, cfg)
		_ = rwc.Close()
		if ctx.Err() != nil {
			return
		}
		// The board closing the link is a reboot as far as we are concerned.
		if err == nil {
			err = errLinkClosed
		}
		delay := backoff()
		s.publishState(types.LinkDegraded, "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return
		}
	}
}

var errLinkClosed = errors.New("bridge: link closed by peer")

// handleLink owns the active link lifetime.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser, cfg Config) error {
	rd := session.NewFrameReader(rwc)
	var wmu sync.Mutex
	send := func(typ byte) error {
		wmu.Lock()
		defer wmu.Unlock()
		return writeFrame(rwc, typ)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			s.frames.Add(1)
			switch f.Type {
			case session.FramePub:
				s.forward(cfg.Prefix, f.Payload)
			case session.FramePing:
				if err := send(session.FramePong); err != nil {
					errCh <- err
					return
				}
			case session.FrameClose:
				return
			}
		}
	}()

	ping := time.Duration(cfg.PingMS) * time.Millisecond
	if ping <= 0 {
		ping = 5 * time.Second
	}
	tick := time.NewTicker(ping)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = send(session.FrameClose)
			return nil
		case err := <-errCh:
			return err
		case <-tick.C:
			if err := send(session.FramePing); err != nil {
				return err
			}
		}
	}
}

func (s *Service) forward(prefix string, p []byte) {
	topic, data, err := session.SplitPub(p)
	if err != nil {
		s.malformed.Add(1)
		return
	}
	if prefix != "" {
		topic = prefix + "/" + topic
	}
	if s.up == nil || !s.up.IsConnected() {
		s.dropped.Add(1)
		return
	}
	if err := s.up.Publish(topic, data); err != nil {
		s.dropped.Add(1)
		logx.Warn("forward failed", logx.F("topic", topic), logx.Err(err))
		return
	}
	s.forwarded.Add(1)
}

func writeFrame(w io.Writer, typ byte) error {
	var buf [3]byte
	b, _ := session.AppendFrame(buf[:0], session.Frame{Type: typ})
	_, err := w.Write(b)
	return err
}

// -----------------------------------------------------------------------------
// Transport registry
// -----------------------------------------------------------------------------

// Transport is a pluggable link dialler.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

type transportFactory func(TransportConfig) (Transport, error)

var (
	regMu     sync.RWMutex
	registry  = map[string]transportFactory{}
	errNoDial = errors.New("bridge: SerialDial not set")
)

// RegisterTransport allows other packages to add transports (eg. "tcp").
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Type {
	case "serial":
		return newSerialTransport(cfg)
	default:
		return nil, fmt.Errorf("unknown transport type: %q", cfg.Type)
	}
}

// SerialDial opens the configured serial port. Host builds default to
// go.bug.st/serial; tests replace it.
var SerialDial func(ctx context.Context, c SerialConfig) (io.ReadWriteCloser, error)

type serialTransport struct {
	cfg SerialConfig
}

func newSerialTransport(cfg TransportConfig) (Transport, error) {
	if cfg.Serial == nil || cfg.Serial.Port == "" {
		return nil, errors.New("serial transport requires a port")
	}
	c := *cfg.Serial
	if c.Baud <= 0 {
		c.Baud = 115200
	}
	return &serialTransport{cfg: c}, nil
}

func (t *serialTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if SerialDial == nil {
		return nil, errNoDial
	}
	return SerialDial(ctx, t.cfg)
}

func (t *serialTransport) String() string { return "serial:" + t.cfg.Port }

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func decodeConfig(p any) (Config, error) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		return v, nil
	case *Config:
		if v == nil {
			return cfg, errors.New("nil config")
		}
		return *v, nil
	case []byte:
		err := json.Unmarshal(v, &cfg)
		return cfg, err
	case string:
		err := json.Unmarshal([]byte(v), &cfg)
		return cfg, err
	default:
		return cfg, fmt.Errorf("unsupported config payload type: %T", p)
	}
}

func (s *Service) publishState(link types.Link, status string, err error) {
	st := types.LinkState{Link: link, Status: status, TS: time.Now().UnixMilli()}
	if err != nil {
		st.Error = err.Error()
		logx.Warn("bridge "+status, logx.F("link", string(link)), logx.Err(err))
	} else {
		logx.Info("bridge "+status, logx.F("link", string(link)))
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	var cur = min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
