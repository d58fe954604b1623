package session

import (
	"io"
	"sync"
	"time"

	"turbine-daq/errcode"
)

// Link publishes framed messages over a byte stream such as a UART. The
// stream has no handshake, so the link counts as connected until a write
// fails, and then again once RetryAfter has passed.
type Link struct {
	// RetryAfter defaults to one second.
	RetryAfter time.Duration

	mu        sync.Mutex
	w         io.Writer
	buf       []byte
	downSince time.Time
	down      bool
}

func NewLink(w io.Writer) *Link {
	return &Link{w: w, buf: make([]byte, 0, 4096)}
}

func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.upLocked()
}

func (l *Link) upLocked() bool {
	if !l.down {
		return true
	}
	retry := l.RetryAfter
	if retry <= 0 {
		retry = time.Second
	}
	return time.Since(l.downSince) >= retry
}

func (l *Link) Publish(topic string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.upLocked() {
		return errcode.TransportDown
	}
	b, err := AppendPub(l.buf[:0], topic, payload)
	if err != nil {
		return err
	}
	l.buf = b[:0]
	if _, err := l.w.Write(b); err != nil {
		l.down, l.downSince = true, time.Now()
		return errcode.New(errcode.TransportDown, "link.Publish", "", err)
	}
	l.down = false
	return nil
}

// Ping writes a keepalive frame.
func (l *Link) Ping() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, _ := AppendFrame(l.buf[:0], Frame{Type: FramePing})
	_, err := l.w.Write(b)
	return err
}
