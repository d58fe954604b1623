package session

import (
	"errors"
	"io"
)

// Link frames: [type][len hi][len lo][payload]. A publish payload is
// [topic len][topic][data].
const (
	FramePing  byte = 0x01
	FramePong  byte = 0x02
	FramePub   byte = 0x10
	FrameClose byte = 0x7f

	frameHeader  = 3
	MaxFrameSize = 0xFFFF
)

var (
	ErrFrameTooLarge = errors.New("session: frame too large")
	ErrTopicTooLong  = errors.New("session: topic too long")
	ErrBadPub        = errors.New("session: malformed publish frame")
)

type Frame struct {
	Type    byte
	Payload []byte
}

// AppendPub appends a complete publish frame to dst.
func AppendPub(dst []byte, topic string, data []byte) ([]byte, error) {
	if len(topic) > 0xFF {
		return dst, ErrTopicTooLong
	}
	n := 1 + len(topic) + len(data)
	if n > MaxFrameSize {
		return dst, ErrFrameTooLarge
	}
	dst = append(dst, FramePub, byte(n>>8), byte(n))
	dst = append(dst, byte(len(topic)))
	dst = append(dst, topic...)
	return append(dst, data...), nil
}

// AppendFrame appends a frame of any type.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if len(f.Payload) > MaxFrameSize {
		return dst, ErrFrameTooLarge
	}
	dst = append(dst, f.Type, byte(len(f.Payload)>>8), byte(len(f.Payload)))
	return append(dst, f.Payload...), nil
}

// SplitPub decodes a publish payload. data aliases p.
func SplitPub(p []byte) (topic string, data []byte, err error) {
	if len(p) < 1 || len(p) < 1+int(p[0]) {
		return "", nil, ErrBadPub
	}
	n := int(p[0])
	return string(p[1 : 1+n]), p[1+n:], nil
}

// FrameReader reads frames from a byte stream.
type FrameReader struct {
	r   io.Reader
	hdr [frameHeader]byte
	buf []byte
}

func NewFrameReader(r io.Reader) *FrameReader { return &FrameReader{r: r} }

// ReadFrame returns the next frame. The payload is valid until the next call.
func (fr *FrameReader) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
		return Frame{}, err
	}
	n := int(fr.hdr[1])<<8 | int(fr.hdr[2])
	if cap(fr.buf) < n {
		fr.buf = make([]byte, n)
	}
	buf := fr.buf[:n]
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		return Frame{}, err
	}
	return Frame{Type: fr.hdr[0], Payload: buf}, nil
}
