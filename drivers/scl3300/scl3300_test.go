package scl3300

import (
	"errors"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

// fakeSPI replies to each frame with the answer to the previous one.
type fakeSPI struct {
	data    map[uint32]uint16
	rs      uint8
	prev    uint32
	primed  bool
	sent    []uint32
	mute    bool // MISO stuck low
	corrupt bool
}

var _ drivers.SPI = (*fakeSPI)(nil)

func newFake() *fakeSPI {
	return &fakeSPI{
		rs: RSNormal,
		data: map[uint32]uint16{
			CmdReadStatus: 0x0000,
			CmdWhoAmI:     WhoAmI,
			CmdReadAngX:   1000,
			CmdReadAngY:   0xFC18, // -1000
			CmdReadAngZ:   0,
			CmdReadAccX:   6000,
		},
	}
}

func (f *fakeSPI) Tx(w, r []byte) error {
	cmd := uint32(w[0])<<24 | uint32(w[1])<<16 | uint32(w[2])<<8 | uint32(w[3])
	f.sent = append(f.sent, cmd)
	var resp uint32
	switch {
	case f.mute:
		resp = 0
	case f.primed:
		resp = Response(f.rs, f.data[f.prev])
		if f.corrupt {
			resp ^= 0x01
		}
	default:
		resp = Response(RSStartup, 0)
	}
	r[0], r[1], r[2], r[3] = byte(resp>>24), byte(resp>>16), byte(resp>>8), byte(resp)
	f.prev, f.primed = cmd, true
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) { return 0, nil }

func noSleep(time.Duration) {}

func TestCRCOfCommandWords(t *testing.T) {
	cmds := []uint32{CmdReadAccX, CmdReadAccY, CmdReadAccZ, CmdReadStatus, CmdReadAngX,
		CmdReadAngY, CmdReadAngZ, CmdWhoAmI, CmdSWReset, CmdEnableAng,
		modeCmd[1], modeCmd[2], modeCmd[3], modeCmd[4]}
	for _, c := range cmds {
		if !Frame(c).CRCValid() {
			t.Fatalf("bad crc in %#08x (want %#02x)", c, CRC8(c))
		}
	}
}

func TestReadUsesSecondResponse(t *testing.T) {
	f := newFake()
	f.data[CmdWhoAmI] = 0xC1
	d := New(f)

	// A stale previous command must not leak into the result.
	f.prev, f.primed = CmdReadAngX, true

	v, err := d.ReadRegister(CmdWhoAmI)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if v != 0xC1 {
		t.Fatalf("got %#x want 0xC1", v)
	}
	if len(f.sent) != 2 || f.sent[0] != CmdWhoAmI || f.sent[1] != CmdWhoAmI {
		t.Fatalf("expected prime+fetch of WHOAMI, sent %x", f.sent)
	}
}

func TestConfigureSequence(t *testing.T) {
	f := newFake()
	var slept []time.Duration
	d := New(f)
	rep, err := d.Configure(Config{Sleep: func(dt time.Duration) { slept = append(slept, dt) }})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	want := []uint32{
		CmdSWReset, modeCmd[1], CmdEnableAng,
		CmdReadStatus, CmdReadStatus, CmdReadStatus,
		CmdReadStatus, CmdReadStatus,
		CmdWhoAmI, CmdWhoAmI,
	}
	if len(f.sent) != len(want) {
		t.Fatalf("sent %x want %x", f.sent, want)
	}
	for i := range want {
		if f.sent[i] != want[i] {
			t.Fatalf("frame %d: sent %#08x want %#08x", i, f.sent[i], want[i])
		}
	}
	if len(slept) != 3 || slept[0] != powerOnDelay || slept[1] != resetDelay || slept[2] != settleDelay {
		t.Fatalf("delays %v", slept)
	}
	if !rep.StatusOK() || !rep.IdentityOK() {
		t.Fatalf("report %+v", rep)
	}
}

func TestConfigureWhoAmIMismatchIsSoft(t *testing.T) {
	f := newFake()
	f.data[CmdWhoAmI] = 0xC2
	rep, err := New(f).Configure(Config{Sleep: noSleep})
	if err != nil {
		t.Fatalf("mismatch must not fail: %v", err)
	}
	if rep.IdentityOK() || rep.WhoAmI != 0xC2 {
		t.Fatalf("report %+v", rep)
	}
}

func TestConfigureAbnormalStatusIsSoft(t *testing.T) {
	f := newFake()
	f.rs = RSError
	rep, err := New(f).Configure(Config{Sleep: noSleep})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if rep.StatusOK() {
		t.Fatal("expected abnormal status")
	}
}

func TestConfigureNoResponse(t *testing.T) {
	f := newFake()
	f.mute = true
	if _, err := New(f).Configure(Config{Sleep: noSleep}); !errors.Is(err, ErrNoResponse) {
		t.Fatalf("err=%v", err)
	}
}

func TestConfigureRejectsMode(t *testing.T) {
	if _, err := New(newFake()).Configure(Config{Mode: 5, Sleep: noSleep}); !errors.Is(err, ErrMode) {
		t.Fatalf("err=%v", err)
	}
}

func TestSampleAngles(t *testing.T) {
	f := newFake()
	d := New(f)
	got, err := d.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got != [3]int32{1000, -1000, 0} {
		t.Fatalf("got %v", got)
	}
	if len(f.sent) != 6 {
		t.Fatalf("expected 6 frames, sent %d", len(f.sent))
	}
	if d.LSB() != AngleLSB {
		t.Fatal("angle LSB")
	}
}

func TestSampleAcceleration(t *testing.T) {
	f := newFake()
	d := New(f)
	if _, err := d.Configure(Config{Output: OutputAcceleration, Sleep: noSleep}); err != nil {
		t.Fatal(err)
	}
	got, err := d.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if g := float32(got[0]) * d.LSB(); got[0] != 6000 || g < 0.9999 || g > 1.0001 {
		t.Fatalf("got %v lsb %v", got, d.LSB())
	}
}

func TestSampleRejectsCorruptFrame(t *testing.T) {
	f := newFake()
	f.corrupt = true
	if _, err := New(f).Sample(); !errors.Is(err, ErrCRC) {
		t.Fatalf("err=%v", err)
	}
}
