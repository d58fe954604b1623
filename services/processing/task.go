// Package processing is the task-context half of acquisition: it drains
// the sample rings on a fixed period, converts to physical units, batches
// the fast sensor, decides which slower readings are still valid and hands
// finished records to the session.
package processing

import (
	"context"
	"time"

	"turbine-daq/errcode"
	"turbine-daq/record"
	"turbine-daq/services/session"
	"turbine-daq/types"
	"turbine-daq/x/logx"
	"turbine-daq/x/ring"
	"turbine-daq/x/timex"
)

// Clock is the acquisition time base.
type Clock interface {
	Now() uint32
	TickMicros(tick uint32) uint32
}

// TempReader reads the temperature sensor directly from task context.
type TempReader interface {
	ReadRaw() (int32, error)
}

type Config struct {
	Period    time.Duration // default 50 ms
	BatchSize int           // default 100
	DataTopic string

	// Decimate keeps every Nth fast sample. Default 1 keeps all.
	Decimate int

	AccelLSB float32
	InclLSB  float32
	TempLSB  float32

	InclStaleAfter time.Duration // default 3 periods
	TempStaleAfter time.Duration // default 3 read intervals
	TempInterval   time.Duration // out-of-band read period, default 1 s
}

// Inputs are the task's sources. Accel is required. Temperature comes either
// from a ring (Temp) or from direct reads (TempReader), never both.
type Inputs struct {
	Accel      *ring.Consumer[types.Raw3]
	Incl       *ring.Consumer[types.Raw3]
	Temp       *ring.Consumer[types.Raw1]
	TempReader TempReader
}

type Task struct {
	cfg   Config
	in    Inputs
	clock Clock
	sess  session.Session

	incl Field[[3]float32]
	temp Field[float32]

	batch      [][3]float32
	batchStart uint32
	seen       uint32 // fast samples drained, for decimation
	rec        record.Record
	out        []byte

	tempInterval uint32
	lastTempRead uint32
	tempRead     bool
	dropping     bool

	cnt counters
}

func (c *Config) ensureDefaults() {
	if c.Period <= 0 {
		c.Period = 50 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Decimate <= 0 {
		c.Decimate = 1
	}
	if c.DataTopic == "" {
		c.DataTopic = "wind_turbine/data"
	}
	if c.TempInterval <= 0 {
		c.TempInterval = time.Second
	}
	if c.InclStaleAfter <= 0 {
		c.InclStaleAfter = 3 * c.Period
	}
	if c.TempStaleAfter <= 0 {
		c.TempStaleAfter = 3 * c.TempInterval
	}
}

// New builds a Task. All buffers are allocated here.
func New(cfg Config, in Inputs, clock Clock, sess session.Session) (*Task, error) {
	const op = "processing.New"
	if in.Accel == nil || clock == nil || sess == nil {
		return nil, errcode.New(errcode.InvalidConfig, op, "accel ring, clock and session are required", nil)
	}
	if in.Temp != nil && in.TempReader != nil {
		return nil, errcode.New(errcode.InvalidConfig, op, "temperature has two sources", nil)
	}
	cfg.ensureDefaults()
	return &Task{
		cfg:          cfg,
		in:           in,
		clock:        clock,
		sess:         sess,
		incl:         NewField[[3]float32](timex.Micros(cfg.InclStaleAfter)),
		temp:         NewField[float32](timex.Micros(cfg.TempStaleAfter)),
		batch:        make([][3]float32, 0, cfg.BatchSize),
		out:          make([]byte, 0, record.Size(cfg.BatchSize)),
		tempInterval: timex.Micros(cfg.TempInterval),
	}, nil
}

// Run calls Cycle every Period until ctx is done. A cycle that takes longer
// than the period is counted as an overrun; the next one simply starts late.
func (t *Task) Run(ctx context.Context) error {
	tk := time.NewTicker(t.cfg.Period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			start := time.Now()
			t.Cycle()
			if time.Since(start) > t.cfg.Period {
				t.cnt.overruns.Add(1)
			}
		}
	}
}

// Cycle runs one processing pass.
func (t *Task) Cycle() {
	now := t.clock.Now()
	t.cnt.cycles.Add(1)

	if t.in.Incl != nil {
		t.drainIncl()
		if !t.incl.Obtained() {
			t.cnt.inclEmpty.Add(1)
		}
	}
	switch {
	case t.in.Temp != nil:
		t.drainTemp()
	case t.in.TempReader != nil:
		t.readTemp(now)
	}
	t.drainAccel(now)
}

func (t *Task) drainIncl() {
	t.incl.Clear()
	for v, ok := t.in.Incl.TryRead(); ok; v, ok = t.in.Incl.TryRead() {
		e := v.Scale(t.cfg.InclLSB, t.clock.TickMicros(v.Tick))
		t.incl.Set(e.V, e.Micros)
	}
}

func (t *Task) drainTemp() {
	t.temp.Clear()
	for v, ok := t.in.Temp.TryRead(); ok; v, ok = t.in.Temp.TryRead() {
		e := v.Scale(t.cfg.TempLSB, t.clock.TickMicros(v.Tick))
		t.temp.Set(e.V, e.Micros)
	}
}

func (t *Task) readTemp(now uint32) {
	if t.tempRead && timex.Elapsed(now, t.lastTempRead) < t.tempInterval {
		return
	}
	t.tempRead, t.lastTempRead = true, now
	raw, err := t.in.TempReader.ReadRaw()
	if err != nil {
		t.temp.Fail()
		t.cnt.tempReadErrors.Add(1)
		logx.Warn("temperature read failed", logx.Err(err))
		return
	}
	e := types.Raw1{V: raw}.Scale(t.cfg.TempLSB, now)
	t.temp.Set(e.V, e.Micros)
}

func (t *Task) drainAccel(now uint32) {
	for v, ok := t.in.Accel.TryRead(); ok; v, ok = t.in.Accel.TryRead() {
		t.seen++
		if t.cfg.Decimate > 1 && (t.seen-1)%uint32(t.cfg.Decimate) != 0 {
			continue
		}
		e := v.Scale(t.cfg.AccelLSB, t.clock.TickMicros(v.Tick))
		if len(t.batch) == 0 {
			t.batchStart = e.Micros
		}
		t.batch = append(t.batch, e.V)
		if len(t.batch) == t.cfg.BatchSize {
			t.emit(now)
		}
	}
}

// emit closes the current batch and publishes it, or drops it.
func (t *Task) emit(now uint32) {
	r := &t.rec
	r.T = t.batchStart
	r.Accel = t.batch
	r.Incl, r.InclValid = t.incl.Value(now)
	r.Temp, r.TempValid = t.temp.Value(now)
	if !r.InclValid {
		t.cnt.staleIncl.Add(1)
	}
	if !r.TempValid {
		t.cnt.staleTemp.Add(1)
	}
	n := uint32(len(t.batch))
	t.batch = t.batch[:0]

	if !t.sess.IsConnected() {
		t.drop(n, errcode.TransportDown)
		return
	}
	t.out = record.AppendJSON(t.out[:0], r)
	if err := t.sess.Publish(t.cfg.DataTopic, t.out); err != nil {
		t.cnt.publishFails.Add(1)
		t.drop(n, err)
		return
	}
	t.cnt.published.Add(n)
	t.cnt.packets.Add(1)
	if t.dropping {
		t.dropping = false
		logx.Info("publishing resumed", logx.F("dropped_total", t.cnt.dropped.Load()))
	}
}

func (t *Task) drop(n uint32, err error) {
	t.cnt.dropped.Add(n)
	if !t.dropping {
		t.dropping = true
		logx.Warn("dropping records", logx.F("code", string(errcode.Of(err))), logx.Err(err))
	}
}
