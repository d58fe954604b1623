// Package daq brings the sensors up, classifies start-up faults and wires
// rings, channels, the scheduler, the processing task and the monitor into
// a runnable System.
package daq

import (
	"context"
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"turbine-daq/bus"
	"turbine-daq/drivers/adt7420"
	"turbine-daq/drivers/adxl355"
	"turbine-daq/drivers/scl3300"
	"turbine-daq/errcode"
	"turbine-daq/services/acquisition"
	"turbine-daq/services/config"
	"turbine-daq/services/monitor"
	"turbine-daq/services/processing"
	"turbine-daq/services/session"
	"turbine-daq/types"
	"turbine-daq/x/conv"
	"turbine-daq/x/logx"
	"turbine-daq/x/ring"
)

var ErrNotFitted = errors.New("daq: sensor not fitted")

// Hardware is what a board provides. The two SPI devices share one bus and
// differ by chip select.
type Hardware struct {
	AccelSPI drivers.SPI
	InclSPI  drivers.SPI
	TempI2C  drivers.I2C // nil when not fitted
	Timer    acquisition.Timer
	// Micros is an optional free-running µs counter for tick timing.
	Micros func() uint32
	// Sleep is used for sensor start-up delays. Default time.Sleep.
	Sleep func(time.Duration)
}

// Identity is what each sensor reported at start-up.
type Identity struct {
	Accel  adxl355.Identity
	Incl   scl3300.Report
	TempID uint8
}

type System struct {
	cfg  *config.Config
	sess session.Session
	conn *bus.Connection

	Identity    Identity
	InclEnabled bool
	TempEnabled bool
	Scheduler   *acquisition.Scheduler
	Task        *processing.Task
	Monitor     *monitor.Service
}

const (
	spiBus = "spi0"
	i2cBus = "i2c0"
)

// Setup configures the sensors and builds the pipeline. A required sensor
// that never answers yields an *errcode.E with code InitFailed; an optional
// one is disabled and its field stays null. conn may be nil, in which case
// there is no monitor and configuration is not announced on the bus.
func Setup(cfg *config.Config, hw Hardware, sess session.Session, conn *bus.Connection) (*System, error) {
	const op = "daq.Setup"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hw.AccelSPI == nil || hw.Timer == nil || sess == nil {
		return nil, errcode.New(errcode.InvalidConfig, op, "accelerometer bus, timer and session are required", nil)
	}
	if hw.Sleep == nil {
		hw.Sleep = time.Sleep
	}
	s := &System{cfg: cfg, sess: sess, conn: conn}

	// Fast sensor: always required.
	accel := adxl355.New(hw.AccelSPI)
	id, err := accel.Configure(adxl355.Config{Range: accelRange(cfg.Accel.RangeG)})
	if err != nil {
		return nil, errcode.New(errcode.InitFailed, op, "accel", err)
	}
	s.Identity.Accel = id
	if !id.Match() {
		warnIdentity("adxl355", logx.Hex("devid", uint32(id.DevID)), logx.Hex("partid", uint32(id.PartID)))
	}

	// Medium sensor.
	var incl *scl3300.Device
	if hw.InclSPI != nil {
		incl = scl3300.New(hw.InclSPI)
		rep, err := incl.Configure(scl3300.Config{
			Mode:   cfg.Incl.Mode,
			Output: inclOutput(cfg.Incl.Output),
			Sleep:  hw.Sleep,
		})
		switch {
		case err != nil && cfg.Incl.Required:
			return nil, errcode.New(errcode.InitFailed, op, "incl", err)
		case err != nil:
			logx.Warn("inclinometer disabled", logx.Err(err))
			incl = nil
		default:
			s.Identity.Incl = rep
			if !rep.IdentityOK() {
				warnIdentity("scl3300", logx.Hex("whoami", uint32(rep.WhoAmI)))
			}
			if !rep.StatusOK() {
				logx.Warn("inclinometer status abnormal", logx.Hex("rs", uint32(rep.ReturnStatus)), logx.Hex("status", uint32(rep.Status)))
			}
		}
	} else if cfg.Incl.Required {
		return nil, errcode.New(errcode.InitFailed, op, "incl", ErrNotFitted)
	}

	// Slow sensor.
	var temp *adt7420.Device
	if hw.TempI2C != nil {
		temp = adt7420.New(hw.TempI2C)
		tid, err := temp.Configure(adt7420.Config{})
		switch {
		case err != nil && cfg.Temp.Required:
			return nil, errcode.New(errcode.InitFailed, op, "temp", err)
		case err != nil:
			logx.Warn("temperature sensor disabled", logx.Err(err))
			temp = nil
		default:
			s.Identity.TempID = tid
			if tid != adt7420.ID {
				warnIdentity("adt7420", logx.Hex("id", uint32(tid)))
			}
		}
	} else if cfg.Temp.Required {
		return nil, errcode.New(errcode.InitFailed, op, "temp", ErrNotFitted)
	}
	s.InclEnabled, s.TempEnabled = incl != nil, temp != nil

	// Rings and channels.
	var in processing.Inputs
	ap, ac := ring.New[types.Raw3](cfg.Accel.Capacity)
	in.Accel = ac
	chans := []*acquisition.Channel{
		acquisition.Bind3(channelSpec("accel", spiBus, cfg.Accel.ChannelConfig), accel.Sample, ap, ac),
	}
	pcfg := processing.Config{
		Period:         cfg.Processing.Period,
		BatchSize:      cfg.Processing.BatchSize,
		DataTopic:      cfg.Publish.DataTopic,
		Decimate:       cfg.Processing.Decimate,
		AccelLSB:       accel.LSB(),
		TempLSB:        adt7420.LSB,
		InclStaleAfter: cfg.Processing.InclStaleAfter,
		TempStaleAfter: cfg.Processing.TempStaleAfter,
		TempInterval:   cfg.Processing.TempInterval,
	}
	if incl != nil {
		ip, ic := ring.New[types.Raw3](cfg.Incl.Capacity)
		in.Incl = ic
		pcfg.InclLSB = incl.LSB()
		chans = append(chans, acquisition.Bind3(channelSpec("incl", spiBus, cfg.Incl.ChannelConfig), incl.Sample, ip, ic))
	}
	if temp != nil {
		if cfg.Temp.Source == config.TempTick {
			tp, tc := ring.New[types.Raw1](cfg.Temp.Capacity)
			in.Temp = tc
			chans = append(chans, acquisition.Bind1(channelSpec("temp", i2cBus, cfg.Temp.ChannelConfig), temp.ReadRaw, tp, tc))
		} else {
			in.TempReader = temp
		}
	}

	sched, err := acquisition.New(acquisition.Config{BaseHz: cfg.Acquisition.BaseHz, Micros: hw.Micros}, hw.Timer, chans...)
	if err != nil {
		return nil, err
	}
	task, err := processing.New(pcfg, in, sched, sess)
	if err != nil {
		return nil, err
	}
	s.Scheduler, s.Task = sched, task

	if conn != nil {
		s.Monitor = monitor.New(conn, sched, task)
		config.Publish(conn, cfg)
	}
	return s, nil
}

// Run publishes the online status, starts the monitor and the tick timer
// and processes until ctx is done. The timer is stopped on return; samples
// still in the rings are left there.
func (s *System) Run(ctx context.Context) error {
	if err := session.PublishStatus(s.sess, s.cfg.Publish.StatusTopic, s.OnlineStatus()); err != nil {
		logx.Warn("status not published", logx.Err(err))
	}
	if s.Monitor != nil {
		if err := s.Monitor.Start(ctx, s.cfg.Monitor.Interval); err != nil {
			return err
		}
	}
	if p, ok := s.sess.(Pinger); ok && s.cfg.Link.Keepalive > 0 {
		go keepalive(ctx, p, s.cfg.Link.Keepalive)
	}
	if err := s.Scheduler.Start(); err != nil {
		return errcode.New(errcode.InitFailed, "daq.Run", "timer", err)
	}
	logx.Info("acquisition started",
		logx.F("base_hz", s.cfg.Acquisition.BaseHz),
		logx.F("incl", s.InclEnabled),
		logx.F("temp", s.TempEnabled),
	)
	err := s.Task.Run(ctx)
	if serr := s.Scheduler.Stop(); serr != nil && err == nil {
		err = serr
	}
	logx.Info("acquisition stopped", logx.F("ticks", s.Scheduler.Ticks()))
	return err
}

// Pinger is a session that can send a keepalive, such as session.Link.
type Pinger interface {
	Ping() error
}

func keepalive(ctx context.Context, p Pinger, every time.Duration) {
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if err := p.Ping(); err != nil {
				logx.Debug("keepalive failed", logx.Err(err))
			}
		}
	}
}

// Stats returns the combined counters.
func (s *System) Stats() monitor.Snapshot {
	return monitor.Snapshot{Acquisition: s.Scheduler.Stats(), Processing: s.Task.Stats()}
}

// OnlineStatus is the status line published at start.
func (s *System) OnlineStatus() string {
	var buf [10]byte
	st := "online base_hz=" + string(conv.Utoa(buf[:], uint64(s.cfg.Acquisition.BaseHz)))
	if !s.InclEnabled {
		st += " incl=off"
	}
	if !s.TempEnabled {
		st += " temp=off"
	} else {
		st += " temp=" + s.cfg.Temp.Source
	}
	return st
}

// FatalStatus is the status line for an error that stops the system.
func FatalStatus(err error) string {
	if e, ok := err.(*errcode.E); ok {
		st := "fatal: " + string(e.C)
		if e.Msg != "" {
			st += ": " + e.Msg
		}
		if e.Err != nil {
			st += ": " + e.Err.Error()
		}
		return st
	}
	return "fatal: " + string(errcode.Of(err)) + ": " + err.Error()
}

// ReportFatal logs err and publishes its status line, best effort.
func ReportFatal(sess session.Session, topic string, err error) {
	logx.Error("fatal", logx.F("code", string(errcode.Of(err))), logx.Err(err))
	if sess != nil {
		_ = session.PublishStatus(sess, topic, FatalStatus(err))
	}
}

func warnIdentity(sensor string, fs ...logx.Field) {
	fs = append([]logx.Field{logx.F("sensor", sensor), logx.F("code", string(errcode.IdentityMismatch))}, fs...)
	logx.Warn("identity mismatch", fs...)
}

func channelSpec(name, bus string, c config.ChannelConfig) acquisition.ChannelSpec {
	return acquisition.ChannelSpec{Name: name, Bus: bus, RateHz: c.RateHz, Offset: c.Offset}
}

func accelRange(g int) adxl355.Range {
	switch g {
	case 4:
		return adxl355.Range4G
	case 8:
		return adxl355.Range8G
	default:
		return adxl355.Range2G
	}
}

func inclOutput(s string) scl3300.Output {
	if s == config.OutputAcceleration {
		return scl3300.OutputAcceleration
	}
	return scl3300.OutputAngle
}
