// Package config holds the startup configuration of the acquisition
// system. Every value is fixed once Setup has run.
package config

import (
	"time"

	"turbine-daq/bus"
	"turbine-daq/errcode"
	"turbine-daq/services/acquisition"
	"turbine-daq/services/session"
	"turbine-daq/x/mathx"
	"turbine-daq/x/ring"
)

// Temperature sources.
const (
	TempOutOfBand = "oob"  // read by the processing task
	TempTick      = "tick" // sampled by the tick interrupt
)

// Inclinometer outputs.
const (
	OutputAngle        = "angle"
	OutputAcceleration = "accel"
)

const configPrefix = "config"

type Config struct {
	Acquisition AcquisitionConfig  `yaml:"acquisition"`
	Accel       AccelConfig        `yaml:"accel"`
	Incl        InclConfig         `yaml:"incl"`
	Temp        TempConfig         `yaml:"temp"`
	Processing  ProcessingConfig   `yaml:"processing"`
	Publish     PublishConfig      `yaml:"publish"`
	Monitor     MonitorConfig      `yaml:"monitor"`
	Link        LinkConfig         `yaml:"link"`
	MQTT        session.MQTTConfig `yaml:"mqtt"`
	Log         LogConfig          `yaml:"log"`
}

type AcquisitionConfig struct {
	BaseHz uint32 `yaml:"base_hz"`
}

// ChannelConfig is the part every sampled sensor shares.
type ChannelConfig struct {
	RateHz   uint32 `yaml:"rate_hz"`
	Offset   uint32 `yaml:"offset"`   // stagger, in ticks
	Capacity int    `yaml:"capacity"` // ring slots, power of two
}

// AccelConfig is the fast sensor. It cannot be disabled.
type AccelConfig struct {
	ChannelConfig `yaml:",inline"`
	RangeG        int `yaml:"range_g"` // 2, 4 or 8
}

type InclConfig struct {
	ChannelConfig `yaml:",inline"`
	Mode          uint8  `yaml:"mode"`     // 1..4
	Output        string `yaml:"output"`   // angle | accel
	Required      bool   `yaml:"required"` // init failure is fatal
}

type TempConfig struct {
	ChannelConfig `yaml:",inline"`
	Source        string `yaml:"source"`   // oob | tick
	Required      bool   `yaml:"required"` // init failure is fatal
}

type ProcessingConfig struct {
	Period         time.Duration `yaml:"period"`
	BatchSize      int           `yaml:"batch_size"`
	Decimate       int           `yaml:"decimate"`
	InclStaleAfter time.Duration `yaml:"incl_stale_after"`
	TempStaleAfter time.Duration `yaml:"temp_stale_after"`
	TempInterval   time.Duration `yaml:"temp_interval"`
}

type PublishConfig struct {
	DataTopic   string `yaml:"data_topic"`
	StatusTopic string `yaml:"status_topic"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LinkConfig is the serial uplink between the board and the bridge.
type LinkConfig struct {
	Baud       uint32        `yaml:"baud"`
	RetryAfter time.Duration `yaml:"retry_after"`
	// Keepalive is the ping period while the link is idle or busy.
	Keepalive time.Duration `yaml:"keepalive"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the stock board configuration: 8 kHz base tick, 1 kHz
// accelerometer, 20 Hz inclinometer on the same SPI bus one tick later, and
// a 1 Hz temperature read out of band.
func Default() *Config {
	return &Config{
		Acquisition: AcquisitionConfig{BaseHz: 8000},
		Accel: AccelConfig{
			ChannelConfig: ChannelConfig{RateHz: 1000, Offset: 0, Capacity: 4096},
			RangeG:        2,
		},
		Incl: InclConfig{
			ChannelConfig: ChannelConfig{RateHz: 20, Offset: 1, Capacity: 128},
			Mode:          1,
			Output:        OutputAngle,
			Required:      true,
		},
		Temp: TempConfig{
			ChannelConfig: ChannelConfig{RateHz: 1, Offset: 2, Capacity: 16},
			Source:        TempOutOfBand,
			Required:      true,
		},
		Processing: ProcessingConfig{
			Period:         50 * time.Millisecond,
			BatchSize:      100,
			Decimate:       1,
			InclStaleAfter: 150 * time.Millisecond,
			TempStaleAfter: 3 * time.Second,
			TempInterval:   time.Second,
		},
		Publish: PublishConfig{
			DataTopic:   "wind_turbine/data",
			StatusTopic: "wind_turbine/status",
		},
		Monitor: MonitorConfig{Interval: 10 * time.Second},
		Link:    LinkConfig{Baud: 115200, RetryAfter: time.Second, Keepalive: 5 * time.Second},
		MQTT: session.MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "turbine-daq",
			Timeout:  2 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// ensureDefaults fills zero values left by a partial file.
func (c *Config) ensureDefaults() {
	d := Default()
	if c.Acquisition.BaseHz == 0 {
		c.Acquisition.BaseHz = d.Acquisition.BaseHz
	}
	fillChannel(&c.Accel.ChannelConfig, d.Accel.ChannelConfig)
	fillChannel(&c.Incl.ChannelConfig, d.Incl.ChannelConfig)
	fillChannel(&c.Temp.ChannelConfig, d.Temp.ChannelConfig)
	if c.Accel.RangeG == 0 {
		c.Accel.RangeG = d.Accel.RangeG
	}
	if c.Incl.Mode == 0 {
		c.Incl.Mode = d.Incl.Mode
	}
	if c.Incl.Output == "" {
		c.Incl.Output = d.Incl.Output
	}
	if c.Temp.Source == "" {
		c.Temp.Source = d.Temp.Source
	}

	p, dp := &c.Processing, d.Processing
	if p.Period <= 0 {
		p.Period = dp.Period
	}
	if p.BatchSize == 0 {
		p.BatchSize = dp.BatchSize
	}
	if p.Decimate == 0 {
		p.Decimate = dp.Decimate
	}
	if p.InclStaleAfter <= 0 {
		p.InclStaleAfter = 3 * p.Period
	}
	if p.TempInterval <= 0 {
		p.TempInterval = dp.TempInterval
	}
	if p.TempStaleAfter <= 0 {
		p.TempStaleAfter = 3 * p.TempInterval
	}

	if c.Publish.DataTopic == "" {
		c.Publish.DataTopic = d.Publish.DataTopic
	}
	if c.Publish.StatusTopic == "" {
		c.Publish.StatusTopic = d.Publish.StatusTopic
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = d.Monitor.Interval
	}
	if c.Link.Baud == 0 {
		c.Link.Baud = d.Link.Baud
	}
	if c.Link.RetryAfter <= 0 {
		c.Link.RetryAfter = d.Link.RetryAfter
	}
	if c.Link.Keepalive <= 0 {
		c.Link.Keepalive = d.Link.Keepalive
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.MQTT.Timeout <= 0 {
		c.MQTT.Timeout = d.MQTT.Timeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func fillChannel(c *ChannelConfig, d ChannelConfig) {
	if c.RateHz == 0 {
		c.RateHz = d.RateHz
	}
	if c.Capacity == 0 {
		c.Capacity = d.Capacity
	}
}

// Validate checks the configuration against what the scheduler and the
// processing task can honour. It returns an *errcode.E.
func (c *Config) Validate() error {
	const op = "config.Validate"
	invalid := func(msg string) error { return errcode.New(errcode.InvalidConfig, op, msg, nil) }

	base := c.Acquisition.BaseHz
	if base == 0 {
		return invalid("acquisition.base_hz must be positive")
	}
	if c.Processing.Period <= 0 {
		return invalid("processing.period must be positive")
	}
	periodMs := uint32(c.Processing.Period / time.Millisecond)

	chans := []struct {
		name string
		ch   ChannelConfig
		used bool
	}{
		{"accel", c.Accel.ChannelConfig, true},
		{"incl", c.Incl.ChannelConfig, true},
		{"temp", c.Temp.ChannelConfig, c.Temp.Source == TempTick},
	}
	for _, x := range chans {
		if !x.used {
			continue
		}
		ch := x.ch
		if ch.RateHz == 0 || ch.RateHz > base || !mathx.Divides(base, ch.RateHz) {
			return invalid(x.name + ".rate_hz must divide acquisition.base_hz")
		}
		if ch.Offset >= base/ch.RateHz {
			return invalid(x.name + ".offset must be below the rate divisor")
		}
		if ch.Capacity < 2 || !mathx.IsPow2(uint32(ch.Capacity)) {
			return invalid(x.name + ".capacity must be a power of two")
		}
		if ch.Capacity < ring.CapacityFor(ch.RateHz, periodMs) {
			return invalid(x.name + ".capacity cannot hold one processing period")
		}
	}

	// accel and incl share the SPI bus
	da, di := base/c.Accel.RateHz, base/c.Incl.RateHz
	if acquisition.Collide(da, c.Accel.Offset, di, c.Incl.Offset) {
		return errcode.New(errcode.BusConflict, op, "accel and incl fire on the same tick", nil)
	}

	switch c.Accel.RangeG {
	case 2, 4, 8:
	default:
		return invalid("accel.range_g must be 2, 4 or 8")
	}
	if c.Incl.Mode < 1 || c.Incl.Mode > 4 {
		return invalid("incl.mode must be 1..4")
	}
	if c.Incl.Output != OutputAngle && c.Incl.Output != OutputAcceleration {
		return invalid("incl.output must be angle or accel")
	}
	if c.Temp.Source != TempOutOfBand && c.Temp.Source != TempTick {
		return invalid("temp.source must be oob or tick")
	}

	p := c.Processing
	if p.BatchSize < 1 {
		return invalid("processing.batch_size must be at least 1")
	}
	if p.Decimate < 1 {
		return invalid("processing.decimate must be at least 1")
	}
	if p.InclStaleAfter <= 0 || p.TempStaleAfter <= 0 || p.TempInterval <= 0 {
		return invalid("processing staleness thresholds must be positive")
	}
	if c.Publish.DataTopic == "" {
		return invalid("publish.data_topic is empty")
	}
	return nil
}

// Publish announces each section as a retained message under config/<name>
// so that services started later can pick up their part.
func Publish(conn *bus.Connection, c *Config) {
	for _, s := range []struct {
		name string
		v    any
	}{
		{"acquisition", c.Acquisition},
		{"accel", c.Accel},
		{"incl", c.Incl},
		{"temp", c.Temp},
		{"processing", c.Processing},
		{"publish", c.Publish},
		{"monitor", c.Monitor},
		{"link", c.Link},
	} {
		conn.Publish(conn.NewMessage(bus.Topic{configPrefix, s.name}, s.v, true))
	}
}
