// Package monitor periodically reports acquisition and processing counters
// on the log and as a retained bus message, and warns when rings start
// overflowing.
package monitor

import (
	"context"
	"time"

	"turbine-daq/bus"
	"turbine-daq/errcode"
	"turbine-daq/services/acquisition"
	"turbine-daq/services/config"
	"turbine-daq/services/processing"
	"turbine-daq/x/logx"
)

var (
	TopicStats       = bus.Topic{"daq", "stats"}
	TopicStatsReset  = bus.Topic{"daq", "stats", "reset"}
	topicConfigWatch = bus.Topic{"config", "monitor"}
)

type AcquisitionSource interface {
	Stats() acquisition.Stats
	ResetStats()
}

type ProcessingSource interface {
	Stats() processing.Stats
	ResetStats()
}

// Snapshot is the payload published on daq/stats.
type Snapshot struct {
	Acquisition acquisition.Stats `json:"acquisition"`
	Processing  processing.Stats  `json:"processing"`
}

type Service struct {
	conn *bus.Connection
	acq  AcquisitionSource
	proc ProcessingSource

	lastOverflow  map[string]uint32 // per channel
	lastBusErrors uint32
	lastFailures  uint32
}

func New(conn *bus.Connection, acq AcquisitionSource, proc ProcessingSource) *Service {
	return &Service{conn: conn, acq: acq, proc: proc, lastOverflow: make(map[string]uint32)}
}

// Start runs the report loop until ctx is done.
func (s *Service) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go s.serviceLoop(ctx, interval)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, interval time.Duration) {
	cfgSub := s.conn.Subscribe(topicConfigWatch)
	defer cfgSub.Unsubscribe()
	resetSub := s.conn.Subscribe(TopicStatsReset)
	defer resetSub.Unsubscribe()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("monitor stopping")
			return
		case <-tick.C:
			s.Report()
		case <-resetSub.Channel():
			s.Reset()
		case msg := <-cfgSub.Channel():
			if mc, ok := msg.Payload.(config.MonitorConfig); ok {
				if d := mc.Interval; d > 0 && d != interval {
					interval = d
					tick.Reset(d)
					logx.Info("monitor interval set", logx.F("interval", d))
				}
			}
		}
	}
}

// Report takes a snapshot, logs it, publishes it retained and returns it.
func (s *Service) Report() Snapshot {
	snap := Snapshot{Acquisition: s.acq.Stats(), Processing: s.proc.Stats()}
	a, p := snap.Acquisition, snap.Processing

	logx.Info("daq stats",
		logx.F("ticks", a.Ticks),
		logx.F("acquired", a.Acquired),
		logx.F("published", p.SamplesPublished),
		logx.F("packets", p.PacketsSent),
		logx.F("dropped", p.SamplesDropped),
		logx.F("max_tick_us", a.MaxTickMicros),
	)
	for _, c := range a.Channels {
		if last := s.lastOverflow[c.Name]; c.Overflow > last {
			logx.Warn("ring overflow",
				logx.F("code", string(errcode.Overflow)),
				logx.F("channel", c.Name),
				logx.F("new", c.Overflow-last),
				logx.F("overflow", c.Overflow),
				logx.F("buffered", c.Buffered),
			)
		}
		s.lastOverflow[c.Name] = c.Overflow
	}
	if a.BusErrors > s.lastBusErrors {
		logx.Warn("bus errors",
			logx.F("code", string(errcode.BusFault)),
			logx.F("new", a.BusErrors-s.lastBusErrors),
			logx.F("total", a.BusErrors),
		)
	}
	if p.PublishFailures > s.lastFailures {
		logx.Warn("publish failures", logx.F("new", p.PublishFailures-s.lastFailures))
	}
	s.lastBusErrors, s.lastFailures = a.BusErrors, p.PublishFailures

	s.conn.Publish(s.conn.NewMessage(TopicStats, snap, true))
	return snap
}

// Reset zeroes both counter sets.
func (s *Service) Reset() {
	s.acq.ResetStats()
	s.proc.ResetStats()
	clear(s.lastOverflow)
	s.lastBusErrors, s.lastFailures = 0, 0
	logx.Info("stats reset")
}
