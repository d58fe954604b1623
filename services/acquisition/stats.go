package acquisition

type ChannelStats struct {
	Name      string `json:"name"`
	Sampled   uint32 `json:"sampled"`
	BusErrors uint32 `json:"bus_errors"`
	Overflow  uint32 `json:"overflow"`
	Buffered  int    `json:"buffered"`
}

type Stats struct {
	Ticks         uint32         `json:"ticks"`
	MaxTickMicros uint32         `json:"max_tick_us"`
	Acquired      uint32         `json:"acquired"`
	Dropped       uint32         `json:"dropped"`
	BusErrors     uint32         `json:"bus_errors"`
	Channels      []ChannelStats `json:"channels"`
}

// Stats returns a snapshot. Counters are read individually, so a snapshot
// taken while running may straddle a tick.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Ticks:         s.tick.Load(),
		MaxTickMicros: s.maxTick.Load(),
		Channels:      make([]ChannelStats, 0, len(s.chans)),
	}
	for _, c := range s.chans {
		cs := c.Stats()
		st.Acquired += cs.Sampled
		st.Dropped += cs.Overflow
		st.BusErrors += cs.BusErrors
		st.Channels = append(st.Channels, cs)
	}
	return st
}

// ResetStats zeroes the counters. Ring contents and the tick counter are
// left alone.
func (s *Scheduler) ResetStats() {
	s.maxTick.Store(0)
	for _, c := range s.chans {
		c.reset()
	}
}
