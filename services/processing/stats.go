package processing

import "sync/atomic"

type counters struct {
	cycles         atomic.Uint32
	overruns       atomic.Uint32
	published      atomic.Uint32 // samples
	packets        atomic.Uint32
	dropped        atomic.Uint32 // samples
	publishFails   atomic.Uint32
	tempReadErrors atomic.Uint32
	inclEmpty      atomic.Uint32
	staleIncl      atomic.Uint32
	staleTemp      atomic.Uint32
}

// Stats is a snapshot of the task counters.
type Stats struct {
	Cycles           uint32 `json:"cycles"`
	Overruns         uint32 `json:"overruns"`
	SamplesPublished uint32 `json:"samples_published"`
	PacketsSent      uint32 `json:"packets_sent"`
	SamplesDropped   uint32 `json:"samples_dropped"`
	PublishFailures  uint32 `json:"publish_failures"`
	TempReadErrors   uint32 `json:"temp_read_errors"`
	InclEmptyCycles  uint32 `json:"incl_empty_cycles"`
	InclNullRecords  uint32 `json:"incl_null_records"`
	TempNullRecords  uint32 `json:"temp_null_records"`
}

func (t *Task) Stats() Stats {
	c := &t.cnt
	return Stats{
		Cycles:           c.cycles.Load(),
		Overruns:         c.overruns.Load(),
		SamplesPublished: c.published.Load(),
		PacketsSent:      c.packets.Load(),
		SamplesDropped:   c.dropped.Load(),
		PublishFailures:  c.publishFails.Load(),
		TempReadErrors:   c.tempReadErrors.Load(),
		InclEmptyCycles:  c.inclEmpty.Load(),
		InclNullRecords:  c.staleIncl.Load(),
		TempNullRecords:  c.staleTemp.Load(),
	}
}

// ResetStats zeroes every counter.
func (t *Task) ResetStats() {
	c := &t.cnt
	for _, v := range []*atomic.Uint32{
		&c.cycles, &c.overruns, &c.published, &c.packets, &c.dropped,
		&c.publishFails, &c.tempReadErrors, &c.inclEmpty, &c.staleIncl, &c.staleTemp,
	} {
		v.Store(0)
	}
}
