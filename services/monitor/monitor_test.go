//go:build !tinygo

package monitor

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turbine-daq/bus"
	"turbine-daq/services/acquisition"
	"turbine-daq/services/config"
	"turbine-daq/services/processing"
	"turbine-daq/x/logx"
)

type fakeAcq struct {
	st     acquisition.Stats
	resets atomic.Int32
}

func (f *fakeAcq) Stats() acquisition.Stats { return f.st }
func (f *fakeAcq) ResetStats()              { f.resets.Add(1) }

type fakeProc struct {
	st     processing.Stats
	resets atomic.Int32
}

func (f *fakeProc) Stats() processing.Stats { return f.st }
func (f *fakeProc) ResetStats()             { f.resets.Add(1) }

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	t.Cleanup(func() { logx.SetOutput(os.Stderr) })
	return &buf
}

func next(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestReportPublishesRetainedSnapshot(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor-test")
	acq := &fakeAcq{st: acquisition.Stats{Ticks: 8000, Acquired: 1020}}
	proc := &fakeProc{st: processing.Stats{SamplesPublished: 1000, PacketsSent: 10}}
	s := New(conn, acq, proc)
	captureLog(t)

	got := s.Report()
	assert.Equal(t, uint32(8000), got.Acquisition.Ticks)

	// subscribe after the fact: retained
	sub := conn.Subscribe(TopicStats)
	defer sub.Unsubscribe()
	m := next(t, sub)
	assert.True(t, m.Retained)
	snap, ok := m.Payload.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, uint32(10), snap.Processing.PacketsSent)
}

func TestOverflowWarnedOnIncreaseOnly(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor-test")
	acq := &fakeAcq{}
	s := New(conn, acq, &fakeProc{})
	buf := captureLog(t)

	acq.st = acquisition.Stats{Dropped: 5, Channels: []acquisition.ChannelStats{{Name: "accel", Overflow: 5}}}
	s.Report()
	assert.Equal(t, 1, strings.Count(buf.String(), "ring overflow"))

	buf.Reset()
	s.Report()
	assert.NotContains(t, buf.String(), "ring overflow", "unchanged counter")

	acq.st.Dropped, acq.st.Channels[0].Overflow = 9, 9
	acq.st.BusErrors = 2
	s.Report()
	out := buf.String()
	assert.Contains(t, out, "ring overflow")
	assert.Contains(t, out, "channel=accel")
	assert.Contains(t, out, "bus errors")
	assert.Contains(t, out, "code=overflow")
	assert.Contains(t, out, "code=bus_fault")
}

func TestOverflowWarnsOnlyChannelsThatAdvanced(t *testing.T) {
	conn := bus.NewBus(8).NewConnection("monitor-test")
	acq := &fakeAcq{st: acquisition.Stats{Dropped: 5, Channels: []acquisition.ChannelStats{
		{Name: "accel", Overflow: 5},
		{Name: "incl"},
	}}}
	s := New(conn, acq, &fakeProc{})
	buf := captureLog(t)
	s.Report()

	buf.Reset()
	acq.st.Dropped, acq.st.Channels[1].Overflow = 7, 2
	s.Report()
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "ring overflow"))
	assert.Contains(t, out, "channel=incl")
	assert.NotContains(t, out, "channel=accel")

	buf.Reset()
	s.Reset()
	s.Report()
	assert.Equal(t, 2, strings.Count(buf.String(), "ring overflow"), "after a reset every nonzero counter is new")
}

func TestResetViaBus(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor-test")
	acq, proc := &fakeAcq{}, &fakeProc{}
	captureLog(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, New(conn, acq, proc).Start(ctx, time.Hour))

	require.Eventually(t, func() bool {
		conn.Publish(conn.NewMessage(TopicStatsReset, nil, false))
		return acq.resets.Load() > 0 && proc.resets.Load() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestIntervalFromConfig(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor-test")
	captureLog(t)

	conn.Publish(conn.NewMessage(bus.Topic{"config", "monitor"}, config.MonitorConfig{Interval: 10 * time.Millisecond}, true))
	sub := conn.Subscribe(TopicStats)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, New(conn, &fakeAcq{}, &fakeProc{}).Start(ctx, time.Hour))

	m := next(t, sub)
	_, ok := m.Payload.(Snapshot)
	assert.True(t, ok)
}
