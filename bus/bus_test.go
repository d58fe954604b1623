package bus

import (
	"sort"
	"testing"
	"time"
)

const (
	TopicDaq   = "daq"
	TopicStats = "stats"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(Topic{TopicDaq, TopicStats})

	msg := conn.NewMessage(Topic{TopicDaq, TopicStats}, "hello", false)
	conn.Publish(msg)

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	msg := conn.NewMessage(Topic{TopicDaq, TopicStats}, "persist", true)
	conn.Publish(msg)

	sub := conn.Subscribe(Topic{TopicDaq, TopicStats})

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("expected retained payload 'persist', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcardMatching(t *testing.T) {
	cases := []struct {
		pattern Topic
		publish Topic
		match   bool
	}{
		{Topic{"config", "+"}, Topic{"config", "monitor"}, true},
		{Topic{"config", "+"}, Topic{"config"}, false},
		{Topic{"config", "+"}, Topic{"config", "bridge", "serial"}, false},
		{Topic{"config", "#"}, Topic{"config"}, true},
		{Topic{"config", "#"}, Topic{"config", "bridge", "serial"}, true},
		{Topic{"#"}, Topic{"bridge", "state"}, true},
		{Topic{"daq", "stats", "#"}, Topic{"daq", "stats"}, true},
		{Topic{"daq", "stats", "#"}, Topic{"daq", "stats", "reset"}, true},
		{Topic{"daq", "+", "reset"}, Topic{"daq", "stats", "reset"}, true},
		{Topic{"daq", "+", "reset"}, Topic{"daq", "stats"}, false},
		{Topic{"+", "state"}, Topic{"bridge", "state"}, true},
		{Topic{"+", "state"}, Topic{"daq", "stats"}, false},
		{Topic{"daq", "stats"}, Topic{"daq", "stats", "reset"}, false},
	}
	for _, tc := range cases {
		b := NewBus(4)
		c := b.NewConnection("test")
		s := c.Subscribe(tc.pattern)
		c.Publish(b.NewMessage(tc.publish, "m", false))
		if tc.match {
			expectOneOf(t, s, "m")
		} else {
			expectNoMessage(t, s)
		}
	}
}

func TestRetainedConfigSectionsReplayed(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("config")

	for _, sec := range []string{"acquisition", "processing", "monitor", "bridge"} {
		c.Publish(b.NewMessage(Topic{"config", sec}, sec, true))
	}
	c.Publish(b.NewMessage(Topic{"daq", "stats"}, "stats", true))

	all := b.NewConnection("all").Subscribe(Topic{"config", "#"})
	assertUnorderedEqual(t, drainPayloads(t, all, 4),
		[]string{"acquisition", "processing", "monitor", "bridge"})
	expectNoMessage(t, all)

	one := b.NewConnection("monitor").Subscribe(Topic{"config", "monitor"})
	expectOneOf(t, one, "monitor")

	everything := b.NewConnection("dump").Subscribe(Topic{"+", "#"})
	if got := drainPayloads(t, everything, 5); len(got) != 5 {
		t.Fatalf("got %v", got)
	}
}

func TestRetainedReplacedAndCleared(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"bridge", "state"}, "idle", true))
	c.Publish(b.NewMessage(Topic{"bridge", "state"}, "up", true))
	c.Publish(b.NewMessage(Topic{"daq", "stats"}, "snapshot", true))

	s := c.Subscribe(Topic{"bridge", "state"})
	expectOneOf(t, s, "up")
	expectNoMessage(t, s)

	c.Publish(b.NewMessage(Topic{"bridge", "state"}, nil, true))
	if got := <-s.Channel(); got.Payload != nil {
		t.Fatalf("clear should still be delivered live, got %v", got.Payload)
	}

	late := c.Subscribe(Topic{"#"})
	got := drainPayloads(t, late, 1)
	if got[0] != "snapshot" {
		t.Fatalf("expected only 'snapshot' after clear, got %v", got)
	}
}

// -----------------------------------------------------------------------------
// Queueing and lifecycle
// -----------------------------------------------------------------------------

func TestDropOldestWhenQueueFull(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(Topic{"daq", "data"})

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(Topic{"daq", "data"}, p, false))
	}
	got := drainPayloads(t, s, 2)
	if got[0] != "2" || got[1] != "3" {
		t.Fatalf("expected oldest dropped, got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s := c.Subscribe(Topic{"a"})
	s.Unsubscribe()

	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel still open")
	}
	// publishing after unsubscribe must not panic
	c.Publish(b.NewMessage(Topic{"a"}, "x", false))
	// second unsubscribe is a no-op
	c.Unsubscribe(s)
}

func TestDisconnect(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s1 := c.Subscribe(Topic{"a"})
	s2 := c.Subscribe(Topic{"b", "#"})
	c.Disconnect()

	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatal("channel still open after disconnect")
		}
	}
}

func TestParseTopic(t *testing.T) {
	tp := ParseTopic("wind_turbine/data")
	if !topicsEqual(tp, Topic{"wind_turbine", "data"}) {
		t.Fatalf("got %v", tp)
	}
	if tp.String() != "wind_turbine/data" {
		t.Fatalf("String()=%q", tp.String())
	}
	if ParseTopic("") != nil {
		t.Fatal("empty topic should be nil")
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func topicsEqual(a, b Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(60 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if s, ok := m.Payload.(string); ok {
				out = append(out, s)
			} else {
				t.Fatalf("non-string payload in drain: %#v", m.Payload)
			}
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("drainPayloads: expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %q, want %q (got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}
