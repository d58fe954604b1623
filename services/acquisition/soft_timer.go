package acquisition

import (
	"errors"
	"sync"
	"time"
)

var ErrTimerRunning = errors.New("acquisition: timer already running")

// SoftTimer drives Tick from a goroutine. It wakes every Resolution and
// runs however many ticks wall time says are owed, so the tick count tracks
// real time even though individual ticks are bunched. Used on the host.
type SoftTimer struct {
	// Resolution defaults to 1 ms.
	Resolution time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (t *SoftTimer) Start(hz uint32, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return ErrTimerRunning
	}
	res := t.Resolution
	if res <= 0 {
		res = time.Millisecond
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(hz, res, fn, t.stop, t.done)
	return nil
}

func (t *SoftTimer) loop(hz uint32, res time.Duration, fn func(), stop, done chan struct{}) {
	defer close(done)
	tk := time.NewTicker(res)
	defer tk.Stop()

	start := time.Now()
	var fired uint64
	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			owed := uint64(now.Sub(start)) * uint64(hz) / uint64(time.Second)
			for ; fired < owed; fired++ {
				fn()
			}
		}
	}
}

func (t *SoftTimer) Stop() error {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
