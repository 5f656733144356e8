package odtemplate

import "sync/atomic"

// barrier counts down the entries of one run. The call to done that brings
// the count to zero fires exactly once, unless the barrier was disarmed first.
type barrier struct {
	remaining atomic.Int64
	disarmed  atomic.Bool
	fired     atomic.Bool
	fire      func()
}

func newBarrier(n int, fire func()) *barrier {
	b := &barrier{fire: fire}
	b.remaining.Store(int64(n))
	return b
}

// done records one written entry.
func (b *barrier) done() {
	if b.remaining.Add(-1) != 0 {
		return
	}
	if b.disarmed.Load() {
		return
	}
	if b.fired.CompareAndSwap(false, true) {
		b.fire()
	}
}

// disarm stops the barrier from firing. It has no effect once fired.
func (b *barrier) disarm() {
	b.disarmed.Store(true)
}

func (b *barrier) satisfied() bool {
	return b.fired.Load()
}

func (b *barrier) pending() int64 {
	return b.remaining.Load()
}
