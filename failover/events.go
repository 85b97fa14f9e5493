package failover

import (
	"sync"

	"github.com/meshgrid/crossregion"
)

// eventRing is a fixed-capacity ring buffer of failover events. When full,
// the oldest entry is evicted.
type eventRing struct {
	mu     sync.Mutex
	buf    []crossregion.FailoverEvent
	start  int
	length int
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: make([]crossregion.FailoverEvent, capacity)}
}

func (r *eventRing) append(event crossregion.FailoverEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.length < len(r.buf) {
		r.buf[(r.start+r.length)%len(r.buf)] = event
		r.length++
		return
	}
	r.buf[r.start] = event
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot returns the buffered events, oldest first.
func (r *eventRing) snapshot() []crossregion.FailoverEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]crossregion.FailoverEvent, r.length)
	for i := 0; i < r.length; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
