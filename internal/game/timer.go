package game

import (
	"sync"
	"time"
)

// TimerRegistry keeps at most one pending callback per key. Setting a key
// supersedes any earlier timer for it, and a firing callback clears its
// own entry before running, so handlers may re-arm themselves without
// self-cancelling.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]*time.Timer)}
}

func (r *TimerRegistry) Set(key string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.timers[key]; ok {
		prev.Stop()
		delete(r.timers, key)
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		r.clear(key, t)
		fn()
	})
	r.timers[key] = t
}

// clear removes the entry only if it still belongs to the firing timer;
// a callback racing a Set for the same key must not drop the new timer.
func (r *TimerRegistry) clear(key string, t *time.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.timers[key]; ok && cur == t {
		delete(r.timers, key)
	}
}

func (r *TimerRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
}

// Has reports whether a timer is pending for key.
func (r *TimerRegistry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[key]
	return ok
}

func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
