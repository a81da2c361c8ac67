package game_test

import (
	"sync/atomic"
	"testing"
	"time"

	"uno-service/internal/game"
)

func TestTimerFiresAndClearsEntry(t *testing.T) {
	r := game.NewTimerRegistry()
	fired := make(chan struct{})

	r.Set("chan-1", 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	// The entry clears before the callback runs.
	if r.Has("chan-1") {
		t.Fatal("fired timer should have been cleared")
	}
}

func TestTimerSetSupersedes(t *testing.T) {
	r := game.NewTimerRegistry()
	var first, second atomic.Bool
	done := make(chan struct{})

	r.Set("chan-1", 20*time.Millisecond, func() { first.Store(true) })
	r.Set("chan-1", 30*time.Millisecond, func() {
		second.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("superseding timer never fired")
	}
	if first.Load() {
		t.Fatal("superseded timer must not fire")
	}
	if !second.Load() {
		t.Fatal("superseding timer should fire")
	}
}

func TestTimerDeleteCancels(t *testing.T) {
	r := game.NewTimerRegistry()
	var fired atomic.Bool

	r.Set("chan-1", 20*time.Millisecond, func() { fired.Store(true) })
	r.Delete("chan-1")

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Fatal("deleted timer must not fire")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}

func TestTimerCallbackMayRearm(t *testing.T) {
	r := game.NewTimerRegistry()
	done := make(chan struct{})
	var count atomic.Int32

	var arm func()
	arm = func() {
		r.Set("chan-1", 5*time.Millisecond, func() {
			if count.Add(1) < 3 {
				arm()
				return
			}
			close(done)
		})
	}
	arm()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("rearming handler stalled after %d fires", count.Load())
	}
}

func TestTimerKeysAreIndependent(t *testing.T) {
	r := game.NewTimerRegistry()
	fired := make(chan string, 2)

	r.Set("a", 10*time.Millisecond, func() { fired <- "a" })
	r.Set("b", 10*time.Millisecond, func() { fired <- "b" })

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case k := <-fired:
			seen[k] = true
		case <-time.After(time.Second):
			t.Fatal("timers did not both fire")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both keys to fire, got %v", seen)
	}
}
