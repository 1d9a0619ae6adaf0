// Package session implements the inactivity countdown: a single-countdown
// state machine that signals each elapsed second and fires expiry exactly
// once per countdown.
package session

import (
	"sync"
	"time"
)

// DefaultBudget matches the reference behavior: 20 minutes of inactivity.
const DefaultBudget = 1200

// State identifies where the countdown machine is.
type State int

const (
	Inactive State = iota
	Active
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "inactive"
	}
}

// Timer is the countdown. Starting a new countdown always fully supersedes
// the previous one; at most one is ticking at any time.
type Timer struct {
	budget   int
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	// dispatchMu serializes callback invocations so reports from a
	// superseded countdown can never interleave with the new one's.
	dispatchMu sync.Mutex

	mu        sync.Mutex
	state     State
	remaining int
	gen       int
	cancel    chan struct{}
}

// New builds a timer with a full budget in seconds and one tick per
// interval. Callbacks must not block and must not call back into the timer;
// both may be nil.
func New(budget int, interval time.Duration, onTick func(int), onExpire func()) *Timer {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{
		budget:   budget,
		interval: interval,
		onTick:   onTick,
		onExpire: onExpire,
		state:    Inactive,
	}
}

// Reset starts a fresh countdown at the full budget, cancelling any running
// one. The full budget is reported immediately, then once per tick.
func (t *Timer) Reset() {
	t.mu.Lock()
	if t.cancel != nil {
		close(t.cancel)
	}
	t.gen++
	gen := t.gen
	t.cancel = make(chan struct{})
	cancel := t.cancel
	t.state = Active
	t.remaining = t.budget
	remaining := t.remaining
	t.mu.Unlock()

	t.dispatchMu.Lock()
	if t.onTick != nil {
		t.onTick(remaining)
	}
	t.dispatchMu.Unlock()

	go t.run(gen, cancel)
}

// Stop cancels the countdown without expiring it.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
	t.state = Inactive
	t.remaining = 0
}

// Snapshot reports the current state and remaining seconds.
func (t *Timer) Snapshot() (State, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.remaining
}

func (t *Timer) run(gen int, cancel <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !t.fire(gen) {
				return
			}
		}
	}
}

// fire decrements the countdown and dispatches callbacks, provided this
// goroutine still owns the countdown. A stale generation means a newer
// countdown superseded this one between the ticker firing and the lock
// being taken.
func (t *Timer) fire(gen int) bool {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.mu.Lock()
	if gen != t.gen || t.state != Active {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	remaining := t.remaining
	expired := remaining <= 0
	if expired {
		remaining = 0
		t.remaining = 0
		t.state = Expired
		t.cancel = nil
	}
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(remaining)
	}
	if expired {
		if t.onExpire != nil {
			t.onExpire()
		}
		return false
	}
	return true
}
