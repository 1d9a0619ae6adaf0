package stream

import (
	"context"
	"sync"
	"time"
)

// Kind labels the event types carried on the feed.
type Kind string

const (
	// KindSessionTick carries the countdown display once per second.
	KindSessionTick Kind = "session.tick"
	// KindSessionState toggles the logged-in/logged-out view.
	KindSessionState Kind = "session.state"
	// KindMovement announces a new ledger movement (transfer leg or loan).
	KindMovement Kind = "movement"
)

// Event is one presentation-facing notification. Only the fields relevant
// to the kind are populated.
type Event struct {
	Kind       Kind      `json:"kind"`
	Username   string    `json:"username,omitempty"`
	MovementID string    `json:"movement_id,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Countdown  string    `json:"countdown,omitempty"` // MM:SS
	LoggedIn   bool      `json:"logged_in"`
	Reason     string    `json:"reason,omitempty"` // login, logout, expired, closed
	Timestamp  time.Time `json:"timestamp"`
}

// Stream fan-outs events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
