package realtime

import (
	"context"
	"sync"

	"haul-bidding/utils"
)

// Hub is an in-process Broker. Publish never blocks: a subscriber whose
// buffer is full is cut off with ErrLagged and must resynchronise.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*hubSub
	nextID uint64
	buffer int
	closed bool
}

// NewHub creates a hub giving each subscriber buffer pending events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[uint64]*hubSub), buffer: buffer}
}

func (h *Hub) Publish(ctx context.Context, ev ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}
	for _, s := range h.subs {
		if !s.filter.Match(ev) {
			continue
		}
		if s.deliver(ev) {
			utils.Warn("Subscriber lagged, dropping it", map[string]any{
				"subscriber": s.id,
				"booking_id": ev.BookingID,
				"buffer":     cap(s.ch),
			})
		}
	}
	return nil
}

// Subscribe registers a subscriber that lives until Close or until ctx ends.
func (h *Hub) Subscribe(ctx context.Context, f Filter) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	h.nextID++
	s := &hubSub{id: h.nextID, filter: f, ch: make(chan ChangeEvent, h.buffer), hub: h}
	h.subs[s.id] = s
	stop := context.AfterFunc(ctx, func() { s.end(ctx.Err()) })
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s, nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*hubSub)
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.finish(ErrClosed)
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

type hubSub struct {
	id     uint64
	filter Filter
	ch     chan ChangeEvent
	hub    *Hub
	stop   func() bool

	mu   sync.Mutex
	err  error
	done bool
}

func (s *hubSub) Events() <-chan ChangeEvent { return s.ch }

func (s *hubSub) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *hubSub) Close() {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.end(nil)
}

// deliver reports whether this event made the subscriber lag. It runs under
// the hub read lock, so removal is handed to another goroutine.
func (s *hubSub) deliver(ev ChangeEvent) (lagged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return false
	}
	select {
	case s.ch <- ev:
		return false
	default:
		s.err = ErrLagged
		s.done = true
		close(s.ch)
		go s.hub.remove(s.id)
		return true
	}
}

func (s *hubSub) end(err error) {
	s.finish(err)
	s.hub.remove(s.id)
}

func (s *hubSub) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.err = err
	s.done = true
	close(s.ch)
}
