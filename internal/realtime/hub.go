package realtime

import (
	"sync"

	"go.uber.org/zap"

	"beacon-tracker/internal/logger"
)

// Hub fans device change events out to subscribers. Every repository write
// publishes here, and each subscriber reacts by reloading whatever view it
// keeps, so delivery is allowed to coalesce: when a subscriber lags, older
// undelivered events are replaced by the newest one rather than queued.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// Subscription is one registered callback. Cancel is idempotent and safe to
// call concurrently with delivery.
type Subscription struct {
	id   uint64
	hub  *Hub
	ch   chan Event
	done chan struct{}
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers fn to be invoked on every published event. Callbacks run
// on a dedicated goroutine per subscription, never on the publisher's.
func (h *Hub) Subscribe(fn func(Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:   h.nextID,
		hub:  h,
		ch:   make(chan Event, 1),
		done: make(chan struct{}),
	}
	if h.closed {
		sub.once.Do(func() { close(sub.done) })
		return sub
	}
	h.subs[sub.id] = sub

	go func() {
		for {
			select {
			case ev := <-sub.ch:
				fn(ev)
			case <-sub.done:
				return
			}
		}
	}()

	return sub
}

// Publish delivers ev to all current subscribers without blocking. A subscriber
// that has not consumed its previous event sees only the newest one.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			// Coalesce: replace the stale pending event with the newest.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- ev:
			default:
			}
		}
	}

	logger.Debug("change event published",
		zap.String("action", string(ev.Action)),
		zap.String("device_id", ev.DeviceID.String()),
		zap.Int("subscribers", len(subs)),
	)
}

// SubscriberCount reports how many subscriptions are live.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close cancels every subscription. Further Publish calls are no-ops and
// further Subscribe calls return already-cancelled subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Cancel stops delivery and releases the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}
