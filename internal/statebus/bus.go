// Package statebus broadcasts lifecycle states from the coordinator to every
// attached observer. Delivery is best effort: events emitted while nobody is
// subscribed are lost, and an observer that stops draining its channel
// misses events instead of slowing down the producer or other observers.
package statebus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agbru/taskcoord/internal/state"
)

// DefaultBufferSize is the per-subscription channel capacity. A full run of
// the long task produces 13 events, so the default leaves room for several
// runs before a stalled observer starts losing events.
const DefaultBufferSize = 64

// Option configures a Bus during construction.
type Option func(*Bus)

// WithBufferSize sets the per-subscription buffer. Values below 1 are raised to 1.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n < 1 {
			n = 1
		}
		b.bufferSize = n
	}
}

// Bus is a single-producer broadcast of state.State values.
// It is safe for concurrent use.
type Bus struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	order      []uint64 // subscription IDs in attach order
	nextID     uint64
	bufferSize int
	closed     bool

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// New creates an open bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:       make(map[uint64]*Subscription),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe attaches a new observer. The returned subscription receives every
// event emitted after this call until ctx is done, Close is called, or the
// bus is closed; its channel is closed at that point.
func (b *Bus) Subscribe(ctx context.Context) *Subscription {
	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		id:   b.nextID,
		bus:  b,
		ch:   make(chan state.State, b.bufferSize),
		stop: make(chan struct{}),
	}
	if b.closed {
		b.mu.Unlock()
		sub.once.Do(func() {
			close(sub.ch)
			close(sub.stop)
		})
		return sub
	}
	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	b.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.stop:
			}
		}()
	}
	return sub
}

// Emit delivers s to all attached subscriptions in the order Emit is called.
// It never blocks and never fails.
func (b *Bus) Emit(s state.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.emitted.Add(1)
	for _, id := range b.order {
		sub := b.subs[id]
		select {
		case sub.ch <- s:
		default:
			sub.dropped.Add(1)
			b.dropped.Add(1)
		}
	}
}

// Close detaches and closes every subscription. Emit becomes a no-op and
// Subscribe returns already-closed subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.order))
	for _, id := range b.order {
		subs = append(subs, b.subs[id])
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Subscribers returns the number of attached subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Emitted returns the number of events accepted by Emit.
func (b *Bus) Emitted() uint64 { return b.emitted.Load() }

// Dropped returns the number of per-subscription deliveries skipped because
// a subscription buffer was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// detach removes sub and closes its channel. Holding b.mu while closing
// guarantees Emit never sends on a closed channel.
func (b *Bus) detach(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	for i, id := range b.order {
		if id == sub.id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	close(sub.ch)
}

// Subscription is one observer's view of the bus.
type Subscription struct {
	id      uint64
	bus     *Bus
	ch      chan state.State
	stop    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Events returns the receive side of the subscription. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan state.State { return s.ch }

// Dropped returns how many events this subscription missed.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.detach(s)
		close(s.stop)
	})
}
