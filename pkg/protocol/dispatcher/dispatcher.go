// Package dispatcher maintains active subscriptions and fans accepted
// events out to them: a bounded, drop-oldest outbox per subscription with
// a dedicated single-sender goroutine draining it in FIFO order, plus an
// inverted candidate index (kind, tag) that prunes the authoritative
// filter.Match pass to only the subscriptions that could possibly match.
// There is no pubkey-prefix index: a subscription with neither a kind nor
// a tag predicate is checked against every event.
package dispatcher

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/utils/log"
)

// DefaultCapacity is the recommended outbox capacity per subscription.
const DefaultCapacity = 1024

// Sender is implemented by a gateway connection: deliver one event to the
// named subscription's transport.
type Sender interface {
	Deliver(subID string, ev *event.E) error
}

// Subscription is one live, connection-bound filter with its bounded
// outbox.
type Subscription struct {
	ID     string
	Filter *filter.F
	sender Sender

	mu             sync.Mutex
	outbox         []*event.E
	capacity       int
	cond           *sync.Cond
	closed         bool
	delivered      uint64
	dropped        uint64
	queueHighWater int
}

func newSubscription(id string, f *filter.F, sender Sender, capacity int) *Subscription {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Subscription{ID: id, Filter: f, sender: sender, capacity: capacity}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// enqueue appends ev to the outbox, dropping the oldest pending item first
// if the outbox is already full.
func (s *Subscription) enqueue(ev *event.E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.outbox) >= s.capacity {
		s.outbox = s.outbox[1:]
		s.dropped++
	}
	s.outbox = append(s.outbox, ev)
	if len(s.outbox) > s.queueHighWater {
		s.queueHighWater = len(s.outbox)
	}
	s.cond.Signal()
}

// run is the subscription's single sender goroutine: it drains the outbox
// to the transport in FIFO order until the subscription is closed.
func (s *Subscription) run() {
	for {
		s.mu.Lock()
		for len(s.outbox) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.outbox) == 0 {
			s.mu.Unlock()
			return
		}
		ev := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.mu.Unlock()

		if err := s.sender.Deliver(s.ID, ev); err != nil {
			log.D.F("dispatcher: delivery to %s failed: %v", s.ID, err)
			continue
		}
		s.mu.Lock()
		s.delivered++
		s.mu.Unlock()
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Counters reports the subscription's delivered/dropped/queue_high_water
// counters, surfaced at /healthz.
type Counters struct {
	Delivered      uint64
	Dropped        uint64
	QueueHighWater int
	QueueDepth     int
}

// Counters returns a snapshot of this subscription's counters.
func (s *Subscription) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counters{
		Delivered:      s.delivered,
		Dropped:        s.dropped,
		QueueHighWater: s.queueHighWater,
		QueueDepth:     len(s.outbox),
	}
}

// D is the dispatcher: the concurrent registry of active subscriptions and
// the inverted candidate index over kind and tag.
type D struct {
	subs *xsync.MapOf[string, *Subscription]

	mu        sync.RWMutex
	byKind    map[uint16][]*Subscription
	byTag     map[string][]*Subscription
	noFilter  []*Subscription // subs with no kind/tag predicate: must be checked against every event
}

// New constructs an empty dispatcher.
func New() *D {
	return &D{
		subs:   xsync.NewMapOf[string, *Subscription](),
		byKind: map[uint16][]*Subscription{},
		byTag:  map[string][]*Subscription{},
	}
}

// Subscribe registers a new subscription and starts its sender goroutine.
func (d *D) Subscribe(id string, f *filter.F, sender Sender, capacity int) *Subscription {
	s := newSubscription(id, f, sender, capacity)
	d.subs.Store(id, s)
	go s.run()

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case len(f.Kinds) > 0:
		for _, k := range f.Kinds {
			d.byKind[k.Uint16()] = append(d.byKind[k.Uint16()], s)
		}
	case len(f.Tags) > 0:
		for key, values := range f.Tags {
			for _, v := range values {
				tk := key + "\x00" + v
				d.byTag[tk] = append(d.byTag[tk], s)
			}
		}
	default:
		d.noFilter = append(d.noFilter, s)
	}
	return s
}

// Unsubscribe closes and removes a subscription. Its sender goroutine
// still delivers any events already queued and then exits; Unsubscribe
// returns without waiting for that drain to finish.
func (d *D) Unsubscribe(id string) {
	v, ok := d.subs.LoadAndDelete(id)
	if !ok {
		return
	}
	v.close()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKind = pruneIndex(d.byKind, v)
	d.byTag = pruneIndex(d.byTag, v)
	d.noFilter = pruneSlice(d.noFilter, v)
}

func pruneIndex[K comparable](idx map[K][]*Subscription, s *Subscription) map[K][]*Subscription {
	for k, list := range idx {
		idx[k] = pruneSlice(list, s)
	}
	return idx
}

func pruneSlice(list []*Subscription, s *Subscription) []*Subscription {
	out := list[:0]
	for _, x := range list {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}

// CloseAll closes every subscription in the dispatcher, whichever
// connection owns it. Gateways tear down a single connection by
// unsubscribing its own subscription ids instead.
func (d *D) CloseAll() {
	d.subs.Range(func(id string, s *Subscription) bool {
		d.Unsubscribe(id)
		return true
	})
}

// Dispatch computes the candidate subscriptions for ev (kind index ∪ tag
// index ∪ unfiltered subs), authoritatively re-checks each with
// filter.Match, and enqueues the event on every match.
func (d *D) Dispatch(ev *event.E) {
	d.mu.RLock()
	candidates := map[*Subscription]bool{}
	for _, s := range d.byKind[ev.Kind.Uint16()] {
		candidates[s] = true
	}
	if ev.Tags != nil {
		for _, t := range ev.Tags.T {
			for _, v := range t.Values {
				tk := string(t.Key) + "\x00" + string(v)
				for _, s := range d.byTag[tk] {
					candidates[s] = true
				}
			}
		}
	}
	for _, s := range d.noFilter {
		candidates[s] = true
	}
	d.mu.RUnlock()

	for s := range candidates {
		if filter.Match(ev, s.Filter) {
			s.enqueue(ev)
		}
	}
}

// Get returns a subscription by id, if it exists.
func (d *D) Get(id string) (*Subscription, bool) { return d.subs.Load(id) }

// Range calls fn for every active subscription, in no particular order,
// stopping early if fn returns false. Used to aggregate counters across
// every subscription for /metrics.
func (d *D) Range(fn func(id string, s *Subscription) bool) {
	d.subs.Range(fn)
}

// Count reports the number of active subscriptions.
func (d *D) Count() int {
	n := 0
	d.subs.Range(func(string, *Subscription) bool { n++; return true })
	return n
}
