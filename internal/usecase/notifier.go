package usecase

import (
	"sync"
	"sync/atomic"

	"github.com/V4T54L/logmon/internal/domain"
)

// Subscriber observes monitor state changes.
type Subscriber interface {
	OnSnapshot(snapshot domain.Snapshot)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(snapshot domain.Snapshot)

func (f SubscriberFunc) OnSnapshot(snapshot domain.Snapshot) { f(snapshot) }

type subscriberEntry struct {
	id     uint64
	sub    Subscriber
	active atomic.Bool
}

// Notifier fans snapshots out to subscribers in subscription order.
type Notifier struct {
	mu      sync.Mutex
	nextID  uint64
	entries []*subscriberEntry
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscription is the disposal token returned by Subscribe.
type Subscription struct {
	notifier *Notifier
	entry    *subscriberEntry
	once     sync.Once
}

// Cancel detaches the subscriber. It is safe to call more than once and from
// inside a callback. Publish calls that begin after Cancel returns skip the
// subscriber.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.entry.active.Store(false)
		s.notifier.remove(s.entry.id)
	})
}

// Subscribe registers sub and returns its disposal token.
func (n *Notifier) Subscribe(sub Subscriber) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	entry := &subscriberEntry{id: n.nextID, sub: sub}
	entry.active.Store(true)
	n.entries = append(n.entries, entry)
	return &Subscription{notifier: n, entry: entry}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.entries {
		if e.id == id {
			n.entries = append(n.entries[:i:i], n.entries[i+1:]...)
			return
		}
	}
}

// Publish delivers snapshot to every active subscriber synchronously. Callers
// must only publish once the state the snapshot describes is complete.
func (n *Notifier) Publish(snapshot domain.Snapshot) {
	n.mu.Lock()
	entries := n.entries
	n.mu.Unlock()

	for _, e := range entries {
		if e.active.Load() {
			e.sub.OnSnapshot(snapshot)
		}
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}
