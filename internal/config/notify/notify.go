// Package notify delivers settings change notifications.
//
// Observers subscribe either to every change or to one key. A key
// subscription also matches the keys below it, so a subscription to
// "recorder" sees changes to "recorder.trim_trailing_moves".
package notify

import (
	"sort"
	"strings"
	"sync"
)

// ChangeType represents the type of settings change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeReload indicates the settings file was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one settings change.
type Change struct {
	// Key is the dotted setting key. Empty for reload events.
	Key string

	// Type is the type of change.
	Type ChangeType

	// Old is the previous value.
	Old any

	// New is the current value.
	New any

	// Source identifies where the change came from ("file", "env", "api").
	Source string
}

// Observer is called when a change is delivered.
type Observer func(change Change)

// Subscription represents an active observer registration.
type Subscription struct {
	id       uint64
	key      string
	notifier *Notifier
}

// Key returns the subscribed key, or "" for a global subscription.
func (s *Subscription) Key() string {
	return s.key
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	key      string
	global   bool
	observer Observer
}

// Notifier fans changes out to observers. Observers run synchronously
// on the goroutine calling Notify, in subscription order.
type Notifier struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	nextID  uint64
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{entries: make(map[uint64]entry)}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(entry{global: true, observer: observer})
}

// SubscribeKey registers an observer for changes to key and the keys
// below it. Reload events are delivered to every key subscriber.
func (n *Notifier) SubscribeKey(key string, observer Observer) *Subscription {
	return n.add(entry{key: key, observer: observer})
}

func (n *Notifier) add(e entry) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.entries[id] = e
	return &Subscription{id: id, key: e.key, notifier: n}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Notify sends a change to all matching observers.
func (n *Notifier) Notify(change Change) {
	for _, obs := range n.matching(change) {
		obs(change)
	}
}

// NotifySet is a convenience method for set changes.
func (n *Notifier) NotifySet(key string, oldValue, newValue any, source string) {
	n.Notify(Change{
		Key:    key,
		Type:   ChangeSet,
		Old:    oldValue,
		New:    newValue,
		Source: source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{Type: ChangeReload, Source: source})
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, id)
}

// matching collects observers under the read lock so they can run
// without it and may subscribe or unsubscribe themselves.
func (n *Notifier) matching(change Change) []Observer {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]uint64, 0, len(n.entries))
	for id, e := range n.entries {
		if e.global || change.Key == "" || covers(e.key, change.Key) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.entries[id].observer
	}
	return observers
}

// covers reports whether key equals target or is one of its parents.
// e.g., "recorder" covers "recorder.trim_trailing_moves".
func covers(key, target string) bool {
	if key == target {
		return true
	}
	return strings.HasPrefix(target, key) && len(target) > len(key) && target[len(key)] == '.'
}
