package storage

import "sync"

// Table names carried on change events.
const (
	TableGroups        = "groups"
	TableMembers       = "group_members"
	TableCycles        = "cycles"
	TablePayments      = "payments"
	TableNotifications = "notifications"
	TableUsers         = "users"
)

// Change actions.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeEvent describes one committed mutation. ID is the primary key of the
// affected row when the mutation knows it (bulk updates leave it empty, and
// consumers fall back to table-granularity invalidation). GroupID is set for
// rows owned by a group.
type ChangeEvent struct {
	Table   string `json:"table"`
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

type subscription struct {
	tables map[string]struct{} // empty means all tables
	ch     chan ChangeEvent
}

// Bus fans committed change events out to subscribers. Publishing never
// blocks: a subscriber that falls behind misses events rather than stalling
// writers, which is acceptable because consumers treat events as
// invalidation hints, not as a durable log.
type Bus struct {
	mu   sync.Mutex
	subs map[int]*subscription
	next int
}

// NewBus creates an empty change bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Subscribe registers interest in the given tables (all tables if none are
// named). It returns the event channel and a cancel function that closes it.
func (b *Bus) Subscribe(tables ...string) (<-chan ChangeEvent, func()) {
	sub := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan ChangeEvent, 64),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers ev to every matching subscriber without blocking.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if len(sub.tables) > 0 {
			if _, ok := sub.tables[ev.Table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
