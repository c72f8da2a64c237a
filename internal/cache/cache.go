// Package cache provides an in-process query cache invalidated by store
// change events. Each entry records the tables and row IDs it was built
// from; an event carrying a row ID evicts only the entries that recorded
// that row, and events without an ID evict everything depending on the
// table. A dependency declared without row IDs is table-wide: any event on
// that table evicts the entry, which is how listings depend on tables whose
// rows they do not load (a groups-for-user listing is reshaped by membership
// changes it never sees).
package cache

import (
	"sync"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// Dep names the rows of one table a cached result was built from. Empty IDs
// means the result depends on the table as a whole.
type Dep struct {
	Table string
	IDs   []string
}

type entry struct {
	value any
	// deps maps table -> row IDs; a nil set marks a table-wide dependency.
	deps map[string]map[string]struct{}
}

// Cache is a query cache over a flat key space. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	byTable map[string]map[string]struct{} // table -> keys depending on it
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		byTable: make(map[string]map[string]struct{}),
	}
}

// Get returns the cached value for key if present.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.value, true
	}
	return nil, false
}

// Put stores a query result together with its table dependencies.
func (c *Cache) Put(key string, value any, deps ...Dep) {
	e := &entry{value: value, deps: make(map[string]map[string]struct{}, len(deps))}
	for _, d := range deps {
		var ids map[string]struct{}
		if len(d.IDs) > 0 {
			ids = make(map[string]struct{}, len(d.IDs))
			for _, id := range d.IDs {
				ids[id] = struct{}{}
			}
		}
		e.deps[d.Table] = ids
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(key)
	c.entries[key] = e
	for table := range e.deps {
		keys, ok := c.byTable[table]
		if !ok {
			keys = make(map[string]struct{})
			c.byTable[table] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateRow evicts entries that depend on the given row, plus entries
// with a table-wide dependency on its table.
func (c *Cache) InvalidateRow(table, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byTable[table] {
		ids := c.entries[key].deps[table]
		if ids == nil {
			c.evictLocked(key)
			continue
		}
		if _, ok := ids[id]; ok {
			c.evictLocked(key)
		}
	}
}

// InvalidateTable evicts every entry depending on the table.
func (c *Cache) InvalidateTable(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byTable[table] {
		c.evictLocked(key)
	}
}

// evictLocked removes key from the entry map and every table index.
func (c *Cache) evictLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for table := range e.deps {
		if keys, ok := c.byTable[table]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTable, table)
			}
		}
	}
}

// Subscribe consumes change events from the bus until cancel is called,
// translating each event into the narrowest possible eviction. It returns
// the cancel function.
func (c *Cache) Subscribe(bus *storage.Bus) func() {
	events, cancel := bus.Subscribe()
	go func() {
		for ev := range events {
			// Updates touch rows already in cached listings; inserts and
			// deletes change which rows a listing would contain, so only a
			// table-wide eviction is safe for them.
			if ev.Action == storage.ActionUpdate && ev.ID != "" {
				c.InvalidateRow(ev.Table, ev.ID)
			} else {
				c.InvalidateTable(ev.Table)
			}
		}
	}()
	return cancel
}
