// internal/store/table.go
//
// Generic keyed table behind the in-memory repositories.
// Responsibilities:
//   - Concurrency-safe CRUD over one entity type, in insertion order
//   - Clone values on the way in and out
//   - Snapshot/restore so a group of writes can be undone

package store

import "sync"

// table is a concurrency-safe keyed collection of T, kept in insertion order.
// Values are cloned on the way in and out so callers never alias stored state.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: make(map[string]T), clone: clone}
}

// put inserts or replaces id.
func (t *table[T]) put(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.clone(v)
}

// get returns a copy of id.
func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(v), true
}

// del removes id, reporting whether it existed.
func (t *table[T]) del(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// update applies fn to the stored value under the write lock.
func (t *table[T]) update(id string, fn func(T) T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return false
	}
	t.rows[id] = fn(v)
	return true
}

// find returns copies of every row accepted by keep, in insertion order.
func (t *table[T]) find(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

// snapshot copies the table and returns a func that puts the copy back.
func (t *table[T]) snapshot() (restore func()) {
	t.mu.RLock()
	rows := make(map[string]T, len(t.rows))
	for id, v := range t.rows {
		rows[id] = t.clone(v)
	}
	order := append([]string(nil), t.order...)
	t.mu.RUnlock()

	return func() {
		t.mu.Lock()
		t.rows, t.order = rows, order
		t.mu.Unlock()
	}
}
