// Package lru implements the bounded, order-preserving name tracker
// underlying the methylome set's eviction policy. It tracks only recency
// order; it has no notion of what (if anything) a name is associated with.
package lru

import "container/list"

// Tracker is a bounded total order over a set of names, front (MRU) to
// back (LRU). Pushing past capacity evicts the back.
type Tracker struct {
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

// NewTracker returns an empty Tracker bounded to capacity entries.
func NewTracker(capacity int) *Tracker {
	return &Tracker{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Push adds name to the front of the order. If name is already resident it
// is moved to the front instead of duplicated. If the tracker is full and
// name is new, the back entry is evicted.
func (t *Tracker) Push(name string) (evicted string, didEvict bool) {
	if e, ok := t.index[name]; ok {
		t.order.MoveToFront(e)
		return "", false
	}
	if len(t.index) >= t.capacity {
		back := t.order.Back()
		if back != nil {
			evicted = back.Value.(string)
			didEvict = true
			t.order.Remove(back)
			delete(t.index, evicted)
		}
	}
	t.index[name] = t.order.PushFront(name)
	return evicted, didEvict
}

// MoveToFront moves a resident name to the front of the order. It is a
// no-op if name is not resident.
func (t *Tracker) MoveToFront(name string) {
	if e, ok := t.index[name]; ok {
		t.order.MoveToFront(e)
	}
}

// Remove evicts name from the tracker regardless of its position.
func (t *Tracker) Remove(name string) {
	if e, ok := t.index[name]; ok {
		t.order.Remove(e)
		delete(t.index, name)
	}
}

// Back returns the least recently used name, or ok=false if empty.
func (t *Tracker) Back() (name string, ok bool) {
	back := t.order.Back()
	if back == nil {
		return "", false
	}
	return back.Value.(string), true
}

// Full reports whether the tracker holds capacity entries.
func (t *Tracker) Full() bool { return len(t.index) >= t.capacity }

// Size returns the number of resident names.
func (t *Tracker) Size() int { return len(t.index) }

// Names returns the resident names ordered from most to least recently
// used. It is intended for tests and diagnostics, not the hot path.
func (t *Tracker) Names() []string {
	out := make([]string, 0, t.order.Len())
	for e := t.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}
