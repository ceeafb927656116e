// Package dedupe tracks row keys so repeated rows are processed once.
package dedupe

import (
	"sync"
)

const defaultMaxSize = 1 << 20

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it if not.
	SeenAndRecord(key string) bool

	// Forget removes key so it can be recorded again.
	Forget(key string)

	// Reset drops every recorded key.
	Reset()

	Size() int
}

// inMemoryDeduper keeps keys in a map. In bounded mode the insertion order is
// kept in a ring so the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []string
	next    int
	maxSize int // <= 0 means unbounded
}

// NewInMemoryDeduper creates a deduper. It is safe for concurrent use.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.Reset()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}

	slot := d.next
	if old := d.ring[slot]; old != "" {
		if s, ok := d.seen[old]; ok && s == slot {
			delete(d.seen, old)
		}
	}
	d.ring[slot] = key
	d.seen[key] = slot
	d.next = (slot + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]int)
	d.next = 0
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Unique returns items with repeated keys removed, keeping the first
// occurrence and the input order, and the number of items dropped.
// Items whose key is empty are dropped as well.
func Unique[T any](d Deduper, items []T, key func(T) string) ([]T, int) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" || d.SeenAndRecord(k) {
			continue
		}
		out = append(out, it)
	}
	return out, len(items) - len(out)
}
