package provisioning

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// keyedMutex serializes mutations per cluster. A mutation that touches several
// clusters (a host that belongs to more than one) acquires every lock in a
// single sorted pass so two overlapping mutations can never deadlock against
// each other.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the locks for every id (deduplicated, in sorted order) and
// returns a function that releases them in reverse order.
func (k *keyedMutex) Lock(ids ...uuid.UUID) func() {
	if len(ids) == 0 {
		return func() {}
	}

	sorted := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	locked := make([]*lockEntry, 0, len(sorted))
	for _, id := range sorted {
		k.mu.Lock()
		entry, ok := k.entries[id]
		if !ok {
			entry = new(lockEntry)
			k.entries[id] = entry
		}
		entry.refs++
		k.mu.Unlock()

		entry.mu.Lock()
		locked = append(locked, entry)
	}

	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()

			k.mu.Lock()
			locked[i].refs--
			if locked[i].refs == 0 {
				delete(k.entries, sorted[i])
			}
			k.mu.Unlock()
		}
	}
}
