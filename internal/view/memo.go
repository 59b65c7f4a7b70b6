package view

import (
	"sync"

	"agency-data-service/internal/domain/clients"
)

// memoKey identifies one derived list: the snapshot version it was built
// from plus the filter and sort parameters.
type memoKey struct {
	version uint64
	filters Filters
	key     SortKey
}

// Memo caches the most recent derived list per (filters, sort) pair. When
// the registry version moves on, stale entries are dropped wholesale; the
// pipeline is cheap enough that only repeat reads of the same snapshot are
// worth caching.
type Memo struct {
	mu      sync.Mutex
	version uint64
	cache   map[memoKey][]clients.Client
}

// NewMemo constructs an empty Memo.
func NewMemo() *Memo {
	return &Memo{cache: make(map[memoKey][]clients.Client)}
}

// Get returns the derived list for the given snapshot, computing and
// caching it on a miss. The returned slice is shared between callers and
// must be treated as read-only.
func (m *Memo) Get(snapshot []clients.Client, version uint64, filters Filters, key SortKey) []clients.Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version != m.version {
		m.version = version
		m.cache = make(map[memoKey][]clients.Client)
	}

	k := memoKey{version: version, filters: filters, key: key}
	if cached, ok := m.cache[k]; ok {
		return cached
	}
	derived := FilteredSorted(snapshot, filters, key)
	m.cache[k] = derived
	return derived
}
