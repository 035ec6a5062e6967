package services

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Bloom filter sizing for known canonical identifiers.
const (
	minKnownCapacity = 10000
	knownFPRate      = 0.01
	lockStripes      = 64
)

// DedupCache is the in-memory canonical identifier to digest map. It is
// best-effort: entries are populated lazily from the store, refreshed on
// every ingest and rebuilt by Load after a restart.
//
// Alongside the map it keeps a bloom filter of every identifier the store
// is known to hold. Once loaded, a negative filter answer means the store
// lookup can be skipped.
type DedupCache struct {
	mu      sync.RWMutex
	entries map[string]driven.DigestEntry
	known   *bloom.BloomFilter
	loaded  bool
}

// NewDedupCache creates an empty cache.
func NewDedupCache() *DedupCache {
	return &DedupCache{
		entries: make(map[string]driven.DigestEntry),
		known:   bloom.NewWithEstimates(minKnownCapacity, knownFPRate),
	}
}

// Get returns the cached digest for a canonical identifier.
func (c *DedupCache) Get(path string) (driven.DigestEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Put records the digest for a canonical identifier.
func (c *DedupCache) Put(path, digest string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = driven.DigestEntry{Hash: digest, UpdatedAt: at}
	c.known.AddString(path)
}

// MaybeStored reports whether the store may hold the identifier. Before
// Load it always answers true.
func (c *DedupCache) MaybeStored(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return true
	}
	return c.known.TestString(path)
}

// Load replaces the cache contents with the digests read from the store.
func (c *DedupCache) Load(digests map[string]driven.DigestEntry) {
	capacity := uint(max(2*len(digests), minKnownCapacity))
	known := bloom.NewWithEstimates(capacity, knownFPRate)
	entries := make(map[string]driven.DigestEntry, len(digests))
	for path, e := range digests {
		entries[path] = e
		known.AddString(path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.known = known
	c.loaded = true
}

// Len returns the number of cached identifiers.
func (c *DedupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// keyLocks serialises work per key over a fixed set of mutexes. Two keys
// may share a stripe; one key always maps to the same stripe.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyLocks) lock(key string) func() {
	m := &k.stripes[xxhash.Sum64String(key)%lockStripes]
	m.Lock()
	return m.Unlock
}
