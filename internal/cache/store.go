package cache

import (
	"sync"
	"time"
)

// Kind namespaces cached values by data category. Kinds share no key space
// and carry independent TTL defaults and hit/miss statistics.
type Kind int

const (
	KindPrice Kind = iota
	KindOHLC
	KindMarketMeta
)

var allKinds = []Kind{KindPrice, KindOHLC, KindMarketMeta}

func (k Kind) String() string {
	switch k {
	case KindPrice:
		return "price"
	case KindOHLC:
		return "ohlc"
	default:
		return "market_meta"
	}
}

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Stats is a point-in-time view of cache effectiveness per kind.
type Stats struct {
	Hits   map[Kind]int64 `json:"hits"`
	Misses map[Kind]int64 `json:"misses"`
	Size   map[Kind]int   `json:"size"`
}

// Store is an in-memory TTL response cache. Expiry is lazy: an expired
// entry counts as a miss on read and is dropped on the next write or sweep.
// All methods are safe for concurrent use; no method performs I/O.
type Store struct {
	mu       sync.Mutex
	entries  map[Kind]map[string]entry
	hits     map[Kind]int64
	misses   map[Kind]int64
	defaults map[Kind]time.Duration

	now func() time.Time
}

// NewStore creates a cache with per-kind default TTLs used when Put is
// called with a non-positive ttl.
func NewStore(priceTTL, ohlcTTL, metaTTL time.Duration) *Store {
	s := &Store{
		entries: make(map[Kind]map[string]entry, len(allKinds)),
		hits:    make(map[Kind]int64, len(allKinds)),
		misses:  make(map[Kind]int64, len(allKinds)),
		defaults: map[Kind]time.Duration{
			KindPrice:      priceTTL,
			KindOHLC:       ohlcTTL,
			KindMarketMeta: metaTTL,
		},
		now: time.Now,
	}
	for _, k := range allKinds {
		s.entries[k] = make(map[string]entry)
	}
	return s
}

// Get returns the cached value for (kind, key). A read past the entry's
// TTL is a miss regardless of prior hits.
func (s *Store) Get(kind Kind, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[kind][key]
	if !ok || e.expired(s.now()) {
		s.misses[kind]++
		return nil, false
	}
	s.hits[kind]++
	return e.value, true
}

// Put stores value under (kind, key), overwriting unconditionally and
// resetting the TTL clock. ttl<=0 selects the kind's default.
func (s *Store) Put(kind Kind, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaults[kind]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(kind)
	s.entries[kind][key] = entry{value: value, createdAt: s.now(), ttl: ttl}
}

// Invalidate removes key from every kind.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range allKinds {
		delete(s.entries[k], key)
	}
}

// SweepExpired removes all expired entries and returns how many were dropped.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for _, k := range allKinds {
		dropped += s.dropExpiredLocked(k)
	}
	return dropped
}

// Stats returns a copy of the hit/miss counters and sizes per kind.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Hits:   make(map[Kind]int64, len(allKinds)),
		Misses: make(map[Kind]int64, len(allKinds)),
		Size:   make(map[Kind]int, len(allKinds)),
	}
	for _, k := range allKinds {
		st.Hits[k] = s.hits[k]
		st.Misses[k] = s.misses[k]
		st.Size[k] = len(s.entries[k])
	}
	return st
}

func (s *Store) dropExpiredLocked(kind Kind) int {
	now := s.now()
	dropped := 0
	for key, e := range s.entries[kind] {
		if e.expired(now) {
			delete(s.entries[kind], key)
			dropped++
		}
	}
	return dropped
}
